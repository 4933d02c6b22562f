package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Document is a rendered report written to the reports directory.
type Document struct {
	Name        string
	Path        string
	Bytes       []byte
	GeneratedAt time.Time
}

// Archive writes documents into a single directory. A document is either
// absent or complete: writes go to a temp file that is renamed into place.
type Archive struct {
	dir string
}

// NewArchive creates dir if needed.
func NewArchive(dir string) (*Archive, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("reports directory is required: %w", ErrArchive)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create reports directory: %w: %w", ErrArchive, err)
	}
	return &Archive{dir: dir}, nil
}

// Dir returns the reports directory.
func (a *Archive) Dir() string { return a.dir }

// Save stores data under a sanitized form of name and returns its path.
// An existing document with the same name is replaced.
func (a *Archive) Save(name string, data []byte) (string, error) {
	name = sanitize(name)
	final := filepath.Join(a.dir, name)

	tmp, err := os.CreateTemp(a.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp document: %w: %w", ErrArchive, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write document: %w: %w", ErrArchive, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("sync document: %w: %w", ErrArchive, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close document: %w: %w", ErrArchive, err)
	}
	if err := os.Chmod(tmpName, 0o640); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod document: %w: %w", ErrArchive, err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		cleanup()
		return "", fmt.Errorf("publish document: %w: %w", ErrArchive, err)
	}
	return final, nil
}

// FusionName names a fused report for user generated at t.
func FusionName(userID string, t time.Time) string {
	return "fusion_" + escape(userID) + "_" + t.UTC().Format("20060102150405") + ".pdf"
}

// SubmissionName names the report of one of the user's submissions.
func SubmissionName(userID, submissionID string) string {
	return "report_" + escape(userID) + "_" + escape(submissionID) + ".pdf"
}

// escape percent-encodes every byte of a name component other than ASCII
// letters, digits, '.' and '-'. The '_' separator is encoded too, so
// distinct components always yield distinct names.
func escape(component string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(component))
	for i := 0; i < len(component); i++ {
		c := component[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}

// sanitize keeps a name inside the reports directory and free of shell-hostile bytes.
// Names built by FusionName and SubmissionName pass through unchanged.
func sanitize(name string) string {
	b := []byte(name)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_', c == '%':
		default:
			b[i] = '_'
		}
	}
	s := strings.TrimLeft(string(b), ".")
	if s == "" {
		return "document.pdf"
	}
	return s
}
