// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Modality tags the kind of diagnostic test a prediction came from.
type Modality string

// Known modalities. Other non-empty tags are kept and fused with the default weight.
const (
	ModalityECG      Modality = "ECG"
	ModalityPPG      Modality = "PPG"
	ModalityHeartCSV Modality = "HEART_CSV"
)

// ParseModality canonicalizes a raw tag: trimmed, upper-cased, and ECG when empty.
func ParseModality(raw string) Modality {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return ModalityECG
	}
	return Modality(t)
}

// Known reports whether m is one of the built-in modalities.
func (m Modality) Known() bool {
	switch m {
	case ModalityECG, ModalityPPG, ModalityHeartCSV:
		return true
	}
	return false
}

func (m Modality) String() string { return string(m) }

// PredictionRecord is one scored test submission.
type PredictionRecord struct {
	ID         string    // store-assigned when empty
	UserID     string    // owner
	Modality   Modality  // canonical tag, never empty once stored
	RawLabel   string    // class name, class index or binary word; empty when absent
	RawScore   string    // probability or model score as submitted; empty when absent
	SourceName string    // original filename
	CreatedAt  time.Time // submission instant

	// Optional patient context captured with the upload.
	Age   int
	Sex   string
	Notes string
}

// Canonical returns a copy with the modality tag canonicalized.
func (r PredictionRecord) Canonical() PredictionRecord {
	r.Modality = ParseModality(string(r.Modality))
	return r
}

// User is the minimal identity a report is addressed to.
type User struct {
	ID       string
	Email    string
	FullName string
}

// DisplayName returns the full name, falling back to e-mail and then ID.
func (u User) DisplayName() string {
	switch {
	case strings.TrimSpace(u.FullName) != "":
		return u.FullName
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}
