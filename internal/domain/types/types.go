// Package types contains wire types shared by the HTTP API and its clients.
package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimeLayout is the timestamp format used in reports.
const TimeLayout = "2006-01-02 15:04:05"

// ModalityEntry is one modality's contribution to a fused report.
type ModalityEntry struct {
	Type   string `json:"type"`
	Result string `json:"result"`
	Score  string `json:"score"` // three decimals
	Source string `json:"source"`
	Time   string `json:"time"`
}

// Guidance is the recommendation bundle attached to a fused report.
type Guidance struct {
	Precautions  []string `json:"precautions"`
	Measurements []string `json:"measurements"`
	Consult      []string `json:"consult"`
	Diet         []string `json:"diet"`
	Habits       []string `json:"habits"`
}

// FusionReport is the JSON body of a fused report. When the user has no
// submissions only Error is set and Overall is omitted.
type FusionReport struct {
	UserID     string          `json:"user_id"`
	Overall    *float64        `json:"overall,omitempty"`
	Tier       string          `json:"tier,omitempty"`
	Status     string          `json:"status,omitempty"`
	Modalities []ModalityEntry `json:"modalities"`
	Guidance   *Guidance       `json:"guidance,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Submission is a stored prediction record as exposed over HTTP.
type Submission struct {
	ID        string    `json:"id"`
	Modality  string    `json:"modality"`
	Label     string    `json:"label,omitempty"`
	Score     string    `json:"score,omitempty"`
	FileName  string    `json:"file_name"`
	CreatedAt time.Time `json:"created_at"`
	Age       int       `json:"age,omitempty"`
	Sex       string    `json:"sex,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// SubmissionRequest is the body accepted when uploading a scored test.
type SubmissionRequest struct {
	SubmissionID string     `json:"submission_id,omitempty"`
	Modality     string     `json:"modality"`
	Label        RawValue   `json:"label,omitempty"`
	Score        RawValue   `json:"score,omitempty"`
	FileName     string     `json:"file_name"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	Age          int        `json:"age,omitempty"`
	Sex          string     `json:"sex,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// Document names an archived report.
type Document struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RawValue keeps a scalar JSON field as text. Numbers are kept verbatim,
// strings unquoted, and null becomes empty.
type RawValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = RawValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = RawValue(n)
	}
	return nil
}
