package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrNoSubmissions means the user has no records to report on.
	ErrNoSubmissions = errors.New("no submissions found")
	// ErrSubmissionNotFound means the user has no record with the requested ID.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrUserNotFound means no identity is stored for the user.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidSubmission means a submission is missing required fields.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrDuplicateSubmission means the user already stored a different
	// submission under the same ID.
	ErrDuplicateSubmission = errors.New("submission id already used")
	// ErrNotStarted means Start has not completed.
	ErrNotStarted = errors.New("service not started")
)
