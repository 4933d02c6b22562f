package mail

import "errors"

// Sentinel kinds for dispatch errors.
var (
	// ErrMailNotConfigured means the relay options are incomplete; mail is disabled.
	ErrMailNotConfigured = errors.New("mail transport not configured")
	// ErrMailTransport means a valid configuration failed to deliver.
	ErrMailTransport = errors.New("mail transport failed")
	// ErrNoRecipient means the user has no address to send to.
	ErrNoRecipient = errors.New("no recipient address")
)
