// Package seed generates scored submissions, posts them to a running
// service and checks the fused reports it returns.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL string        // Base URL of the service
	Users   int           // Number of synthetic users
	PerUser int           // Submissions generated per user
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Seed    uint64        // Generator seed; equal seeds give equal data
	Verbose bool          // Log every failed request
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Created    int
	Duplicate  int
	Failed     int
	Reports    int
	Verified   int
	Mismatched int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Passed reports whether every request succeeded and every report matched.
func (s *Stats) Passed() bool {
	return s.Failed == 0 && s.Mismatched == 0 && s.Verified == s.Reports
}
