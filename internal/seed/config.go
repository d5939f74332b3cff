// Package seed loads a running huntboard with random entries through its
// admin API and checks that the published board comes back ordered.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Count    int           // Number of entries to submit
	Workers  int           // Number of concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	User     string        // Basic auth user name
	Secret   string        // Admin secret
	Settle   time.Duration // How long to wait for the board to catch up
	Resubmit bool          // Send every entry twice with the same idempotency key
}

// Submission is one generated entry with its idempotency key.
type Submission struct {
	Key        string `json:"-"`
	TeamName   string `json:"team_name"`
	Year       string `json:"year"`
	Department string `json:"department"`
	TimeTaken  int    `json:"time_taken"`
}

// Row mirrors the fields of a leaderboard row the verifier reads.
type Row struct {
	Rank      int    `json:"rank"`
	ID        string `json:"id"`
	TeamName  string `json:"team_name"`
	TimeTaken int    `json:"time_taken"`
}

// Board mirrors the leaderboard response.
type Board struct {
	Rows    []Row `json:"rows"`
	Total   int   `json:"total"`
	Loading bool  `json:"loading"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Accepted   int
	Duplicates int
	Failed     int
	BoardRows  int
	StartTime  time.Time
	Duration   time.Duration
}
