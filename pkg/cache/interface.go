package cache

import "time"

// Status values recorded for a resource URL.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ResourceEntry stores the outcome of the last download attempt for one
// resource URL.
type ResourceEntry struct {
	Status      string    `json:"status"`               // "success" or "failure"
	Filename    string    `json:"filename,omitempty"`   // Local filename within the resources dir (on success)
	ErrorType   string    `json:"error_type,omitempty"` // Error category (on failure)
	LastAttempt time.Time `json:"last_attempt"`         // Timestamp of the last download attempt
}

// ResourceStore records per-URL download outcomes so repeated invocations
// can skip resources already on disk.
type ResourceStore interface {
	// CheckResource retrieves the recorded entry for a resource URL.
	// Returns nil without error when the URL has never been seen.
	CheckResource(resourceURL string) (*ResourceEntry, error)

	// UpdateResource records the outcome of a download attempt.
	UpdateResource(resourceURL string, entry *ResourceEntry) error

	// Close cleanly closes the underlying store.
	Close() error
}
