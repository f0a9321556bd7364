package model

import "time"

// Submission status values.
const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusFailed    = "failed"
)

// Submission records one attempt to create a document upstream.
// It carries no persistence tags; repositories map it explicitly.
type Submission struct {
	ID           string    `json:"id"`
	DocID        string    `json:"doc_id"`
	DocType      string    `json:"doc_type"`
	Status       string    `json:"status"`
	ResponseCode int       `json:"response_code"`
	Error        string    `json:"error,omitempty"`
	PayloadPath  string    `json:"payload_path"`
	CreatedAt    time.Time `json:"created_at"`
}
