package warehouse

import "errors"

// JobStatus is the remote service's status vocabulary.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

var (
	// ErrRemoteRejected is returned when the service refuses a
	// submission outright (malformed SQL, authorization).
	ErrRemoteRejected = errors.New("remote service rejected the query")
	// ErrNotCancellable is returned when the remote job is already in a
	// terminal state.
	ErrNotCancellable = errors.New("remote job is not cancellable")
)

type SubmitResult struct {
	JobID string `json:"job_id"`
}

type PollResult struct {
	Status         JobStatus `json:"status"`
	ResultLocation string    `json:"result_location,omitempty"`
	RowCount       int64     `json:"row_count,omitempty"`
	ByteCount      int64     `json:"byte_count,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}
