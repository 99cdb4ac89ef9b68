package execution

import "time"

// Execution is one attempt to run compiled SQL against the warehouse.
// Records are created at dispatch time and, once terminal, mutate only
// for result metadata.
type Execution struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	ReportID       *uint64 // nil for pure ad-hoc runs
	SegmentID      *uint64 // set when owned by a backfill segment
	TriggerKind    TriggerKind
	Status         Status
	TargetInstance string

	SQL               string
	ParameterSnapshot map[string]any
	WindowStart       *time.Time
	WindowEnd         *time.Time

	JobID          string
	ResultLocation string
	RowCount       int64
	ByteCount      int64
	ErrorKind      ErrorKind
	ErrorMessage   string

	StartTime *time.Time
	EndTime   *time.Time
}

// StartNow marks the execution running and stamps StartTime.
func (e *Execution) StartNow() *Execution {
	now := time.Now()
	e.Status = StatusRunning
	e.StartTime = &now
	return e
}

// MarkCompleted records the terminal success state with result metadata.
func (e *Execution) MarkCompleted(resultLocation string, rowCount, byteCount int64) *Execution {
	now := time.Now()
	e.Status = StatusCompleted
	e.ResultLocation = resultLocation
	e.RowCount = rowCount
	e.ByteCount = byteCount
	e.EndTime = &now
	return e
}

// MarkFailed records the terminal failure state with the remote message
// kept verbatim next to the classified kind.
func (e *Execution) MarkFailed(kind ErrorKind, message string) *Execution {
	now := time.Now()
	e.Status = StatusFailed
	e.ErrorKind = kind
	e.ErrorMessage = message
	e.EndTime = &now
	return e
}

func (e *Execution) MarkCancelled() *Execution {
	now := time.Now()
	e.Status = StatusCancelled
	e.EndTime = &now
	return e
}

// Cancellable reports whether the execution may still be cancelled.
func (e *Execution) Cancellable() bool {
	return e.Status == StatusPending || e.Status == StatusRunning
}
