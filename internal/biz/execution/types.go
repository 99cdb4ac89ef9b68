package execution

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a sink state.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type TriggerKind string

const (
	TriggerManual   TriggerKind = "manual"
	TriggerSchedule TriggerKind = "schedule"
	TriggerBackfill TriggerKind = "backfill"
	TriggerAPI      TriggerKind = "api"
)

// ErrorKind is the locally classified failure category, kept next to
// the verbatim remote error message.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindDispatch   ErrorKind = "dispatch"
	ErrorKindSyntax     ErrorKind = "syntax"
	ErrorKindPermission ErrorKind = "permission"
	ErrorKindResource   ErrorKind = "resource"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindUnknown    ErrorKind = "unknown"
)
