package session

// Audit event types emitted by the engine and the history API.
const (
	EventSessionStarted   = "session_started"
	EventSessionResumed   = "session_resumed"
	EventSessionAbandoned = "session_abandoned"
	EventResultRecorded   = "result_recorded"
	EventHistoryCleared   = "history_cleared"
)
