package wire

// LifecycleState is the state a sync round reports to listeners.
type LifecycleState uint8

const (
	// StateRequestFinished indicates the HTTP request returned but the
	// response has not been processed yet.
	StateRequestFinished LifecycleState = 0

	// StateComplete indicates the response was fully processed.
	StateComplete LifecycleState = 1

	// StateErrored indicates the round failed.
	StateErrored LifecycleState = 2
)

// String returns the lifecycle state name.
func (s LifecycleState) String() string {
	switch s {
	case StateRequestFinished:
		return "REQUEST_FINISHED"
	case StateComplete:
		return "COMPLETE"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// Sort keys understood by the server, highest priority first when listed.
const (
	SortByHighlightCount    = "by_highlight_count"
	SortByNotificationCount = "by_notification_count"
	SortByRecency           = "by_recency"
	SortByName              = "by_name"
)

// Wildcard matches any event type or state key in required state.
const Wildcard = "*"
