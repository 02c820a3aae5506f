package models

// CycleState is a step of the poll loop state machine
type CycleState int

const (
	StateIdle CycleState = iota
	StateSessionOpen
	StateSearching
	StateProcessingMessage
	StateCycleDone
	StateSleeping
)

func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSessionOpen:
		return "session_open"
	case StateSearching:
		return "searching"
	case StateProcessingMessage:
		return "processing_message"
	case StateCycleDone:
		return "cycle_done"
	case StateSleeping:
		return "sleeping"
	}
	return "unknown"
}

// CycleResult is the outcome of one poll cycle
type CycleResult struct {
	Processed int
	Failed    int
	Err       error
}

// OK reports whether the cycle completed without a session-level failure
func (r CycleResult) OK() bool {
	return r.Err == nil
}
