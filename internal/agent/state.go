package agent

// TurnState is a stage of a single chat turn.
type TurnState int

// Turn states in order. StateFailed is terminal and reachable from any state.
const (
	StateStart TurnState = iota
	StateContextReady
	StateAwaitingCompletion
	StateClassified
	StateTaskPipeline
	StateDone
	StateFailed
)

var stateNames = map[TurnState]string{
	StateStart:              "START",
	StateContextReady:       "CONTEXT_READY",
	StateAwaitingCompletion: "AWAITING_COMPLETION",
	StateClassified:         "CLASSIFIED",
	StateTaskPipeline:       "TASK_PIPELINE",
	StateDone:               "DONE",
	StateFailed:             "FAILED",
}

func (s TurnState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether no further transition can follow s.
func (s TurnState) Terminal() bool {
	return s == StateDone || s == StateFailed
}
