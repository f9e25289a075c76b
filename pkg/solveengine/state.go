package solveengine

import "fmt"

// Orchestrator state of a job.
type State int

const (
	StateIdle State = iota
	StateSubmitted
	StateScheduled
	StatePolling
	StateCompleted
	StateTimedOutRemote
	StateFailed
	StateStoppedLocally
	StateErrorRemote
)

var stateNames = map[State]string{
	StateIdle:           "idle",
	StateSubmitted:      "submitted",
	StateScheduled:      "scheduled",
	StatePolling:        "polling",
	StateCompleted:      "completed",
	StateTimedOutRemote: "timed out remotely",
	StateFailed:         "failed",
	StateStoppedLocally: "stopped locally",
	StateErrorRemote:    "remote error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Returns true if no further transition can occur.
func (s State) IsTerminal() bool {
	return s >= StateCompleted
}

// Reason the state machine terminated.
type Cause int

const (
	CauseNone Cause = iota
	CauseCompleted
	CauseTimedOutRemote
	CauseFailed
	CauseTimedOutLocal
	CauseCancelledByUser
	CauseErrorRemote
)

var causeNames = map[Cause]string{
	CauseNone:            "none",
	CauseCompleted:       "completed",
	CauseTimedOutRemote:  "timed_out_remote",
	CauseFailed:          "failed",
	CauseTimedOutLocal:   "timed_out_local",
	CauseCancelledByUser: "cancelled_by_user",
	CauseErrorRemote:     "error_remote",
}

func (c Cause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Cause(%d)", int(c))
}

// Returns true if the job was stopped by local policy rather than by
// the remote service.
func (c Cause) IsLocal() bool {
	return c == CauseTimedOutLocal || c == CauseCancelledByUser
}
