package solveengine

import (
	"time"

	"github.com/srand/solvelink/pkg/protocol"
)

// A recorded state transition.
type Transition struct {
	State  State
	Status protocol.JobStatus
	Time   time.Time
}

// A job submitted to the remote service.
type Job struct {
	// Identifier assigned by the service.
	ID string

	// Last status reported by the service.
	Status protocol.JobStatus

	State State
	Cause Cause

	// Time limit sent with the submission, in seconds.
	Timeout   int64
	Submitted time.Time

	// Number of status queries, including failed ones.
	Polls int

	// Set if the job terminated because the service could not be reached.
	Err error

	History []Transition
}

func (j *Job) transition(state State, now time.Time) {
	j.State = state
	j.History = append(j.History, Transition{State: state, Status: j.Status, Time: now})
}

// Returns the states the job has been in, in order.
func (j *Job) States() []State {
	states := make([]State, 0, len(j.History))
	for _, t := range j.History {
		states = append(states, t.State)
	}
	return states
}

// Returns true if the job was stopped while the service still reported
// it as running.
func (j *Job) StoppedWhileRunning() bool {
	return j.State == StateStoppedLocally && j.Status.IsRunning()
}
