package solveengine

import "github.com/srand/solvelink/pkg/protocol"

type Observer interface {
	// When the job has entered a new state
	JobStateChanged(*Job, State)

	// When a status query has completed
	PollCompleted(*Job, protocol.JobStatus)
}

type observers []Observer

func (o observers) stateChanged(job *Job, state State) {
	for _, observer := range o {
		observer.JobStateChanged(job, state)
	}
}

func (o observers) pollCompleted(job *Job, status protocol.JobStatus) {
	for _, observer := range o {
		observer.PollCompleted(job, status)
	}
}
