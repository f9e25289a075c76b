package protocol

import "math"

// Remote job status as reported by GET /jobs/{id}/status.
type JobStatus string

const (
	JobQueued      JobStatus = "queued"
	JobCreated     JobStatus = "created"
	JobTranslating JobStatus = "translating"
	JobStarting    JobStatus = "starting"
	JobStarted     JobStatus = "started"
	JobCompleted   JobStatus = "completed"
	JobTimeout     JobStatus = "timeout"
	JobFailed      JobStatus = "failed"
	JobError       JobStatus = "error"
	JobUnknown     JobStatus = "unknown"
	JobStopped     JobStatus = "stopped"
)

const (
	// The remote service refuses time limits below this many seconds.
	MinTimeout = 10
	MaxTimeout = math.MaxInt32
)

// Should return true if the job is still in progress on the remote side
func (status JobStatus) IsRunning() bool {
	switch status {
	case JobQueued, JobCreated, JobTranslating, JobStarting, JobStarted:
		return true
	default:
		return false
	}
}

// Should return true if the job will not change status again
func (status JobStatus) IsTerminal() bool {
	return !status.IsRunning()
}

// Should return true if the job has results to fetch
func (status JobStatus) HasResults() bool {
	return status == JobCompleted
}

// ClampTimeout returns seconds limited to [MinTimeout, MaxTimeout].
func ClampTimeout(seconds int64) int64 {
	if seconds < MinTimeout {
		return MinTimeout
	}
	if seconds > MaxTimeout {
		return MaxTimeout
	}
	return seconds
}
