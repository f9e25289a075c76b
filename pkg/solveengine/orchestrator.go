// Package solveengine drives the lifecycle of a job on the remote solve
// service: submission, scheduling, polling, result retrieval and cleanup.
package solveengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/srand/solvelink/pkg/utils"
)

// The subset of the transport client used by the orchestrator.
type Client interface {
	RequestJSON(ctx context.Context, method, path string, in, out any) error
	Close()
}

var ErrNoJob = errors.New("no job has been submitted")

// Orchestrator runs the state machine of a single job. Calls are
// strictly sequential and an orchestrator must not be shared between
// goroutines.
type Orchestrator struct {
	client    Client
	clock     utils.Clock
	config    *Config
	observers observers
	job       *Job
}

func NewOrchestrator(client Client, clock utils.Clock, config *Config) *Orchestrator {
	if clock == nil {
		clock = utils.SystemClock
	}

	return &Orchestrator{
		client: client,
		clock:  clock,
		config: config,
	}
}

// Register an observer to be notified of job state changes.
func (o *Orchestrator) AddObserver(observer Observer) {
	o.observers = append(o.observers, observer)
}

// Returns the current job, or nil before submission.
func (o *Orchestrator) Job() *Job {
	return o.job
}

func (o *Orchestrator) transition(state State) {
	log.Debugf("Job %s: %v -> %v", o.job.ID, o.job.State, state)
	o.job.transition(state, o.clock.Now())
	o.observers.stateChanged(o.job, state)
}

// Submit uploads a base64 encoded LP payload. No job exists if an
// error is returned.
func (o *Orchestrator) Submit(ctx context.Context, payload []byte) (*Job, error) {
	timeout := o.config.TimeLimitSeconds()

	request := &protocol.SubmitRequest{
		Options: o.config.SolverOptions(),
		Problems: []protocol.Problem{
			{Name: protocol.ProblemName, Data: string(payload)},
		},
		Timeout: timeout,
	}

	response := &protocol.SubmitResponse{}
	if err := o.client.RequestJSON(ctx, http.MethodPost, "/jobs", request, response); err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}

	if response.ID == "" {
		return nil, fmt.Errorf("failed to submit job: %w: no job id in response", transport.ErrParse)
	}

	o.job = &Job{
		ID:        response.ID,
		Timeout:   timeout,
		Submitted: o.clock.Now(),
	}
	o.job.transition(StateIdle, o.job.Submitted)
	o.transition(StateSubmitted)

	log.Infof("Submitted job %s with time limit %ds", o.job.ID, timeout)
	return o.job, nil
}

// Returns true if a schedule response body carries no information.
func trivialBody(body string) bool {
	switch strings.TrimSpace(body) {
	case "", "{}", "null":
		return true
	}
	return false
}

// Schedule starts execution of the submitted job. Acceptance is only
// confirmed by later status queries.
func (o *Orchestrator) Schedule(ctx context.Context) error {
	if o.job == nil {
		return ErrNoJob
	}

	var response json.RawMessage
	err := o.client.RequestJSON(ctx, http.MethodPost, o.path("schedule"), nil, &response)

	switch {
	case errors.Is(err, transport.ErrEmptyResponse):
	case errors.Is(err, transport.ErrParse):
		log.Warnf("Unexpected response when scheduling job %s: %v", o.job.ID, err)
	case err != nil:
		return fmt.Errorf("failed to schedule job %s: %w", o.job.ID, err)
	case !trivialBody(string(response)):
		log.Warnf("Unexpected response when scheduling job %s: %s", o.job.ID, response)
	}

	o.transition(StateScheduled)
	return nil
}

func (o *Orchestrator) path(elem ...string) string {
	return "/" + strings.Join(append([]string{"jobs", o.job.ID}, elem...), "/")
}

// Returns the remote status of the job.
func (o *Orchestrator) Status(ctx context.Context) (protocol.JobStatus, error) {
	if o.job == nil {
		return "", ErrNoJob
	}

	response := &protocol.StatusResponse{}
	if err := o.client.RequestJSON(ctx, http.MethodGet, o.path("status"), nil, response); err != nil {
		return "", err
	}

	return response.Status, nil
}

// Waits for d or until the context is done. Returns false if the context
// was cancelled.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-o.clock.After(d):
		return true
	}
}

// Checks the local termination conditions.
func (o *Orchestrator) localCause(ctx context.Context) Cause {
	if ctx.Err() != nil {
		return CauseCancelledByUser
	}

	limit := o.config.EffectiveHardTimeLimit()
	if elapsed := o.clock.Now().Sub(o.job.Submitted); elapsed > limit {
		log.Warnf("Job %s exceeded the hard time limit of %v after %v", o.job.ID, limit, elapsed)
		return CauseTimedOutLocal
	}

	return CauseNone
}

// Poll queries the job status until it leaves the running set or a local
// limit is reached, and returns the terminal cause.
//
// Failed status queries are retried up to PollRetries times in a row,
// waiting 1s, 2s and then 4s between attempts. The job is then
// considered lost.
func (o *Orchestrator) Poll(ctx context.Context) Cause {
	if o.job == nil {
		return CauseNone
	}

	o.transition(StatePolling)

	interval := o.config.EffectivePollInterval()
	failures := 0
	backoff := DefaultPollBackoff

	for {
		status, err := o.Status(ctx)
		o.job.Polls++

		switch {
		case err != nil && errors.Is(err, transport.ErrCancelled) && ctx.Err() != nil:
			return o.finish(CauseCancelledByUser)

		case err != nil:
			failures++
			if failures > o.config.PollRetries {
				log.Errorf("Giving up on job %s after %d failed status queries: %v", o.job.ID, failures, err)
				o.job.Err = err
				return o.finish(CauseErrorRemote)
			}

			log.Warnf("Status query for job %s failed, retrying in %v: %v", o.job.ID, backoff, err)
			if !o.sleep(ctx, backoff) {
				return o.finish(CauseCancelledByUser)
			}

			backoff *= 2
			if backoff > MaxPollBackoff {
				backoff = MaxPollBackoff
			}

		default:
			failures = 0
			backoff = DefaultPollBackoff

			if status != o.job.Status {
				log.Infof("Job %s is %s", o.job.ID, status)
			}
			o.job.Status = status
			o.observers.pollCompleted(o.job, status)

			if !status.IsRunning() {
				return o.finish(remoteCause(status))
			}

			if !o.sleep(ctx, interval) {
				return o.finish(CauseCancelledByUser)
			}
		}

		if cause := o.localCause(ctx); cause != CauseNone {
			return o.finish(cause)
		}
	}
}

// Returns the terminal cause for a status outside the running set.
func remoteCause(status protocol.JobStatus) Cause {
	switch status {
	case protocol.JobCompleted:
		return CauseCompleted
	case protocol.JobTimeout:
		return CauseTimedOutRemote
	case protocol.JobFailed:
		return CauseFailed
	}
	return CauseErrorRemote
}

func (o *Orchestrator) finish(cause Cause) Cause {
	o.job.Cause = cause

	switch cause {
	case CauseCompleted:
		o.transition(StateCompleted)
	case CauseTimedOutRemote:
		o.transition(StateTimedOutRemote)
	case CauseFailed:
		o.transition(StateFailed)
	case CauseTimedOutLocal, CauseCancelledByUser:
		o.transition(StateStoppedLocally)
	default:
		if o.job.Err == nil {
			log.Warnf("Job %s terminated with unexpected status %q", o.job.ID, o.job.Status)
		}
		o.transition(StateErrorRemote)
	}

	return cause
}

// Results fetches the result bundle of a completed job.
func (o *Orchestrator) Results(ctx context.Context) (*protocol.Result, error) {
	if o.job == nil {
		return nil, ErrNoJob
	}

	response := &protocol.ResultsResponse{}
	if err := o.client.RequestJSON(ctx, http.MethodGet, o.path("results"), nil, response); err != nil {
		return nil, fmt.Errorf("failed to fetch results of job %s: %w", o.job.ID, err)
	}

	return &response.Result, nil
}

// Returns a context for cleanup requests that survives cancellation of
// the parent.
func (o *Orchestrator) cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), DefaultCleanupTimeout)
}

// Stop asks the service to stop the job. Failures are logged.
func (o *Orchestrator) Stop(ctx context.Context) {
	if o.job == nil {
		return
	}

	ctx, cancel := o.cleanupContext(ctx)
	defer cancel()

	log.Infof("Stopping job %s", o.job.ID)
	if err := StopJob(ctx, o.client, o.job.ID); err != nil {
		log.Warn(err)
	}
}

// Delete removes the job from the service. Failures are logged.
func (o *Orchestrator) Delete(ctx context.Context) {
	if o.job == nil {
		return
	}

	ctx, cancel := o.cleanupContext(ctx)
	defer cancel()

	log.Debugf("Deleting job %s", o.job.ID)
	if err := DeleteJob(ctx, o.client, o.job.ID); err != nil {
		log.Warn(err)
	}
}

// Close releases the job and the client. The job is deleted if
// configured.
func (o *Orchestrator) Close(ctx context.Context) {
	if o.config.DeleteJob {
		o.Delete(ctx)
	}
	o.client.Close()
}

// Run drives the job from submission to a terminal state and returns the
// job together with the result bundle, which is only set for completed
// jobs. A job stopped locally while still running is stopped remotely.
// Cleanup always runs before Run returns.
func (o *Orchestrator) Run(ctx context.Context, payload []byte) (job *Job, result *protocol.Result, err error) {
	defer o.Close(ctx)

	if _, err := o.Submit(ctx, payload); err != nil {
		return nil, nil, err
	}

	if err := o.Schedule(ctx); err != nil {
		return o.job, nil, err
	}

	cause := o.Poll(ctx)
	switch {
	case cause == CauseCompleted:
		result, err = o.Results(ctx)
		if err != nil {
			return o.job, nil, err
		}

	case cause.IsLocal() && (o.job.Status.IsRunning() || o.job.Status == ""):
		o.Stop(ctx)
	}

	return o.job, result, nil
}
