package solveengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/lp"
	"github.com/srand/solvelink/pkg/model"
	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/srand/solvelink/pkg/utils"
)

var ErrPayloadTooLarge = errors.New("payload too large")

// Result of a solve.
type Outcome struct {
	// The remote job, nil if submission failed.
	Job *Job

	Status    Status
	Objective float64
	HasValues bool
	Duration  time.Duration
}

// Returns the terminal cause, or CauseNone if no job was submitted.
func (o *Outcome) Cause() Cause {
	if o.Job == nil {
		return CauseNone
	}
	return o.Job.Cause
}

// Solver solves models on the remote service.
type Solver struct {
	config    *Config
	client    Client
	clock     utils.Clock
	fs        utils.Fs
	observers []Observer
}

func NewSolver(config *Config, client Client, clock utils.Clock, fs utils.Fs) *Solver {
	if clock == nil {
		clock = utils.SystemClock
	}

	return &Solver{
		config: config,
		client: client,
		clock:  clock,
		fs:     fs,
	}
}

// Register an observer for all jobs run by the solver.
func (s *Solver) AddObserver(observer Observer) {
	s.observers = append(s.observers, observer)
}

// Returns an encoded payload for the model.
func (s *Solver) payload(m *model.Model) ([]byte, error) {
	if s.config.LPFile != "" && s.fs != nil {
		if err := lp.WriteFile(s.fs, s.config.LPFile, m, lp.WithStatistics()); err != nil {
			log.Warnf("Failed to write LP file %s: %v", s.config.LPFile, err)
		} else {
			log.Infof("Wrote LP to %s", s.config.LPFile)
		}
	}

	payload, err := lp.Encode(m, lp.WithStatistics())
	if err != nil {
		return nil, err
	}

	limit, err := s.config.MaxPayloadBytes()
	if err != nil {
		return nil, err
	}

	if limit > 0 && int64(len(payload)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds the limit of %s", ErrPayloadTooLarge,
			utils.HumanByteSize(int64(len(payload))), utils.HumanByteSize(limit))
	}

	log.Debugf("Payload size is %s", utils.HumanByteSize(int64(len(payload))))
	return payload, nil
}

func (s *Solver) printJobs(ctx context.Context) {
	jobs, err := ListJobs(ctx, s.client, DefaultListLength)
	if err != nil {
		log.Warn(err)
		return
	}

	log.Infof("%d recent jobs:", len(jobs))
	for _, job := range jobs {
		log.Infof("  %s %-12s %s", job.ID, job.Status, job.Submitted)
	}
}

// Solve serializes the model, runs it as a remote job and writes the
// outcome back into the model. The model status is set on every path.
func (s *Solver) Solve(ctx context.Context, m *model.Model) (*Outcome, error) {
	start := s.clock.Now()
	outcome := &Outcome{}

	finish := func(status Status, err error) (*Outcome, error) {
		if outcome.Status == (Status{}) {
			outcome.Status = status
			m.SetStatus(status.Solve, status.Model)
		}
		outcome.Objective = m.Solution.Objective
		outcome.HasValues = m.Solution.HasValues
		outcome.Duration = s.clock.Now().Sub(start)

		log.Infof("Solve status: %v, model status: %v", outcome.Status.Solve, outcome.Status.Model)
		return outcome, err
	}

	if err := lp.CheckCapabilities(m); err != nil {
		return finish(statusCapability, err)
	}

	payload, err := s.payload(m)
	if err != nil {
		return finish(statusSetup, err)
	}

	if s.config.PrintJobs {
		s.printJobs(ctx)
	}

	orchestrator := NewOrchestrator(s.client, s.clock, s.config)
	for _, observer := range s.observers {
		orchestrator.AddObserver(observer)
	}

	job, result, err := orchestrator.Run(ctx, payload)
	outcome.Job = job

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, transport.ErrCancelled) {
			return finish(statusUser, err)
		}
		return finish(statusSystem, err)
	}

	if result == nil {
		if job.StoppedWhileRunning() {
			log.Infof("Job %s was stopped while %s", job.ID, job.Status)
		}
		return finish(causeStatus(job), nil)
	}

	log.Infof("Job %s finished with result %q, objective %v", job.ID, result.Status, result.ObjectiveValue)

	status, err := ApplyResult(m, result)
	outcome.Status = status
	return finish(status, err)
}

// Lists recent jobs of the account.
func (s *Solver) ListJobs(ctx context.Context, perPage int) ([]protocol.JobSummary, error) {
	return ListJobs(ctx, s.client, perPage)
}
