package solveengine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/srand/solvelink/pkg/emulator"
	"github.com/srand/solvelink/pkg/lp"
	"github.com/srand/solvelink/pkg/model"
	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/srand/solvelink/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testKey = "solver-test-key"

type testEnv struct {
	emulator *emulator.Emulator
	server   *httptest.Server
	clock    *utils.FakeClock
	config   *Config
	fs       afero.Fs
	solver   *Solver
}

// Wraps the emulator with a handler that fails the first n status
// queries with 503.
func failStatus(n int, next http.Handler) http.Handler {
	var mu sync.Mutex
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/status") {
			mu.Lock()
			fail := n > 0
			n--
			mu.Unlock()
			if fail {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func newTestEnv(t *testing.T, opts emulator.Options, wrap func(http.Handler) http.Handler) *testEnv {
	t.Helper()

	opts.APIKey = testKey
	env := &testEnv{
		emulator: emulator.New(opts),
		clock:    utils.NewFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		fs:       afero.NewMemMapFs(),
	}

	var handler http.Handler = env.emulator.Handler()
	if wrap != nil {
		handler = wrap(handler)
	}
	env.server = httptest.NewServer(handler)
	t.Cleanup(env.server.Close)

	env.config = NewConfig()
	env.config.APIKey = testKey
	env.config.Endpoint = env.server.URL + emulator.DefaultPrefix
	env.config.TimeLimit = 60 * time.Second

	client, err := transport.Configure(env.config.TransportOptions())
	require.NoError(t, err)

	env.solver = NewSolver(env.config, client, env.clock, env.fs)
	return env
}

func testModel() *model.Model {
	m := model.New("test", model.Minimize)
	x0 := m.AddVariable(model.Continuous, 0, model.Inf)
	x1 := m.AddVariable(model.Continuous, 0, model.Inf)
	m.Objective.Linear = []model.Term{{Var: x0, Coef: 1}, {Var: x1, Coef: 1}}
	m.AddConstraint(model.Equal, 10, []model.Term{{Var: x0, Coef: 1}, {Var: x1, Coef: 1}}, nil)
	return m
}

func setValues(values map[string]float64, objective float64) func(*protocol.Result) {
	return func(r *protocol.Result) {
		r.ObjectiveValue = objective
		for i := range r.Variables {
			if value, ok := values[r.Variables[i].Name]; ok {
				r.Variables[i].Value = value
			}
		}
	}
}

func TestSolveCompleted(t *testing.T) {
	env := newTestEnv(t, emulator.Options{
		ResultHook: setValues(map[string]float64{"x0": 4, "x1": 6}, 10),
	}, nil)

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, CauseCompleted, outcome.Cause())
	assert.Equal(t, []State{StateIdle, StateSubmitted, StateScheduled, StatePolling, StateCompleted}, outcome.Job.States())
	assert.Equal(t, protocol.JobCompleted, outcome.Job.Status)
	assert.Equal(t, 3, outcome.Job.Polls)

	assert.Equal(t, 1, env.emulator.Calls(http.MethodGet, "/jobs/:id/results"))
	assert.Zero(t, env.emulator.Calls(http.MethodDelete, "/jobs/:id/stop"))
	assert.Zero(t, env.emulator.Calls(http.MethodDelete, "/jobs/:id"))

	assert.Equal(t, Status{model.SolveStatusNormal, model.ModelStatusOptimal}, outcome.Status)
	assert.Equal(t, model.SolveStatusNormal, m.Solution.SolveStatus)
	assert.True(t, outcome.HasValues)
	assert.Equal(t, 10.0, m.Solution.Objective)
	assert.Equal(t, []float64{4, 6}, m.Solution.Values)

	// One poll interval between each of the three status queries
	assert.Equal(t, 2*time.Second, outcome.Duration)
}

func TestSolveHardTimeLimit(t *testing.T) {
	env := newTestEnv(t, emulator.Options{
		Statuses: []protocol.JobStatus{protocol.JobStarted},
	}, nil)
	env.config.HardTimeLimit = 5 * time.Second

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, CauseTimedOutLocal, outcome.Cause())
	assert.Equal(t, StateStoppedLocally, outcome.Job.State)
	assert.Equal(t, protocol.JobStarted, outcome.Job.Status)
	assert.True(t, outcome.Job.StoppedWhileRunning())

	assert.Equal(t, 1, env.emulator.Calls(http.MethodDelete, "/jobs/:id/stop"))
	assert.Zero(t, env.emulator.Calls(http.MethodGet, "/jobs/:id/results"))

	assert.Equal(t, Status{model.SolveStatusResource, model.ModelStatusNoSolutionReturned}, outcome.Status)
	assert.False(t, m.Solution.HasValues)
}

func TestSolveCancelled(t *testing.T) {
	env := newTestEnv(t, emulator.Options{
		Statuses: []protocol.JobStatus{protocol.JobQueued, protocol.JobStarted},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.solver.AddObserver(&cancelObserver{status: protocol.JobStarted, cancel: cancel})

	m := testModel()
	outcome, err := env.solver.Solve(ctx, m)
	require.NoError(t, err)

	assert.Equal(t, CauseCancelledByUser, outcome.Cause())
	assert.Equal(t, StateStoppedLocally, outcome.Job.State)
	assert.Equal(t, 1, env.emulator.Calls(http.MethodDelete, "/jobs/:id/stop"))
	assert.Zero(t, env.emulator.Calls(http.MethodGet, "/jobs/:id/results"))
	assert.Equal(t, Status{model.SolveStatusUser, model.ModelStatusNoSolutionReturned}, outcome.Status)
}

type cancelObserver struct {
	status protocol.JobStatus
	cancel func()
}

func (o *cancelObserver) JobStateChanged(job *Job, state State) {}

func (o *cancelObserver) PollCompleted(job *Job, status protocol.JobStatus) {
	if status == o.status {
		o.cancel()
	}
}

// A variable that appears in no row, bound or objective is missing from the
// LP, so the service reports one value less than the model has.
func TestSolveUnreferencedVariable(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, nil)

	m := testModel()
	m.AddVariable(model.Continuous, 0, model.Inf)

	outcome, err := env.solver.Solve(context.Background(), m)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, 3, mappingErr.Expected)
	assert.Equal(t, 2, mappingErr.Got)
	assert.False(t, outcome.HasValues)
}

func TestSolveMappingError(t *testing.T) {
	env := newTestEnv(t, emulator.Options{
		ResultHook: func(r *protocol.Result) {
			r.Variables = append(r.Variables, protocol.VariableValue{Name: "x2", Value: 1})
		},
	}, nil)

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, 2, mappingErr.Expected)
	assert.Equal(t, 3, mappingErr.Got)

	assert.Equal(t, CauseCompleted, outcome.Cause())
	assert.False(t, outcome.HasValues)
	assert.False(t, m.Solution.HasValues)
	assert.Nil(t, m.Solution.Values)
}

func TestSolveRemoteOutcomes(t *testing.T) {
	testData := []struct {
		status protocol.JobStatus
		cause  Cause
		state  State
		result Status
	}{
		{protocol.JobTimeout, CauseTimedOutRemote, StateTimedOutRemote, Status{model.SolveStatusResource, model.ModelStatusNoSolutionReturned}},
		{protocol.JobFailed, CauseFailed, StateFailed, Status{model.SolveStatusSolverError, model.ModelStatusErrorNoSolution}},
		{protocol.JobError, CauseErrorRemote, StateErrorRemote, Status{model.SolveStatusInternalError, model.ModelStatusErrorUnknown}},
		{"bogus", CauseErrorRemote, StateErrorRemote, Status{model.SolveStatusInternalError, model.ModelStatusErrorUnknown}},
	}

	for _, data := range testData {
		env := newTestEnv(t, emulator.Options{
			Statuses: []protocol.JobStatus{protocol.JobQueued, data.status},
		}, nil)

		outcome, err := env.solver.Solve(context.Background(), testModel())
		require.NoError(t, err, data.status)

		assert.Equal(t, data.cause, outcome.Cause(), data.status)
		assert.Equal(t, data.state, outcome.Job.State, data.status)
		assert.Equal(t, data.result, outcome.Status, data.status)
		assert.Zero(t, env.emulator.Calls(http.MethodGet, "/jobs/:id/results"), data.status)
		assert.Zero(t, env.emulator.Calls(http.MethodDelete, "/jobs/:id/stop"), data.status)
	}
}

func TestSolveResultStatuses(t *testing.T) {
	testData := []struct {
		result    protocol.ResultStatus
		discrete  bool
		expected  Status
		hasValues bool
	}{
		{protocol.ResultFeasible, false, Status{model.SolveStatusNormal, model.ModelStatusFeasible}, true},
		{protocol.ResultFeasible, true, Status{model.SolveStatusNormal, model.ModelStatusInteger}, true},
		{protocol.ResultInfeasible, false, Status{model.SolveStatusNormal, model.ModelStatusInfeasible}, true},
		{protocol.ResultUnbounded, false, Status{model.SolveStatusNormal, model.ModelStatusUnbounded}, true},
		{protocol.ResultTimeout, false, Status{model.SolveStatusResource, model.ModelStatusFeasible}, true},
		{protocol.ResultInterrupted, true, Status{model.SolveStatusResource, model.ModelStatusInteger}, true},
		{protocol.ResultFailed, false, Status{model.SolveStatusSolverError, model.ModelStatusErrorNoSolution}, false},
		{"weird", false, Status{model.SolveStatusInternalError, model.ModelStatusErrorUnknown}, false},
	}

	for _, data := range testData {
		env := newTestEnv(t, emulator.Options{Result: data.result}, nil)

		m := testModel()
		if data.discrete {
			m.Variables[1].Kind = model.Integer
			m.Variables[1].Upper = 100
		}

		outcome, err := env.solver.Solve(context.Background(), m)
		require.NoError(t, err, data.result)
		assert.Equal(t, data.expected, outcome.Status, data.result)
		assert.Equal(t, data.hasValues, m.Solution.HasValues, data.result)
	}
}

func TestSolveTimeoutWithoutValues(t *testing.T) {
	env := newTestEnv(t, emulator.Options{
		Result: protocol.ResultTimeout,
		ResultHook: func(r *protocol.Result) {
			r.Variables = nil
		},
	}, nil)

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, Status{model.SolveStatusResource, model.ModelStatusNoSolutionReturned}, outcome.Status)
	assert.False(t, m.Solution.HasValues)
}

func TestSolvePollRetries(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, func(next http.Handler) http.Handler {
		return failStatus(DefaultPollRetries, next)
	})

	outcome, err := env.solver.Solve(context.Background(), testModel())
	require.NoError(t, err)

	assert.Equal(t, CauseCompleted, outcome.Cause())
	assert.Equal(t, DefaultPollRetries+3, outcome.Job.Polls)

	// Backoff of 1s, 2s and 4s, then two poll intervals
	assert.Equal(t, 9*time.Second, outcome.Duration)
}

func TestSolvePollGivesUp(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, func(next http.Handler) http.Handler {
		return failStatus(100, next)
	})
	env.config.DeleteJob = true

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	require.NoError(t, err)

	assert.Equal(t, CauseErrorRemote, outcome.Cause())
	assert.Equal(t, StateErrorRemote, outcome.Job.State)
	assert.ErrorIs(t, outcome.Job.Err, transport.ErrHTTPStatus)
	assert.Equal(t, DefaultPollRetries+1, outcome.Job.Polls)
	assert.Equal(t, Status{model.SolveStatusSystemError, model.ModelStatusErrorNoSolution}, outcome.Status)

	// Status was never observed, the job is deleted but not stopped
	assert.Zero(t, env.emulator.Calls(http.MethodDelete, "/jobs/:id/stop"))
	assert.Equal(t, 1, env.emulator.Calls(http.MethodDelete, "/jobs/:id"))
	assert.Equal(t, 7*time.Second, outcome.Duration)
}

func TestSolveDeleteJob(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, nil)
	env.config.DeleteJob = true

	outcome, err := env.solver.Solve(context.Background(), testModel())
	require.NoError(t, err)

	assert.Equal(t, CauseCompleted, outcome.Cause())
	assert.Equal(t, 1, env.emulator.Calls(http.MethodDelete, "/jobs/:id"))
	assert.Empty(t, env.emulator.Jobs())
}

func TestSolveDeleteAfterScheduleFailure(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/schedule") {
				http.Error(w, "overloaded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	env.config.DeleteJob = true

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	assert.ErrorIs(t, err, transport.ErrHTTPStatus)
	assert.Contains(t, err.Error(), "overloaded")

	require.NotNil(t, outcome.Job)
	assert.Equal(t, StateSubmitted, outcome.Job.State)
	assert.Equal(t, 1, env.emulator.Calls(http.MethodDelete, "/jobs/:id"))
	assert.Zero(t, env.emulator.Calls(http.MethodGet, "/jobs/:id/status"))
	assert.Equal(t, model.SolveStatusSystemError, m.Solution.SolveStatus)
}

func TestSolveSubmitFailure(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, nil)
	env.config.DeleteJob = true
	env.server.Close()

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	assert.ErrorIs(t, err, transport.ErrNetwork)
	assert.Nil(t, outcome.Job)
	assert.Equal(t, CauseNone, outcome.Cause())
	assert.Equal(t, Status{model.SolveStatusSystemError, model.ModelStatusErrorNoSolution}, outcome.Status)
}

func TestSolveCapability(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, nil)

	m := testModel()
	m.AddVariable(model.SemiInteger, 1, 4)

	outcome, err := env.solver.Solve(context.Background(), m)
	assert.ErrorIs(t, err, lp.ErrCapability)
	assert.Nil(t, outcome.Job)
	assert.Equal(t, model.SolveStatusCapability, m.Solution.SolveStatus)
	assert.Zero(t, env.emulator.Calls(http.MethodPost, "/jobs"))
}

func TestSolvePayloadLimit(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, nil)
	env.config.MaxPayload = "64B"

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Equal(t, Status{model.SolveStatusSetupError, model.ModelStatusNoSolutionReturned}, outcome.Status)
	assert.Zero(t, env.emulator.Calls(http.MethodPost, "/jobs"))
}

func TestSolveSubmission(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, nil)
	env.config.TimeLimit = 3 * time.Second
	env.config.Options = map[string]any{"threads": 4}
	env.config.LPFile = "/tmp/problem.lp"
	env.config.PrintJobs = true

	m := testModel()
	outcome, err := env.solver.Solve(context.Background(), m)
	require.NoError(t, err)

	request, ok := env.emulator.Request(outcome.Job.ID)
	require.True(t, ok)
	assert.Equal(t, int64(protocol.MinTimeout), request.Timeout)
	assert.Equal(t, int64(protocol.MinTimeout), outcome.Job.Timeout)
	assert.Equal(t, map[string]any{"threads": float64(4)}, request.Options)
	require.Len(t, request.Problems, 1)
	assert.Equal(t, protocol.ProblemName, request.Problems[0].Name)

	encoded, err := lp.Encode(m, lp.WithStatistics())
	require.NoError(t, err)
	assert.Equal(t, string(encoded), request.Problems[0].Data)

	data, err := afero.ReadFile(env.fs, "/tmp/problem.lp")
	require.NoError(t, err)
	assert.Contains(t, string(data), " e0: x0 + x1 = 10\n")

	assert.Equal(t, 1, env.emulator.Calls(http.MethodGet, "/jobs"))
}

type mockObserver struct {
	mock.Mock
}

func (o *mockObserver) JobStateChanged(job *Job, state State) {
	o.Called(state)
}

func (o *mockObserver) PollCompleted(job *Job, status protocol.JobStatus) {
	o.Called(status)
}

func TestSolveObserver(t *testing.T) {
	env := newTestEnv(t, emulator.Options{}, nil)

	observer := &mockObserver{}
	for _, state := range []State{StateSubmitted, StateScheduled, StatePolling, StateCompleted} {
		observer.On("JobStateChanged", state).Once()
	}
	for _, status := range emulator.DefaultStatuses {
		observer.On("PollCompleted", status).Once()
	}
	env.solver.AddObserver(observer)

	_, err := env.solver.Solve(context.Background(), testModel())
	require.NoError(t, err)

	observer.AssertExpectations(t)
}

func TestApplyResultSkipsBadNames(t *testing.T) {
	m := testModel()
	result := &protocol.Result{
		Status:         protocol.ResultOptimal,
		ObjectiveValue: 7,
		Variables: []protocol.VariableValue{
			{Name: "x1", Value: 3},
			{Name: "x9", Value: 1},
			{Name: lp.ObjConstantName, Value: 2},
		},
	}

	status, err := ApplyResult(m, result)
	require.NoError(t, err)
	assert.Equal(t, model.ModelStatusOptimal, status.Model)
	assert.Equal(t, []float64{0, 3}, m.Solution.Values)
	assert.Equal(t, 7.0, m.Solution.Objective)
}

func TestApplyResultMismatch(t *testing.T) {
	m := testModel()
	result := &protocol.Result{
		Status:    protocol.ResultOptimal,
		Variables: []protocol.VariableValue{{Name: "x0", Value: 3}},
	}

	_, err := ApplyResult(m, result)

	var mappingErr *MappingError
	assert.True(t, errors.As(err, &mappingErr))
	assert.False(t, m.Solution.HasValues)
}

func TestApplyResultWithoutValues(t *testing.T) {
	m := testModel()
	result := &protocol.Result{Status: protocol.ResultOptimal, ObjectiveValue: 10}

	status, err := ApplyResult(m, result)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, 2, mappingErr.Expected)
	assert.Equal(t, 0, mappingErr.Got)
	assert.Equal(t, model.ModelStatusOptimal, status.Model)
	assert.False(t, m.Solution.HasValues)
}

func TestApplyResultWithoutValuesNoSolution(t *testing.T) {
	testData := []protocol.ResultStatus{
		protocol.ResultInfeasible,
		protocol.ResultUnbounded,
		protocol.ResultTimeout,
		protocol.ResultFailed,
	}

	for _, resultStatus := range testData {
		m := testModel()
		_, err := ApplyResult(m, &protocol.Result{Status: resultStatus})
		assert.NoError(t, err, resultStatus)
		assert.False(t, m.Solution.HasValues, resultStatus)
	}
}

func TestApplyResultDuplicateName(t *testing.T) {
	m := testModel()
	result := &protocol.Result{
		Status: protocol.ResultOptimal,
		Variables: []protocol.VariableValue{
			{Name: "x0", Value: 4},
			{Name: "x0", Value: 7},
		},
	}

	_, err := ApplyResult(m, result)

	var mappingErr *MappingError
	require.ErrorAs(t, err, &mappingErr)
	assert.Equal(t, "x0", mappingErr.Duplicate)
	assert.False(t, m.Solution.HasValues)
	assert.Empty(t, m.Solution.Values)
}
