package solveengine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/srand/solvelink/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	path   string
}

// Answers requests with canned JSON bodies keyed by "METHOD path".
type fakeClient struct {
	responses map[string]string
	errors    map[string]error
	calls     []call
	closed    int
}

func (c *fakeClient) RequestJSON(ctx context.Context, method, path string, in, out any) error {
	c.calls = append(c.calls, call{method, path})

	key := method + " " + path
	if err, ok := c.errors[key]; ok {
		return err
	}

	body, ok := c.responses[key]
	if !ok {
		body = "{}"
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

func (c *fakeClient) Close() {
	c.closed++
}

func TestTrivialBody(t *testing.T) {
	for _, body := range []string{"", "{}", "null", " {}\n"} {
		assert.True(t, trivialBody(body), body)
	}
	for _, body := range []string{`{"status":"queued"}`, "[]", "ok"} {
		assert.False(t, trivialBody(body), body)
	}
}

func TestSubmitWithoutId(t *testing.T) {
	client := &fakeClient{responses: map[string]string{"POST /jobs": `{"id":""}`}}
	o := NewOrchestrator(client, utils.NewFakeClock(time.Now()), NewConfig())

	_, err := o.Submit(context.Background(), []byte("cGF5bG9hZA=="))
	assert.ErrorIs(t, err, transport.ErrParse)
	assert.Nil(t, o.Job())
}

func TestOperationsWithoutJob(t *testing.T) {
	client := &fakeClient{}
	o := NewOrchestrator(client, nil, NewConfig())
	ctx := context.Background()

	assert.ErrorIs(t, o.Schedule(ctx), ErrNoJob)
	_, err := o.Status(ctx)
	assert.ErrorIs(t, err, ErrNoJob)
	_, err = o.Results(ctx)
	assert.ErrorIs(t, err, ErrNoJob)
	assert.Equal(t, CauseNone, o.Poll(ctx))

	o.Stop(ctx)
	o.Delete(ctx)
	assert.Empty(t, client.calls)
}

func TestScheduleTolerance(t *testing.T) {
	client := &fakeClient{
		responses: map[string]string{
			"POST /jobs":             `{"id":"j1"}`,
			"POST /jobs/j1/schedule": `{"message":"accepted"}`,
			"GET /jobs/j1/status":    `{"status":"completed"}`,
			"GET /jobs/j1/results":   `{"result":{"status":"optimal","objective_value":1,"variables":[]}}`,
		},
	}
	config := NewConfig()
	config.DeleteJob = true
	o := NewOrchestrator(client, utils.NewFakeClock(time.Now()), config)

	job, result, err := o.Run(context.Background(), []byte("cGF5bG9hZA=="))
	require.NoError(t, err)
	assert.Equal(t, "j1", job.ID)
	assert.Equal(t, StateCompleted, job.State)
	assert.Equal(t, protocol.ResultOptimal, result.Status)

	assert.Equal(t, []call{
		{"POST", "/jobs"},
		{"POST", "/jobs/j1/schedule"},
		{"GET", "/jobs/j1/status"},
		{"GET", "/jobs/j1/results"},
		{"DELETE", "/jobs/j1"},
	}, client.calls)
	assert.Equal(t, 1, client.closed)
}

func TestScheduleParseErrorIsWarning(t *testing.T) {
	client := &fakeClient{
		responses: map[string]string{"POST /jobs": `{"id":"j2"}`},
		errors: map[string]error{
			"POST /jobs/j2/schedule": &transport.Error{Kind: transport.ErrParse, Body: []byte("OK")},
		},
	}
	o := NewOrchestrator(client, nil, NewConfig())

	_, err := o.Submit(context.Background(), nil)
	require.NoError(t, err)
	assert.NoError(t, o.Schedule(context.Background()))
	assert.Equal(t, StateScheduled, o.Job().State)
}

func TestStopFailureIsLogged(t *testing.T) {
	client := &fakeClient{
		responses: map[string]string{"POST /jobs": `{"id":"j3"}`},
		errors: map[string]error{
			"DELETE /jobs/j3/stop": &transport.Error{Kind: transport.ErrNetwork},
			"DELETE /jobs/j3":      &transport.Error{Kind: transport.ErrNetwork},
		},
	}
	o := NewOrchestrator(client, nil, NewConfig())

	_, err := o.Submit(context.Background(), nil)
	require.NoError(t, err)

	o.Stop(context.Background())
	o.Delete(context.Background())
	assert.Len(t, client.calls, 3)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "stopped locally", StateStoppedLocally.String())
	assert.Equal(t, "State(42)", State(42).String())
	assert.True(t, StateErrorRemote.IsTerminal())
	assert.False(t, StatePolling.IsTerminal())

	assert.Equal(t, "timed_out_local", CauseTimedOutLocal.String())
	assert.True(t, CauseCancelledByUser.IsLocal())
	assert.False(t, CauseTimedOutRemote.IsLocal())
}
