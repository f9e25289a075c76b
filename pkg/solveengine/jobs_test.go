package solveengine

import (
	"bytes"
	"context"
	"os"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopAndDeleteAcceptEmptyBody(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := transport.Configure(transport.Options{BaseURL: server.URL + "/api/v2", APIKey: "key"})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	assert.NoError(t, StopJob(ctx, client, "j1"))
	assert.NoError(t, DeleteJob(ctx, client, "j1"))
	assert.Equal(t, []string{"DELETE /api/v2/jobs/j1/stop", "DELETE /api/v2/jobs/j1"}, paths)
}

func TestStopAndDeleteFailures(t *testing.T) {
	client := &fakeClient{
		errors: map[string]error{
			"DELETE /jobs/j1/stop": &transport.Error{Kind: transport.ErrHTTPStatus, StatusCode: http.StatusNotFound},
			"DELETE /jobs/j1":      &transport.Error{Kind: transport.ErrNetwork},
		},
	}
	ctx := context.Background()

	assert.ErrorIs(t, StopJob(ctx, client, "j1"), transport.ErrHTTPStatus)
	assert.ErrorIs(t, DeleteJob(ctx, client, "j1"), transport.ErrNetwork)
}

func TestCleanupAcceptsEmptyBody(t *testing.T) {
	stderr := &bytes.Buffer{}
	log.SetOutput(nil, stderr)
	defer log.SetOutput(nil, os.Stderr)

	client := &fakeClient{
		responses: map[string]string{"POST /jobs": `{"id":"j4"}`},
		errors: map[string]error{
			"DELETE /jobs/j4/stop": &transport.Error{Kind: transport.ErrEmptyResponse},
			"DELETE /jobs/j4":      &transport.Error{Kind: transport.ErrEmptyResponse},
		},
	}
	o := NewOrchestrator(client, nil, NewConfig())

	_, err := o.Submit(context.Background(), nil)
	require.NoError(t, err)

	o.Stop(context.Background())
	o.Delete(context.Background())
	assert.Equal(t, []call{
		{"POST", "/jobs"},
		{"DELETE", "/jobs/j4/stop"},
		{"DELETE", "/jobs/j4"},
	}, client.calls)
	assert.Empty(t, stderr.String())
}
