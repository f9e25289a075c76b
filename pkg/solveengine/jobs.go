package solveengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/transport"
)

// Number of jobs listed before a submission.
const DefaultListLength = 10

// Returns the most recent jobs of the account.
func ListJobs(ctx context.Context, client Client, perPage int) ([]protocol.JobSummary, error) {
	if perPage <= 0 {
		perPage = DefaultListLength
	}

	list := &protocol.JobList{}
	path := fmt.Sprintf("/jobs?per_page=%d", perPage)
	if err := client.RequestJSON(ctx, http.MethodGet, path, nil, list); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return list.Jobs, nil
}

// Returns the remote status of a job.
func JobStatus(ctx context.Context, client Client, id string) (protocol.JobStatus, error) {
	response := &protocol.StatusResponse{}
	if err := client.RequestJSON(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id)+"/status", nil, response); err != nil {
		return "", fmt.Errorf("failed to query job %s: %w", id, err)
	}
	return response.Status, nil
}

// Sends a DELETE request. A success status with an empty body is accepted.
func deleteRequest(ctx context.Context, client Client, path string) error {
	err := client.RequestJSON(ctx, http.MethodDelete, path, nil, nil)
	if errors.Is(err, transport.ErrEmptyResponse) {
		return nil
	}
	return err
}

// Asks the service to stop a job.
func StopJob(ctx context.Context, client Client, id string) error {
	if err := deleteRequest(ctx, client, "/jobs/"+url.PathEscape(id)+"/stop"); err != nil {
		return fmt.Errorf("failed to stop job %s: %w", id, err)
	}
	return nil
}

// Removes a job from the service.
func DeleteJob(ctx context.Context, client Client, id string) error {
	if err := deleteRequest(ctx, client, "/jobs/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete job %s: %w", id, err)
	}
	return nil
}
