// Package emulator implements the remote solve service API in memory.
package emulator

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/utils"
)

const DefaultPrefix = "/api/v2"

// Status sequence reported by default once a job is scheduled.
var DefaultStatuses = []protocol.JobStatus{
	protocol.JobQueued,
	protocol.JobStarted,
	protocol.JobCompleted,
}

type Options struct {
	// Accepted API key. Any key is accepted if empty.
	APIKey string

	// Path prefix of all routes.
	Prefix string

	// Statuses reported by successive status queries after scheduling.
	// The last status repeats.
	Statuses []protocol.JobStatus

	// Solver outcome of completed jobs.
	Result protocol.ResultStatus

	// Modifies the result bundle before it is returned.
	ResultHook func(*protocol.Result)

	Clock utils.Clock
}

type job struct {
	id        string
	request   protocol.SubmitRequest
	names     []string
	constant  *float64
	submitted time.Time
	scheduled bool
	stopped   bool
	polls     int
}

// Emulator is a fake solve service.
type Emulator struct {
	mu    sync.Mutex
	opts  Options
	jobs  map[string]*job
	calls map[string]int
}

func New(opts Options) *Emulator {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if len(opts.Statuses) == 0 {
		opts.Statuses = DefaultStatuses
	}
	if opts.Result == "" {
		opts.Result = protocol.ResultOptimal
	}
	if opts.Clock == nil {
		opts.Clock = utils.SystemClock
	}

	return &Emulator{
		opts:  opts,
		jobs:  map[string]*job{},
		calls: map[string]int{},
	}
}

// Returns a new echo instance serving the emulator.
func (e *Emulator) Handler() *echo.Echo {
	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.HTTPErrorHandler = utils.HttpErrorHandler
	r.Use(utils.HttpLogger)
	e.Register(r)
	return r
}

// Register adds the emulator routes to r.
func (e *Emulator) Register(r *echo.Echo) {
	g := r.Group(e.opts.Prefix, e.count, e.authorize)

	g.POST("/jobs", e.submit)
	g.GET("/jobs", e.list)
	g.POST("/jobs/:id/schedule", e.schedule)
	g.GET("/jobs/:id/status", e.status)
	g.GET("/jobs/:id/results", e.results)
	g.DELETE("/jobs/:id/stop", e.stop)
	g.DELETE("/jobs/:id", e.remove)
}

// Returns the number of requests received for a route, e.g.
// "GET /jobs/:id/results".
func (e *Emulator) Calls(method, route string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[method+" "+route]
}

// Returns the ids of all jobs not yet deleted.
func (e *Emulator) Jobs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(e.jobs))
	for id := range e.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Returns the submission of a job.
func (e *Emulator) Request(id string) (protocol.SubmitRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, ok := e.jobs[id]
	if !ok {
		return protocol.SubmitRequest{}, false
	}
	return j.request, true
}

func (e *Emulator) count(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		route := strings.TrimPrefix(c.Path(), e.opts.Prefix)
		e.mu.Lock()
		e.calls[c.Request().Method+" "+route]++
		e.mu.Unlock()
		return next(c)
	}
}

func (e *Emulator) authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if e.opts.APIKey == "" {
			return next(c)
		}
		if c.Request().Header.Get("Authorization") != "api-key "+e.opts.APIKey {
			return utils.ErrUnauthorized
		}
		return next(c)
	}
}

func (e *Emulator) job(c echo.Context) (*job, error) {
	j, ok := e.jobs[c.Param("id")]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", utils.ErrNotFound, c.Param("id"))
	}
	return j, nil
}

var (
	varNameRe  = regexp.MustCompile(`\b(?:sc|si|x|b|i)[0-9]+\b|\bobjvar\b`)
	constantRe = regexp.MustCompile(`^\s*objconstant\s*=\s*(\S+)\s*$`)
)

// Returns the variable names found in an LP text in order of first
// appearance, and the value of the objective constant if present.
func scanLP(text string) ([]string, *float64) {
	var names []string
	var constant *float64
	seen := map[string]bool{}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "\\") {
			continue
		}

		if match := constantRe.FindStringSubmatch(line); match != nil {
			if value, err := strconv.ParseFloat(match[1], 64); err == nil {
				constant = &value
			}
			continue
		}

		for _, name := range varNameRe.FindAllString(line, -1) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	return names, constant
}

func (e *Emulator) submit(c echo.Context) error {
	request := protocol.SubmitRequest{}
	if err := c.Bind(&request); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrBadRequest, err)
	}

	if len(request.Problems) != 1 {
		return fmt.Errorf("%w: expected one problem, got %d", utils.ErrBadRequest, len(request.Problems))
	}

	if request.Timeout < protocol.MinTimeout {
		return fmt.Errorf("%w: timeout must be at least %d seconds", utils.ErrBadRequest, protocol.MinTimeout)
	}

	text, err := base64.StdEncoding.DecodeString(request.Problems[0].Data)
	if err != nil {
		return fmt.Errorf("%w: problem data: %v", utils.ErrBadRequest, err)
	}

	names, constant := scanLP(string(text))

	j := &job{
		id:        uuid.NewString(),
		request:   request,
		names:     names,
		constant:  constant,
		submitted: e.opts.Clock.Now(),
	}

	e.mu.Lock()
	e.jobs[j.id] = j
	e.mu.Unlock()

	log.Debugf("Emulator: job %s submitted with %d variables", j.id, len(names))
	return c.JSON(http.StatusOK, &protocol.SubmitResponse{ID: j.id})
}

func (e *Emulator) list(c echo.Context) error {
	perPage := 0
	if value := c.QueryParam("per_page"); value != "" {
		var err error
		if perPage, err = strconv.Atoi(value); err != nil {
			return fmt.Errorf("%w: per_page: %v", utils.ErrBadRequest, err)
		}
	}

	e.mu.Lock()
	jobs := make([]*job, 0, len(e.jobs))
	for _, j := range e.jobs {
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(a, b int) bool {
		if jobs[a].submitted.Equal(jobs[b].submitted) {
			return jobs[a].id < jobs[b].id
		}
		return jobs[a].submitted.After(jobs[b].submitted)
	})

	if perPage > 0 && len(jobs) > perPage {
		jobs = jobs[:perPage]
	}

	list := &protocol.JobList{Jobs: []protocol.JobSummary{}}
	for _, j := range jobs {
		list.Jobs = append(list.Jobs, protocol.JobSummary{
			ID:        j.id,
			Status:    e.currentStatus(j),
			Algorithm: "emulator",
			Submitted: j.submitted.UTC().Format(time.RFC3339),
		})
	}
	e.mu.Unlock()

	return c.JSON(http.StatusOK, list)
}

func (e *Emulator) schedule(c echo.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, err := e.job(c)
	if err != nil {
		return err
	}

	j.scheduled = true
	return c.JSON(http.StatusOK, map[string]any{})
}

// Returns the status of a job without advancing it.
func (e *Emulator) currentStatus(j *job) protocol.JobStatus {
	switch {
	case j.stopped:
		return protocol.JobStopped
	case !j.scheduled:
		return protocol.JobCreated
	}

	idx := j.polls - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(e.opts.Statuses) {
		idx = len(e.opts.Statuses) - 1
	}
	return e.opts.Statuses[idx]
}

func (e *Emulator) status(c echo.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, err := e.job(c)
	if err != nil {
		return err
	}

	if j.scheduled && !j.stopped {
		j.polls++
	}

	return c.JSON(http.StatusOK, &protocol.StatusResponse{Status: e.currentStatus(j)})
}

func (e *Emulator) results(c echo.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, err := e.job(c)
	if err != nil {
		return err
	}

	if status := e.currentStatus(j); !status.HasResults() {
		return fmt.Errorf("%w: job %s is %s", utils.ErrBadRequest, j.id, status)
	}

	result := protocol.Result{
		Status:    e.opts.Result,
		Variables: []protocol.VariableValue{},
	}

	for _, name := range j.names {
		result.Variables = append(result.Variables, protocol.VariableValue{Name: name})
	}

	if j.constant != nil {
		result.ObjectiveValue = *j.constant
		result.Variables = append(result.Variables, protocol.VariableValue{Name: "objconstant", Value: *j.constant})
	}

	if e.opts.ResultHook != nil {
		e.opts.ResultHook(&result)
	}

	return c.JSON(http.StatusOK, &protocol.ResultsResponse{Result: result})
}

func (e *Emulator) stop(c echo.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, err := e.job(c)
	if err != nil {
		return err
	}

	if e.currentStatus(j).IsRunning() {
		j.stopped = true
	}
	return c.JSON(http.StatusOK, map[string]any{})
}

func (e *Emulator) remove(c echo.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	j, err := e.job(c)
	if err != nil {
		return err
	}

	delete(e.jobs, j.id)
	return c.JSON(http.StatusOK, map[string]any{})
}
