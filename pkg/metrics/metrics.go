// Package metrics collects Prometheus metrics for requests and jobs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/solveengine"
)

// Metrics observes transport requests and job state changes.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	requestTime  *prometheus.HistogramVec
	polls        *prometheus.CounterVec
	jobs         *prometheus.CounterVec
	jobDuration  prometheus.Histogram
	jobsInFlight prometheus.Gauge
}

// New creates the collectors and registers them with a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solvelink_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		requestTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solvelink_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solvelink_polls_total",
				Help: "Total number of job status queries by reported status",
			},
			[]string{"status"},
		),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solvelink_jobs_total",
				Help: "Total number of terminated jobs by cause",
			},
			[]string{"cause"},
		),
		jobDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "solvelink_job_duration_seconds",
				Help:    "Time from submission to termination of jobs",
				Buckets: prometheus.ExponentialBuckets(1, 2, 14),
			},
		),
		jobsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "solvelink_jobs_in_flight",
				Help: "Number of jobs submitted but not yet terminated",
			},
		),
	}

	m.registry.MustRegister(m.requests)
	m.registry.MustRegister(m.requestTime)
	m.registry.MustRegister(m.polls)
	m.registry.MustRegister(m.jobs)
	m.registry.MustRegister(m.jobDuration)
	m.registry.MustRegister(m.jobsInFlight)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RequestCompleted records a client request.
func (m *Metrics) RequestCompleted(method, route string, code int, duration time.Duration, err error) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) JobStateChanged(job *solveengine.Job, state solveengine.State) {
	switch {
	case state == solveengine.StateSubmitted:
		m.jobsInFlight.Inc()

	case state.IsTerminal():
		m.jobsInFlight.Dec()
		m.jobs.WithLabelValues(job.Cause.String()).Inc()
		if n := len(job.History); n > 0 {
			m.jobDuration.Observe(job.History[n-1].Time.Sub(job.Submitted).Seconds())
		}
	}
}

func (m *Metrics) PollCompleted(job *solveengine.Job, status protocol.JobStatus) {
	m.polls.WithLabelValues(string(status)).Inc()
}

// Middleware records requests served by an echo instance.
func (m *Metrics) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		// Write the error response now to know the status code
		if err != nil {
			c.Error(err)
		}

		m.RequestCompleted(c.Request().Method, c.Path(), c.Response().Status, time.Since(start), err)
		return err
	}
}

// Returns a handler serving the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the metrics to a file for the node exporter
// textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
