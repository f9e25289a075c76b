package solveengine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/transport"
	"github.com/srand/solvelink/pkg/utils"
)

const (
	DefaultEndpoint       = "https://solve.satalia.com/api/v2"
	DefaultTimeLimit      = 1000 * time.Second
	DefaultPollInterval   = time.Second
	DefaultPollRetries    = 3
	DefaultPollBackoff    = time.Second
	MaxPollBackoff        = 4 * time.Second
	DefaultCleanupTimeout = 30 * time.Second

	// Added to the remote time limit when no hard limit is configured.
	HardTimeLimitSlack = 60 * time.Second
)

type Config struct {
	// API key for the remote service.
	APIKey string `mapstructure:"apikey"`

	// Base URL of the remote service.
	Endpoint string `mapstructure:"endpoint"`

	// Log verbosity. 0 is info, 1 debug and 2 or more trace.
	Debug int `mapstructure:"debug"`

	// Whether to log the list of remote jobs before submitting.
	PrintJobs bool `mapstructure:"print_jobs"`

	// Whether to delete the job from the service when done.
	DeleteJob bool `mapstructure:"delete_job"`

	// Whether to verify TLS certificates of the service.
	VerifyTLS bool `mapstructure:"verify_tls"`

	// Time limit enforced by the remote service.
	TimeLimit time.Duration `mapstructure:"time_limit"`

	// Time limit enforced locally, measured from submission.
	HardTimeLimit time.Duration `mapstructure:"hard_time_limit"`

	// Time between status queries.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// Consecutive failed status queries tolerated before giving up.
	PollRetries int `mapstructure:"poll_retries"`

	// Limit for each HTTP request. Zero means no limit.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Write the submitted LP to this file. A .gz suffix compresses it.
	LPFile string `mapstructure:"lp_file"`

	// Write Prometheus metrics to this file when done.
	MetricsFile string `mapstructure:"metrics_file"`

	// Largest accepted encoded payload, e.g. "100MiB". Empty means no limit.
	MaxPayload string `mapstructure:"max_payload"`

	// Solver options forwarded with the submission.
	Options map[string]any `mapstructure:"options"`
}

// Returns a configuration with default values.
func NewConfig() *Config {
	return &Config{
		Endpoint:     DefaultEndpoint,
		VerifyTLS:    true,
		TimeLimit:    DefaultTimeLimit,
		PollInterval: DefaultPollInterval,
		PollRetries:  DefaultPollRetries,
	}
}

// Checks if the configuration is valid.
func (c *Config) Validate() error {
	// Validate the API key.
	if c.APIKey == "" {
		return errors.New("An API key is required, set SOLVEENGINE_APIKEY")
	}
	if !transport.ValidAPIKey(c.APIKey) {
		return fmt.Errorf("The API key is invalid, it must not be longer than %d characters", transport.MaxAPIKeyLength)
	}

	// Validate the endpoint.
	if _, err := utils.ParseEndpoint(c.Endpoint); err != nil {
		return fmt.Errorf("The endpoint is not a valid URL: %w", err)
	}

	// Validate time limits.
	if c.TimeLimit < 0 || c.HardTimeLimit < 0 {
		return errors.New("Time limits must not be negative")
	}
	if c.PollInterval < 0 {
		return errors.New("The poll interval must not be negative")
	}
	if c.PollRetries < 0 {
		return errors.New("The poll retry count must not be negative")
	}

	// Validate the payload limit.
	if _, err := c.MaxPayloadBytes(); err != nil {
		return err
	}

	return nil
}

// Returns the remote time limit in whole seconds, clamped to the range
// accepted by the service.
func (c *Config) TimeLimitSeconds() int64 {
	return protocol.ClampTimeout(int64(c.TimeLimit / time.Second))
}

// Returns the local time limit. Defaults to the clamped remote limit plus
// a minute.
func (c *Config) EffectiveHardTimeLimit() time.Duration {
	if c.HardTimeLimit > 0 {
		return c.HardTimeLimit
	}
	return time.Duration(c.TimeLimitSeconds())*time.Second + HardTimeLimitSlack
}

func (c *Config) EffectivePollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}

// Returns the payload limit in bytes, or 0 if unlimited.
func (c *Config) MaxPayloadBytes() (int64, error) {
	if strings.TrimSpace(c.MaxPayload) == "" {
		return 0, nil
	}
	size, err := utils.ParseSize(c.MaxPayload)
	if err != nil {
		return 0, fmt.Errorf("The max payload size is invalid: %w", err)
	}
	return size, nil
}

// Returns the options sent with a submission, never nil.
func (c *Config) SolverOptions() map[string]any {
	if c.Options == nil {
		return map[string]any{}
	}
	return c.Options
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func (c *Config) Log() {
	log.Info("SolveEngine configuration:")
	log.Infof("  apikey = %s", maskKey(c.APIKey))
	log.Infof("  endpoint = %s", c.Endpoint)
	log.Infof("  debug = %d", c.Debug)
	log.Infof("  print_jobs = %v", c.PrintJobs)
	log.Infof("  delete_job = %v", c.DeleteJob)
	log.Infof("  verify_tls = %v", c.VerifyTLS)
	log.Infof("  time_limit = %v", c.TimeLimit)
	log.Infof("  hard_time_limit = %v", c.EffectiveHardTimeLimit())
	log.Infof("  poll_interval = %v", c.EffectivePollInterval())
	log.Infof("  poll_retries = %d", c.PollRetries)
	if c.LPFile != "" {
		log.Infof("  lp_file = %s", c.LPFile)
	}
	if c.MetricsFile != "" {
		log.Infof("  metrics_file = %s", c.MetricsFile)
	}
	if c.MaxPayload != "" {
		log.Infof("  max_payload = %s", c.MaxPayload)
	}
	for key, value := range c.Options {
		log.Infof("  options.%s = %v", key, value)
	}
}

// Returns transport options derived from the configuration.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		BaseURL:            c.Endpoint,
		APIKey:             c.APIKey,
		InsecureSkipVerify: !c.VerifyTLS,
		Timeout:            c.RequestTimeout,
	}
}
