// Package health implements the stack-wide health check: the sidecar itself,
// the database container (pg_isready), and HTTP probes against the backend
// and frontend services.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/shipable/workspaced/internal/config"
	"github.com/shipable/workspaced/internal/runtime"
)

// Check is the outcome of probing one service.
type Check struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Latency     string `json:"latency"`
	Message     string `json:"message,omitempty"`
}

// Report aggregates all service checks.
type Report struct {
	Status       string           `json:"status"`
	Service      string           `json:"service"`
	Version      string           `json:"version"`
	Timestamp    string           `json:"timestamp"`
	Uptime       string           `json:"uptime"`
	Checks       map[string]Check `json:"checks"`
	TotalLatency string           `json:"totalLatency"`
	Healthy      bool             `json:"-"`
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// containerRuntime is the runtime slice the checker needs.
type containerRuntime interface {
	Inspect(ctx context.Context, name string) (runtime.State, error)
	Exec(ctx context.Context, name string, cmd []string, workdir string, stdout, stderr io.Writer) (int, error)
}

// httpDoer lets tests stub the probe client.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Checker runs the full stack health check.
type Checker struct {
	runtime containerRuntime
	client  httpDoer
	cfg     config.HealthConfig
	version string
	started time.Time
	log     zerolog.Logger
}

// NewChecker creates a Checker. The process start time anchors the uptime
// fallback when the sidecar's own container cannot be inspected.
func NewChecker(rt containerRuntime, cfg *config.Config, version string, log zerolog.Logger) *Checker {
	if rt == nil {
		panic("runtime is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &Checker{
		runtime: rt,
		client:  &http.Client{Timeout: time.Duration(cfg.Health.ProbeTimeoutSeconds) * time.Second},
		cfg:     cfg.Health,
		version: version,
		started: time.Now(),
		log:     log,
	}
}

// Run probes every service and returns the aggregate report. Individual
// failures degrade the report; Run itself only fails on a cancelled context.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	begin := time.Now()

	checks := map[string]Check{}
	healthy := true

	selfStart := time.Now()
	checks["agent"] = Check{
		Name:        "Agent Service",
		Description: "Core orchestration and container management service",
		Status:      statusHealthy,
		Latency:     latencySince(selfStart),
	}

	db := c.checkDatabase(ctx)
	checks["database"] = db
	healthy = healthy && db.Status == statusHealthy

	api := c.checkHTTP(ctx, c.cfg.BackendContainer, c.cfg.BackendURL,
		"API Service", "Backend REST API service", true)
	checks["api"] = api
	healthy = healthy && api.Status == statusHealthy

	web := c.checkHTTP(ctx, c.cfg.FrontendContainer, c.cfg.FrontendURL,
		"Web Service", "Frontend web application", false)
	checks["web"] = web
	healthy = healthy && web.Status == statusHealthy

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status := statusHealthy
	if !healthy {
		status = statusUnhealthy
	}
	return &Report{
		Status:       status,
		Service:      "agent",
		Version:      c.version,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Uptime:       formatUptime(c.uptime(ctx)),
		Checks:       checks,
		TotalLatency: latencySince(begin),
		Healthy:      healthy,
	}, nil
}

func (c *Checker) checkDatabase(ctx context.Context) Check {
	check := Check{
		Name:        "Database",
		Description: "PostgreSQL database service",
	}
	start := time.Now()

	state, err := c.runtime.Inspect(ctx, c.cfg.DBContainer)
	if err != nil {
		c.log.Error().Err(err).Msg("database health check error")
		check.Status = statusUnhealthy
		check.Latency = latencySince(start)
		check.Message = "Service unavailable"
		return check
	}
	if !state.Running {
		check.Status = statusUnhealthy
		check.Latency = latencySince(start)
		check.Message = "Container not running"
		return check
	}

	exitCode, err := c.runtime.Exec(ctx, c.cfg.DBContainer,
		[]string{"pg_isready", "-U", "postgres"}, "", io.Discard, io.Discard)
	check.Latency = latencySince(start)
	switch {
	case err != nil:
		c.log.Error().Err(err).Msg("database health check error")
		check.Status = statusUnhealthy
		check.Message = "Health check failed"
	case exitCode != 0:
		check.Status = statusUnhealthy
		check.Message = "Database not accepting connections"
	default:
		check.Status = statusHealthy
	}
	return check
}

// checkHTTP probes an HTTP service after confirming its container runs.
// notFoundOK treats 404 as healthy: a backend with no root route is still up.
func (c *Checker) checkHTTP(ctx context.Context, container, url, name, description string, notFoundOK bool) Check {
	check := Check{Name: name, Description: description}
	start := time.Now()

	state, err := c.runtime.Inspect(ctx, container)
	if err != nil {
		c.log.Error().Err(err).Str("container", container).Msg("health check error")
		check.Status = statusUnhealthy
		check.Latency = latencySince(start)
		check.Message = "Service unavailable"
		return check
	}
	if !state.Running {
		check.Status = statusUnhealthy
		check.Latency = latencySince(start)
		check.Message = "Container not running"
		return check
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		check.Status = statusUnhealthy
		check.Latency = latencySince(start)
		check.Message = "Health check failed"
		return check
	}
	resp, err := c.client.Do(req)
	check.Latency = latencySince(start)
	if err != nil {
		c.log.Error().Err(err).Str("container", container).Msg("health probe failed")
		check.Status = statusUnhealthy
		check.Message = "Service not responding"
		return check
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode == http.StatusOK ||
		(notFoundOK && resp.StatusCode == http.StatusNotFound)
	if ok {
		check.Status = statusHealthy
	} else {
		check.Status = statusDegraded
		check.Message = fmt.Sprintf("Responded with status %d", resp.StatusCode)
	}
	return check
}

// uptime prefers the sidecar container's own start time over the process
// start, so a restarted process inside a long-lived container reports the
// container's age.
func (c *Checker) uptime(ctx context.Context) time.Duration {
	state, err := c.runtime.Inspect(ctx, c.cfg.SelfContainer)
	if err != nil || state.StartedAt.IsZero() {
		if err != nil {
			c.log.Warn().Err(err).Msg("could not get container uptime")
		}
		return time.Since(c.started)
	}
	return time.Since(state.StartedAt)
}

func formatUptime(d time.Duration) string {
	seconds := int(d.Seconds())
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours%24, minutes%60)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes%60, seconds%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func latencySince(start time.Time) string {
	ms := float64(time.Since(start).Microseconds()) / 1000
	return fmt.Sprintf("%.2fms", ms)
}
