package config

import (
	"fmt"
	"strings"
)

// Validate checks config values for correctness.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.ListenAddr == "" {
		errs = append(errs, "server.listen_addr must not be empty")
	}

	if len(c.Containers.Names) == 0 {
		errs = append(errs, "containers.names must not be empty")
	}
	for _, name := range c.Containers.Names {
		if name == "" {
			errs = append(errs, "containers.names must not contain empty names")
		}
		if strings.Contains(name, "/") {
			errs = append(errs, fmt.Sprintf("containers.names: %q must not contain '/'", name))
		}
	}
	if c.Containers.RestartTimeoutSeconds < 1 {
		errs = append(errs, "containers.restart_timeout_seconds must be >= 1")
	}

	if c.Exec.MaxOutputChars < 1 {
		errs = append(errs, "exec.max_output_chars must be >= 1")
	}
	if c.Exec.MaxLogChars < 1 {
		errs = append(errs, "exec.max_log_chars must be >= 1")
	}
	if c.Exec.DefaultLogLines < 1 {
		errs = append(errs, "exec.default_log_lines must be >= 1")
	}
	if c.Exec.MaxLogLines < c.Exec.DefaultLogLines {
		errs = append(errs, "exec.max_log_lines must be >= exec.default_log_lines")
	}

	if len(c.Search.IncludeExtensions) == 0 {
		errs = append(errs, "search.include_extensions must not be empty")
	}
	if c.Search.DefaultContextLines < 0 {
		errs = append(errs, "search.default_context_lines must be >= 0")
	}
	if c.Search.MaxResults < 1 {
		errs = append(errs, "search.max_results must be >= 1")
	}

	if c.Workspace.Root == "" {
		errs = append(errs, "workspace.root must not be empty")
	}
	if c.Health.ProbeTimeoutSeconds < 1 {
		errs = append(errs, "health.probe_timeout_seconds must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
