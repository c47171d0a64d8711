// Package exec implements the command executor: the single place where a
// shell command string crosses into a sibling container. It validates the
// target container, applies the safety filter, pins the working directory,
// and caps captured output.
package exec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"

	"github.com/shipable/workspaced/internal/config"
	"github.com/shipable/workspaced/internal/runtime"
)

// Result represents the outcome of a single command invocation.
// A non-zero exit code is reported here, not as an error: "command ran and
// failed" is distinct from "command could not be run".
type Result struct {
	Success   bool
	ExitCode  int
	Stdout    string
	Stderr    string
	Truncated bool
}

// containerRuntime is the narrow slice of the runtime the executor needs.
type containerRuntime interface {
	Exec(ctx context.Context, name string, cmd []string, workdir string, stdout, stderr io.Writer) (int, error)
}

// Executor runs shell commands inside a fixed set of addressable containers.
type Executor struct {
	runtime  containerRuntime
	filter   *CommandFilter
	names    []string
	workdirs map[string]string
	maxChars int
	log      zerolog.Logger
}

// New creates an Executor. The filter may be nil, in which case no command
// is rejected (the safety filter is a pluggable policy, not part of the
// executor's core contract).
func New(rt containerRuntime, filter *CommandFilter, cfg *config.Config, log zerolog.Logger) *Executor {
	if rt == nil {
		panic("runtime is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &Executor{
		runtime:  rt,
		filter:   filter,
		names:    cfg.Containers.Names,
		workdirs: cfg.Containers.Workdirs,
		maxChars: cfg.Exec.MaxOutputChars,
		log:      log,
	}
}

// Workdir returns the working directory commands run in for a container.
// Containers without a configured workdir fall back to "/".
func (e *Executor) Workdir(container string) string {
	if wd, ok := e.workdirs[container]; ok {
		return wd
	}
	return "/"
}

// ExecuteFiltered runs an externally supplied command after checking it
// against the safety filter. This is the entry point for raw agent commands;
// service-built commands go through Execute directly, since they routinely
// contain innocuous text (path names like ".env") that would trip the
// deny rules.
func (e *Executor) ExecuteFiltered(ctx context.Context, container, command, workdir string) (*Result, error) {
	if e.filter != nil {
		if err := e.filter.Check(command); err != nil {
			e.log.Warn().
				Str("container", container).
				Err(err).
				Msg("command rejected before dispatch")
			return nil, err
		}
	}
	return e.Execute(ctx, container, command, workdir)
}

// Execute runs command inside container via `sh -c`, returning the structured
// result. The command text is opaque to the executor: it is never parsed,
// only transmitted. An empty workdir selects the container's default root.
//
// The working directory is prepended as `cd <workdir> && <command>` in
// addition to being set on the exec session, so a relative `cd` inside the
// command cannot escape the container's context.
func (e *Executor) Execute(ctx context.Context, container, command, workdir string) (*Result, error) {
	if command == "" {
		return nil, ErrEmptyCommand
	}
	if !slices.Contains(e.names, container) {
		return nil, &UnknownContainerError{Container: container}
	}

	if workdir == "" {
		workdir = e.Workdir(container)
	}
	full := fmt.Sprintf("cd %s && %s", shellquote.Join(workdir), command)

	stdout := newCollector(e.maxChars)
	stderr := newCollector(e.maxChars)

	e.log.Info().
		Str("container", container).
		Str("workdir", workdir).
		Str("command", command).
		Msg("executing command")

	exitCode, err := e.runtime.Exec(ctx, container, []string{"sh", "-c", full}, workdir, stdout, stderr)
	if err != nil {
		// Container-not-found keeps its identity; everything else is a
		// transport failure re-wrapped with execution context.
		if errors.Is(err, runtime.ErrContainerNotFound) {
			return nil, err
		}
		return nil, &ExecutionError{Container: container, Cause: err}
	}

	return &Result{
		Success:   exitCode == 0,
		ExitCode:  exitCode,
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}, nil
}
