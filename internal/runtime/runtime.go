// Package runtime wraps the Docker engine API behind the narrow surface the
// rest of the service needs: exec with demultiplexed streams, inspect by name,
// restart, and log retrieval. Nothing outside this package imports the Docker
// SDK directly.
package runtime

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog"
)

// State is the subset of container state the service cares about.
type State struct {
	Running   bool
	Status    string
	StartedAt time.Time
}

// ContainerRuntime is the contract the executor, health checker, and server
// consume. The Docker client is safe for concurrent use, so a single
// implementation instance serves all in-flight requests.
type ContainerRuntime interface {
	// Exec runs cmd inside the named container, streaming demuxed stdout and
	// stderr into the given writers, and returns the command's exit code.
	// A missing container yields ErrContainerNotFound; transport failures
	// yield a TransportError. A non-zero exit code is not an error.
	Exec(ctx context.Context, name string, cmd []string, workdir string, stdout, stderr io.Writer) (int, error)

	// Inspect returns the state of the named container.
	Inspect(ctx context.Context, name string) (State, error)

	// Restart restarts the named container with the given stop timeout.
	Restart(ctx context.Context, name string, timeout time.Duration) error

	// Logs returns up to tail lines from the end of the container's log,
	// with stdout and stderr interleaved.
	Logs(ctx context.Context, name string, tail int) (string, error)
}

// DockerRuntime implements ContainerRuntime against the Docker engine API.
type DockerRuntime struct {
	cli *client.Client
	log zerolog.Logger
}

// NewDockerRuntime creates a runtime from the ambient Docker environment
// (DOCKER_HOST et al.), negotiating the API version with the daemon.
func NewDockerRuntime(log zerolog.Logger) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	return &DockerRuntime{cli: cli, log: log}, nil
}

// Exec implements ContainerRuntime.
func (r *DockerRuntime) Exec(ctx context.Context, name string, cmd []string, workdir string, stdout, stderr io.Writer) (int, error) {
	created, err := r.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   workdir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		if client.IsErrNotFound(err) {
			return 0, &NotFoundError{Container: name}
		}
		return 0, &TransportError{Op: "exec create", Container: name, Cause: err}
	}

	attached, err := r.cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return 0, &TransportError{Op: "exec attach", Container: name, Cause: err}
	}
	defer attached.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, attached.Reader); err != nil {
		return 0, &TransportError{Op: "exec stream", Container: name, Cause: err}
	}

	inspected, err := r.cli.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return 0, &TransportError{Op: "exec inspect", Container: name, Cause: err}
	}

	r.log.Debug().
		Str("container", name).
		Int("exit_code", inspected.ExitCode).
		Msg("exec finished")

	return inspected.ExitCode, nil
}

// Inspect implements ContainerRuntime.
func (r *DockerRuntime) Inspect(ctx context.Context, name string) (State, error) {
	info, err := r.cli.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return State{}, &NotFoundError{Container: name}
		}
		return State{}, &TransportError{Op: "inspect", Container: name, Cause: err}
	}

	state := State{}
	if info.State != nil {
		state.Running = info.State.Running
		state.Status = info.State.Status
		if started, err := time.Parse(time.RFC3339Nano, info.State.StartedAt); err == nil {
			state.StartedAt = started
		}
	}
	return state, nil
}

// Restart implements ContainerRuntime.
func (r *DockerRuntime) Restart(ctx context.Context, name string, timeout time.Duration) error {
	seconds := int(timeout.Seconds())
	err := r.cli.ContainerRestart(ctx, name, container.StopOptions{Timeout: &seconds})
	if err != nil {
		if client.IsErrNotFound(err) {
			return &NotFoundError{Container: name}
		}
		return &TransportError{Op: "restart", Container: name, Cause: err}
	}
	return nil
}

// Logs implements ContainerRuntime.
func (r *DockerRuntime) Logs(ctx context.Context, name string, tail int) (string, error) {
	reader, err := r.cli.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       strconv.Itoa(tail),
	})
	if err != nil {
		if client.IsErrNotFound(err) {
			return "", &NotFoundError{Container: name}
		}
		return "", &TransportError{Op: "logs", Container: name, Cause: err}
	}
	defer reader.Close()

	// Container logs use the same multiplexed framing as exec output.
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, reader); err != nil {
		return "", &TransportError{Op: "logs stream", Container: name, Cause: err}
	}
	return buf.String(), nil
}
