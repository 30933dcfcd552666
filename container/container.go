package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/flanksource/commons/logger"
)

const maxDumpedLogBytes = 8192

// ErrNotFound is returned by queries against a container that no longer exists
var ErrNotFound = errors.New("container not found")

// Container is a handle on a container started by someone else (usually
// docker compose). It keeps only the ID, every query goes to the daemon.
type Container struct {
	client client.APIClient
	id     string
	name   string
}

// NewClient creates a Docker client configured from the environment
func NewClient() (*client.Client, error) {
	cli, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return cli, nil
}

// New returns a handle for the container with the given ID or name
func New(cli client.APIClient, id, name string) *Container {
	return &Container{
		client: cli,
		id:     id,
		name:   strings.TrimPrefix(name, "/"),
	}
}

// ID returns the container ID
func (c *Container) ID() string {
	return c.id
}

// Name returns the container name without the leading slash
func (c *Container) Name() string {
	if c.name == "" {
		return c.id
	}
	return c.name
}

// IsRunning checks if the container is running
func (c *Container) IsRunning(ctx context.Context) (bool, error) {
	inspect, err := c.inspect(ctx)
	if err != nil {
		return false, err
	}
	return inspect.State != nil && inspect.State.Running, nil
}

// Ports returns the currently published ports. The mapping is read on every
// call since a restarted container may be bound to different host ports.
func (c *Container) Ports(ctx context.Context) (PortMap, error) {
	inspect, err := c.inspect(ctx)
	if err != nil {
		return nil, err
	}
	if inspect.NetworkSettings == nil {
		return PortMap{}, nil
	}
	return FromNat(inspect.NetworkSettings.Ports), nil
}

// Logs returns container logs
func (c *Container) Logs(ctx context.Context, follow bool) (io.ReadCloser, error) {
	options := container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Timestamps: true,
	}

	logs, err := c.client.ContainerLogs(ctx, c.id, options)
	if err != nil {
		return nil, c.wrap("failed to get container logs", err)
	}

	return logs, nil
}

// DumpLogs logs the state and the first bytes of output of the container,
// used when an environment fails to come up.
func (c *Container) DumpLogs(ctx context.Context, reason string) {
	c.Errorf("%s", reason)

	if inspect, err := c.inspect(ctx); err == nil && inspect.State != nil {
		c.Errorf("Container Status - State: %s, ExitCode: %d, Error: %s",
			inspect.State.Status, inspect.State.ExitCode, inspect.State.Error)
	} else if err != nil {
		c.Errorf("Failed to inspect container for status: %v", err)
	}

	logs, err := c.Logs(ctx, false)
	if err != nil {
		c.Errorf("Failed to retrieve container logs: %v", err)
		return
	}
	defer logs.Close()

	var out bytes.Buffer
	limited := io.LimitReader(logs, maxDumpedLogBytes)
	if _, err := stdcopy.StdCopy(&out, &out, limited); err != nil && out.Len() == 0 {
		c.Errorf("Failed to read container logs: %v", err)
		return
	}

	if out.Len() == 0 {
		c.Errorf("No container logs available")
		return
	}
	c.Errorf("=== Container Logs (first %d bytes) ===\n%s\n=== End Container Logs ===", out.Len(), out.String())
}

// Infof logs an informational message with container name prefix
func (c *Container) Infof(format string, args ...interface{}) {
	logger.Infof("[%s] %s", c.Name(), fmt.Sprintf(format, args...))
}

// Errorf logs an error message with container name prefix
func (c *Container) Errorf(format string, args ...interface{}) {
	logger.Errorf("[%s] %s", c.Name(), fmt.Sprintf(format, args...))
}

func (c *Container) inspect(ctx context.Context) (container.InspectResponse, error) {
	inspect, err := c.client.ContainerInspect(ctx, c.id)
	if err != nil {
		return container.InspectResponse{}, c.wrap("failed to inspect container", err)
	}
	return inspect, nil
}

func (c *Container) wrap(msg string, err error) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%s %s: %w: %w", msg, c.Name(), ErrNotFound, err)
	}
	return fmt.Errorf("%s %s: %w", msg, c.Name(), err)
}
