// Package compose drives a Docker Compose environment: the manifests are
// parsed with compose-go, lifecycle goes through the `docker compose` CLI and
// containers are looked up on the Engine API by their compose labels.
package compose

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/types"
	"github.com/docker/docker/client"
	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/exec"
	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/flanksource/compose-test/container"
)

const (
	LabelProject         = "com.docker.compose.project"
	LabelService         = "com.docker.compose.service"
	LabelContainerNumber = "com.docker.compose.container-number"
)

// Project is a loaded compose environment
type Project struct {
	descriptor Descriptor
	project    *types.Project
	docker     client.APIClient
	ownsDocker bool
	run        exec.WrapperFunc
}

// ProjectOption customises Open
type ProjectOption func(p *Project)

// WithDockerClient uses cli for container queries instead of a client
// created from the environment. The caller keeps ownership of cli.
func WithDockerClient(cli client.APIClient) ProjectOption {
	return func(p *Project) {
		p.docker = cli
	}
}

// WithRunner replaces the `docker compose` invocation, args are passed
// after the project flags.
func WithRunner(run exec.WrapperFunc) ProjectOption {
	return func(p *Project) {
		p.run = run
	}
}

// Open loads the manifests of d and connects to the Docker daemon. It does not
// start anything.
func Open(ctx context.Context, d Descriptor, opts ...ProjectOption) (*Project, error) {
	project, err := Load(ctx, d)
	if err != nil {
		return nil, err
	}

	p := &Project{
		descriptor: d,
		project:    project,
	}
	for i := range opts {
		opts[i](p)
	}

	if p.docker == nil {
		cli, err := container.NewClient()
		if err != nil {
			return nil, err
		}
		p.docker = cli
		p.ownsDocker = true
	}

	if p.run == nil {
		p.run = clicky.Exec("docker", p.baseArgs()...).AsWrapper()
	}

	return p, nil
}

// Name returns the normalized compose project name
func (p *Project) Name() string {
	return p.project.Name
}

// Descriptor returns the descriptor the project was opened with
func (p *Project) Descriptor() Descriptor {
	return p.descriptor
}

// ServiceNames returns the declared services, sorted
func (p *Project) ServiceNames() []string {
	names := p.project.ServiceNames()
	sort.Strings(names)
	return names
}

// Service returns a handle on a declared service
func (p *Project) Service(name string) (Service, error) {
	if _, ok := p.project.Services[name]; !ok {
		return nil, &NoSuchServiceError{Name: name}
	}
	return &service{project: p, name: name}, nil
}

// Up creates and starts the environment
func (p *Project) Up(ctx context.Context, opts UpOptions) error {
	p.Infof("Starting services %s", strings.Join(p.ServiceNames(), ", "))
	return p.compose(ctx, opts.args()...)
}

// Down stops and removes the environment
func (p *Project) Down(ctx context.Context, opts DownOptions) error {
	p.Infof("Removing environment")
	return p.compose(ctx, opts.args()...)
}

// Diagnose logs the compose status and the logs of every service container,
// used when Up fails.
func (p *Project) Diagnose(ctx context.Context) {
	_, _ = p.run(exec.WithContext(ctx), exec.WithDebug(), "ps", "--all")

	for _, name := range p.ServiceNames() {
		svc := &service{project: p, name: name}
		ctr, err := svc.container(ctx, true)
		if err != nil {
			p.Errorf("No container for service %s: %v", name, err)
			continue
		}
		ctr.DumpLogs(ctx, fmt.Sprintf("Diagnostics for service %s", name))
	}
}

// Close releases the Docker client if Open created it
func (p *Project) Close() error {
	if p.ownsDocker && p.docker != nil {
		return p.docker.Close()
	}
	return nil
}

// Infof logs an informational message with project name prefix
func (p *Project) Infof(format string, args ...interface{}) {
	logger.Infof("[%s] %s", p.Name(), fmt.Sprintf(format, args...))
}

// Errorf logs an error message with project name prefix
func (p *Project) Errorf(format string, args ...interface{}) {
	logger.Errorf("[%s] %s", p.Name(), fmt.Sprintf(format, args...))
}

func (p *Project) baseArgs() []string {
	args := []string{"compose", "--project-name", p.Name()}
	if p.descriptor.projectDir != "" {
		args = append(args, "--project-directory", p.descriptor.projectDir)
	}
	for _, file := range p.descriptor.files {
		args = append(args, "--file", file)
	}
	return args
}

// compose runs a `docker compose` subcommand. A context deadline becomes the
// process timeout; cancelling the context does not stop a running process, it
// only prevents new ones from starting.
func (p *Project) compose(ctx context.Context, args ...string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("docker compose %s not started: %w", args[0], err)
	}
	cmd := append([]any{exec.WithContext(ctx)}, lo.ToAnySlice(args)...)
	result, err := p.run(cmd...)
	if err != nil {
		if result != nil && strings.TrimSpace(result.Stderr) != "" {
			return fmt.Errorf("docker compose %s failed: %w\n%s", args[0], err, strings.TrimSpace(result.Stderr))
		}
		return fmt.Errorf("docker compose %s failed: %w", args[0], err)
	}
	return nil
}
