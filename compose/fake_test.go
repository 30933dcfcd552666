package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/containerd/errdefs"
	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/flanksource/clicky/exec"
)

// fakeDocker answers ContainerList from a fixed set of summaries, matching on
// the compose service label.
type fakeDocker struct {
	client.APIClient

	containers []dockercontainer.Summary
	ports      map[string]nat.PortMap
	listErr    error
	closed     bool
}

func (f *fakeDocker) ContainerList(_ context.Context, opts dockercontainer.ListOptions) ([]dockercontainer.Summary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []dockercontainer.Summary
	for _, c := range f.containers {
		if !opts.Filters.Contains("label") {
			out = append(out, c)
			continue
		}
		if opts.Filters.ExactMatch("label", LabelService+"="+c.Labels[LabelService]) &&
			opts.Filters.ExactMatch("label", LabelProject+"="+c.Labels[LabelProject]) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDocker) ContainerInspect(_ context.Context, id string) (dockercontainer.InspectResponse, error) {
	ports, ok := f.ports[id]
	if !ok {
		return dockercontainer.InspectResponse{}, errdefs.ErrNotFound
	}
	return dockercontainer.InspectResponse{
		ContainerJSONBase: &dockercontainer.ContainerJSONBase{
			ID:    id,
			State: &dockercontainer.State{Status: "running", Running: true},
		},
		NetworkSettings: &dockercontainer.NetworkSettings{
			NetworkSettingsBase: dockercontainer.NetworkSettingsBase{Ports: ports},
		},
	}, nil
}

func (f *fakeDocker) ContainerLogs(_ context.Context, id string, _ dockercontainer.LogsOptions) (io.ReadCloser, error) {
	if _, ok := f.ports[id]; !ok {
		return nil, errdefs.ErrNotFound
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeDocker) Close() error {
	f.closed = true
	return nil
}

func summary(project, service string, number int, id string) dockercontainer.Summary {
	return dockercontainer.Summary{
		ID:    id,
		Names: []string{fmt.Sprintf("/%s-%s-%d", project, service, number)},
		State: "running",
		Labels: map[string]string{
			LabelProject:         project,
			LabelService:         service,
			LabelContainerNumber: fmt.Sprint(number),
		},
	}
}

// fakeRunner records the string arguments of every compose invocation.
type fakeRunner struct {
	calls  [][]string
	err    error
	stderr string
}

func (r *fakeRunner) run(args ...any) (*exec.ExecResult, error) {
	var call []string
	for _, a := range args {
		if s, ok := a.(string); ok {
			call = append(call, s)
		}
	}
	r.calls = append(r.calls, call)
	if r.err != nil {
		return &exec.ExecResult{Stderr: r.stderr}, r.err
	}
	return &exec.ExecResult{}, nil
}

var errExit = errors.New("exit status 1")
