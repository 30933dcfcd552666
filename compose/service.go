package compose

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/samber/lo"

	"github.com/flanksource/compose-test/container"
)

// Service is a declared service of a running environment
type Service interface {
	Name() string
	// Container returns the first running container of the service
	Container(ctx context.Context) (container.Handle, error)
}

type service struct {
	project *Project
	name    string
}

func (s *service) Name() string {
	return s.name
}

func (s *service) Container(ctx context.Context) (container.Handle, error) {
	return s.container(ctx, false)
}

func (s *service) container(ctx context.Context, all bool) (*container.Container, error) {
	list, err := s.project.docker.ContainerList(ctx, dockercontainer.ListOptions{
		All: all,
		Filters: filters.NewArgs(
			filters.Arg("label", LabelProject+"="+s.project.Name()),
			filters.Arg("label", LabelService+"="+s.name),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers of service %s: %w", s.name, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w for service %s", ErrNoContainer, s.name)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return containerNumber(list[i]) < containerNumber(list[j])
	})

	first := list[0]
	name := lo.FirstOr(first.Names, "")
	return container.New(s.project.docker, first.ID, name), nil
}

func containerNumber(c dockercontainer.Summary) int {
	n, err := strconv.Atoi(c.Labels[LabelContainerNumber])
	if err != nil {
		return math.MaxInt
	}
	return n
}
