package container

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// Probe checks that a container runtime answers by listing containers, the
// API equivalent of `docker ps`.
func Probe(ctx context.Context) error {
	cli, err := NewClient()
	if err != nil {
		return err
	}
	defer cli.Close()

	return ProbeWith(ctx, cli)
}

// ProbeWith runs the liveness probe against an existing client
func ProbeWith(ctx context.Context, cli client.APIClient) error {
	if _, err := cli.ContainerList(ctx, container.ListOptions{Limit: 1}); err != nil {
		return fmt.Errorf("container runtime unavailable: %w", err)
	}
	return nil
}
