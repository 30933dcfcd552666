package fixture

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/flanksource/compose-test/compose"
	"github.com/flanksource/compose-test/container"
	"github.com/flanksource/compose-test/wait"
)

// Services is handed to tests to reach the services of a session. It is
// read-only: every call queries the live environment.
type Services struct {
	project  Orchestrator
	host     string
	fallback bool
}

// Fallback reports whether the session runs without a container runtime
func (s *Services) Fallback() bool {
	return s.fallback
}

// Host returns the address published ports are reachable on
func (s *Services) Host() string {
	return s.host
}

// ServiceNames returns the services declared by the environment
func (s *Services) ServiceNames() []string {
	if s.fallback {
		return nil
	}
	return s.project.ServiceNames()
}

// Service returns a handle on a declared service
func (s *Services) Service(name string) (compose.Service, error) {
	if s.fallback {
		return nil, ErrFallback
	}
	return s.project.Service(name)
}

// PortFor returns the host port the TCP port of service is published on
func (s *Services) PortFor(ctx context.Context, service string, port int) (int, error) {
	return s.PortForProtocol(ctx, service, port, "tcp")
}

// PortForProtocol returns the host port a container port is published on.
// In fallback mode the port is returned unchanged.
//
// Bindings are compared by host port only: the same port published on
// 0.0.0.0 and :: counts as one binding. The port is unresolvable when it is
// not published or published on several distinct host ports.
//
// The mapping is looked up on every call, host ports are only known once the
// container runs and change when it is recreated.
func (s *Services) PortForProtocol(ctx context.Context, service string, port int, protocol string) (int, error) {
	if s.fallback {
		portLookups.WithLabelValues("fallback").Inc()
		return port, nil
	}

	hostPort, err := s.lookup(ctx, service, port, protocol)
	switch {
	case err == nil:
		portLookups.WithLabelValues("published").Inc()
	case IsUnresolvablePort(err):
		portLookups.WithLabelValues("unresolvable").Inc()
	default:
		portLookups.WithLabelValues("error").Inc()
	}
	return hostPort, err
}

// Endpoint returns "<host>:<port>" for a TCP port of service
func (s *Services) Endpoint(ctx context.Context, service string, port int) (string, error) {
	hostPort, err := s.PortFor(ctx, service, port)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(s.host, strconv.Itoa(hostPort)), nil
}

// WaitUntilResponsive polls check until it passes, see wait.UntilResponsive
func (s *Services) WaitUntilResponsive(check func() bool, timeout, pause time.Duration, opts ...wait.Option) error {
	return wait.UntilResponsive(func() bool {
		ok := check()
		if ok {
			waitPolls.WithLabelValues("ready").Inc()
		} else {
			waitPolls.WithLabelValues("not_ready").Inc()
		}
		return ok
	}, timeout, pause, opts...)
}

func (s *Services) lookup(ctx context.Context, service string, port int, protocol string) (int, error) {
	svc, err := s.project.Service(service)
	if err != nil {
		return 0, err
	}

	ctr, err := svc.Container(ctx)
	if err != nil {
		return 0, err
	}

	ports, err := ctr.Ports(ctx)
	if err != nil {
		return 0, err
	}

	hostPorts, _ := ports.HostPorts(container.PortKey(port, protocol))
	if len(hostPorts) != 1 {
		return 0, &UnresolvablePortError{Service: service, Port: port, Protocol: protocol, HostPorts: hostPorts}
	}

	hostPort, err := strconv.Atoi(hostPorts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid host port %q for %s:%d: %w", hostPorts[0], service, port, err)
	}
	return hostPort, nil
}
