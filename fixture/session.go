// Package fixture brings a compose environment up for a test session and
// tears it down once the session ends.
//
// A session is started once, typically from TestMain (see Run) or a Ginkgo
// BeforeSuite, and handed to tests as a *Services. When AllowFallback is set
// and no container runtime answers, the session runs in fallback mode: nothing
// is started and ports resolve to themselves on localhost.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"

	"github.com/flanksource/compose-test/compose"
	"github.com/flanksource/compose-test/container"
)

// Orchestrator is the subset of *compose.Project a session drives
type Orchestrator interface {
	Up(ctx context.Context, opts compose.UpOptions) error
	Down(ctx context.Context, opts compose.DownOptions) error
	ServiceNames() []string
	Service(name string) (compose.Service, error)
	Close() error
}

type diagnoser interface {
	Diagnose(ctx context.Context)
}

// State of a session
type State int

const (
	NotStarted State = iota
	FallbackActive
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case FallbackActive:
		return "FallbackActive"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type hooks struct {
	probe func(ctx context.Context) error
	open  func(ctx context.Context, d compose.Descriptor) (Orchestrator, error)
}

var defaultHooks = hooks{
	probe: container.Probe,
	open: func(ctx context.Context, d compose.Descriptor) (Orchestrator, error) {
		p, err := compose.Open(ctx, d)
		if err != nil {
			return nil, err
		}
		return p, nil
	},
}

// Session owns one compose environment from Start to Stop
type Session struct {
	mu         sync.Mutex
	state      State
	opts       Options
	descriptor compose.Descriptor
	project    Orchestrator
	services   *Services
}

// Start brings up every service of the environment described by opts
func Start(ctx context.Context, opts Options) (*Session, error) {
	return start(ctx, opts, defaultHooks)
}

func start(ctx context.Context, opts Options, h hooks) (*Session, error) {
	opts, err := opts.WithDefaults()
	if err != nil {
		return nil, err
	}

	host, err := container.ResolveHost(*opts.DockerHost)
	if err != nil {
		return nil, err
	}

	d, err := opts.Descriptor()
	if err != nil {
		return nil, err
	}

	s := &Session{
		state:      NotStarted,
		opts:       opts,
		descriptor: d,
	}

	if opts.AllowFallback {
		if err := h.probe(ctx); err != nil {
			logger.Infof("[%s] No container runtime, using localhost: %v", d.ProjectName(), err)
			s.state = FallbackActive
			s.services = &Services{host: container.Loopback, fallback: true}
			sessions.WithLabelValues("fallback").Inc()
			return s, nil
		}
	}

	started := time.Now()
	project, err := h.open(ctx, d)
	if err != nil {
		lifecycleDuration.WithLabelValues("up", result(err)).Observe(time.Since(started).Seconds())
		return nil, fmt.Errorf("failed to start environment %s: %w", d, err)
	}

	if err := project.Up(ctx, opts.Up); err != nil {
		lifecycleDuration.WithLabelValues("up", result(err)).Observe(time.Since(started).Seconds())
		if diag, ok := project.(diagnoser); ok {
			diag.Diagnose(ctx)
		}
		if downErr := project.Down(ctx, opts.Down); downErr != nil {
			logger.Errorf("[%s] Failed to clean up after failed start: %v", d.ProjectName(), downErr)
		}
		_ = project.Close()
		return nil, fmt.Errorf("failed to start environment %s: %w", d, err)
	}
	lifecycleDuration.WithLabelValues("up", "ok").Observe(time.Since(started).Seconds())
	sessions.WithLabelValues("docker").Inc()

	s.state = Running
	s.project = project
	s.services = &Services{project: project, host: host}
	logger.Infof("[%s] Environment up in %v", d.ProjectName(), time.Since(started).Round(time.Millisecond))
	return s, nil
}

// Stop tears the environment down, removing containers and volumes. Only the
// first call does anything.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Stopped:
		return nil
	case FallbackActive, NotStarted:
		s.state = Stopped
		return nil
	}

	started := time.Now()
	downErr := s.project.Down(ctx, s.opts.Down)
	closeErr := s.project.Close()
	s.state = Stopped
	lifecycleDuration.WithLabelValues("down", result(downErr)).Observe(time.Since(started).Seconds())

	if err := errors.Join(downErr, closeErr); err != nil {
		return fmt.Errorf("failed to stop environment %s: %w", s.descriptor, err)
	}
	logger.Infof("[%s] Environment removed", s.descriptor.ProjectName())
	return nil
}

// Services returns the handle tests use to reach services
func (s *Session) Services() *Services {
	return s.services
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Descriptor returns the compose files, project name and project directory
func (s *Session) Descriptor() compose.Descriptor {
	return s.descriptor
}

// Options returns the effective options, defaults included
func (s *Session) Options() Options {
	return s.opts
}

// Host returns the address published ports are reachable on
func (s *Session) Host() string {
	return s.services.Host()
}

// Fallback reports whether the session runs without a container runtime
func (s *Session) Fallback() bool {
	return s.services.Fallback()
}

// With starts a session, calls fn and always stops the session, also when fn
// fails or panics.
func With(ctx context.Context, opts Options, fn func(*Services) error) error {
	return with(ctx, opts, defaultHooks, fn)
}

func with(ctx context.Context, opts Options, h hooks, fn func(*Services) error) (err error) {
	s, err := start(ctx, opts, h)
	if err != nil {
		return err
	}

	defer func() {
		stopErr := s.Stop(context.WithoutCancel(ctx))
		if r := recover(); r != nil {
			if stopErr != nil {
				logger.Errorf("%v", stopErr)
			}
			panic(r)
		}
		err = errors.Join(err, stopErr)
	}()

	return fn(s.Services())
}
