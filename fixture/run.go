package fixture

import (
	"bytes"
	"context"
	"testing"

	"github.com/flanksource/commons/logger"
)

type testRunner interface {
	Run() int
}

// Run is meant to be called from TestMain: it starts a session, hands it to
// use, runs the tests and stops the session. It returns the exit code for
// os.Exit, which is non-zero when the environment could not be started or
// stopped.
//
//	var services *fixture.Services
//
//	func TestMain(m *testing.M) {
//		os.Exit(fixture.Run(m, fixture.Options{}, func(s *fixture.Session) {
//			services = s.Services()
//		}))
//	}
func Run(m *testing.M, opts Options, use func(*Session)) int {
	return run(m, opts, defaultHooks, use)
}

func run(m testRunner, opts Options, h hooks, use func(*Session)) int {
	ctx := context.Background()

	s, err := start(ctx, opts, h)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	code := func() (code int) {
		defer func() {
			if err := s.Stop(ctx); err != nil {
				logger.Errorf("%v", err)
				if code == 0 {
					code = 1
				}
			}
		}()
		if use != nil {
			use(s)
		}
		return m.Run()
	}()

	var metrics bytes.Buffer
	if err := WriteMetrics(&metrics); err == nil {
		logger.Debugf("compose-test metrics:\n%s", metrics.String())
	}
	return code
}
