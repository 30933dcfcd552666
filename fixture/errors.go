package fixture

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvablePort matches every *UnresolvablePortError
	ErrUnresolvablePort = errors.New("unresolvable port")

	// ErrFallback is returned by queries that need a container runtime while
	// running in fallback mode
	ErrFallback = errors.New("no container runtime in fallback mode")
)

// UnresolvablePortError is returned when a container port is not published
// on exactly one host port.
type UnresolvablePortError struct {
	Service   string
	Port      int
	Protocol  string
	HostPorts []string
}

func (e *UnresolvablePortError) Error() string {
	return fmt.Sprintf("Could not detect port for %q.", fmt.Sprintf("%s:%d", e.Service, e.Port))
}

func (e *UnresolvablePortError) Is(target error) bool {
	return target == ErrUnresolvablePort
}

// IsUnresolvablePort reports whether err is an *UnresolvablePortError
func IsUnresolvablePort(err error) bool {
	return errors.Is(err, ErrUnresolvablePort)
}
