package container

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// EnvDockerHost is the environment variable naming the Docker daemon address
const EnvDockerHost = "DOCKER_HOST"

// Loopback is used when the daemon is reached over a local socket
const Loopback = "127.0.0.1"

// ErrInvalidDockerHost is returned for a DOCKER_HOST that is not tcp://<host>:<port>
var ErrInvalidDockerHost = errors.New("invalid value for DOCKER_HOST")

var tcpHost = regexp.MustCompile(`^tcp://(.+?):\d+$`)

// ResolveHost returns the address published container ports are reachable on.
//
// A blank dockerHost means the daemon listens on a local socket and published
// ports are bound on the loopback interface.
func ResolveHost(dockerHost string) (string, error) {
	dockerHost = strings.TrimSpace(dockerHost)
	if dockerHost == "" {
		return Loopback, nil
	}

	match := tcpHost.FindStringSubmatch(dockerHost)
	if match == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDockerHost, dockerHost)
	}
	return match[1], nil
}

// HostFromEnv resolves the host from $DOCKER_HOST
func HostFromEnv() (string, error) {
	return ResolveHost(os.Getenv(EnvDockerHost))
}
