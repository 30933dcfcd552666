package container

import (
	"context"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/samber/lo"
)

// Handle is the read-only view of a running container
type Handle interface {
	ID() string
	Name() string
	IsRunning(ctx context.Context) (bool, error)
	Ports(ctx context.Context) (PortMap, error)
	Logs(ctx context.Context, follow bool) (io.ReadCloser, error)
}

// PortBinding is one host address a container port is published on
type PortBinding struct {
	HostIP   string `json:"hostIP,omitempty"`
	HostPort string `json:"hostPort"`
}

// PortMap maps "<port>/<protocol>" to the host bindings reported by the runtime
type PortMap map[string][]PortBinding

// PortKey builds the "<port>/<protocol>" key used by PortMap
func PortKey(port int, protocol string) string {
	if protocol == "" {
		protocol = "tcp"
	}
	return string(nat.Port(strconv.Itoa(port) + "/" + strings.ToLower(protocol)))
}

// FromNat converts the port map returned by the Docker API
func FromNat(ports nat.PortMap) PortMap {
	out := make(PortMap, len(ports))
	for port, bindings := range ports {
		out[string(port)] = lo.Map(bindings, func(b nat.PortBinding, _ int) PortBinding {
			return PortBinding{HostIP: b.HostIP, HostPort: b.HostPort}
		})
	}
	return out
}

// HostPorts returns the distinct host ports bound to key, in ascending order.
// Docker publishes the same host port once per address family, those
// collapse into a single entry.
func (p PortMap) HostPorts(key string) ([]string, bool) {
	bindings, ok := p[key]
	if !ok {
		return nil, false
	}

	ports := lo.Uniq(lo.FilterMap(bindings, func(b PortBinding, _ int) (string, bool) {
		return b.HostPort, b.HostPort != ""
	}))
	sort.Strings(ports)
	return ports, true
}

// Keys returns the published "<port>/<protocol>" keys, sorted
func (p PortMap) Keys() []string {
	keys := lo.Keys(p)
	sort.Strings(keys)
	return keys
}
