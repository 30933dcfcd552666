package compose

import (
	"errors"
	"fmt"
)

// ErrNoContainer is returned when a declared service has no running container
var ErrNoContainer = errors.New("no running container")

// NoSuchServiceError is returned when a service is not declared in the manifests
type NoSuchServiceError struct {
	Name string
}

func (e *NoSuchServiceError) Error() string {
	return fmt.Sprintf("No such service: %s", e.Name)
}
