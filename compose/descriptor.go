package compose

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

// DefaultProjectNamePrefix prefixes generated project names
const DefaultProjectNamePrefix = "gotest"

// Descriptor identifies one compose environment: its manifests, project name
// and project directory. It is immutable once built.
type Descriptor struct {
	files       []string
	projectName string
	projectDir  string
}

// DefaultProjectName returns a project name unique to the current process
func DefaultProjectName() string {
	return fmt.Sprintf("%s%d", DefaultProjectNamePrefix, os.Getpid())
}

// NewDescriptor validates and normalizes a descriptor. A blank project name
// is replaced by DefaultProjectName.
func NewDescriptor(projectName, projectDir string, files ...string) (Descriptor, error) {
	files = lo.Map(files, func(f string, _ int) string { return strings.TrimSpace(f) })
	if len(files) == 0 {
		return Descriptor{}, errors.New("at least one compose file is required")
	}
	if lo.Contains(files, "") {
		return Descriptor{}, fmt.Errorf("blank compose file path in %q", files)
	}

	projectName = strings.TrimSpace(projectName)
	if projectName == "" {
		projectName = DefaultProjectName()
	}

	return Descriptor{
		files:       files,
		projectName: projectName,
		projectDir:  strings.TrimSpace(projectDir),
	}, nil
}

// Files returns a copy of the manifest paths, in order
func (d Descriptor) Files() []string {
	return append([]string(nil), d.files...)
}

// ProjectName returns the compose project name
func (d Descriptor) ProjectName() string {
	return d.projectName
}

// ProjectDir returns the base directory for relative manifest references
func (d Descriptor) ProjectDir() string {
	return d.projectDir
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.projectName, strings.Join(d.files, ", "))
}
