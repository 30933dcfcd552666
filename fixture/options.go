package fixture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"sigs.k8s.io/yaml"

	"github.com/flanksource/compose-test/compose"
	"github.com/flanksource/compose-test/container"
)

// DefaultComposeFile is the manifest used when none is configured, relative
// to the root directory
var DefaultComposeFile = filepath.Join("tests", "docker-compose.yml")

// DefaultProjectDir is the project directory used when none is configured,
// relative to the root directory
var DefaultProjectDir = "tests"

// Options configures a session. Zero values are replaced by WithDefaults.
type Options struct {
	// RootDir anchors the default compose file and project directory,
	// defaults to the closest parent directory holding a go.mod
	RootDir string `json:"rootDir,omitempty"`
	// ComposeFiles defaults to <rootdir>/tests/docker-compose.yml
	ComposeFiles []string `json:"composeFiles,omitempty"`
	// ProjectDir defaults to <rootdir>/tests
	ProjectDir string `json:"projectDir,omitempty"`
	// ProjectName defaults to gotest<pid>
	ProjectName string `json:"projectName,omitempty"`
	// AllowFallback runs against localhost when no container runtime answers
	AllowFallback bool `json:"allowFallback,omitempty"`
	// DockerHost defaults to $DOCKER_HOST
	DockerHost *string `json:"dockerHost,omitempty"`

	// Up and Down default to their zero values, see compose.UpOptions and
	// compose.DownOptions
	Up   compose.UpOptions   `json:"up"`
	Down compose.DownOptions `json:"down"`
}

// WithDefaults returns a copy of o with every unset field filled in
func (o Options) WithDefaults() (Options, error) {
	if len(o.ComposeFiles) == 0 || o.ProjectDir == "" {
		if o.RootDir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return o, fmt.Errorf("failed to get working directory: %w", err)
			}
			root, err := FindRootDir(cwd)
			if err != nil {
				return o, err
			}
			o.RootDir = root
		}
		if len(o.ComposeFiles) == 0 {
			o.ComposeFiles = []string{filepath.Join(o.RootDir, DefaultComposeFile)}
		}
		if o.ProjectDir == "" {
			o.ProjectDir = filepath.Join(o.RootDir, DefaultProjectDir)
		}
	}

	if o.ProjectName == "" {
		o.ProjectName = compose.DefaultProjectName()
	}
	if o.DockerHost == nil {
		o.DockerHost = lo.ToPtr(os.Getenv(container.EnvDockerHost))
	}
	return o, nil
}

// Descriptor builds the environment descriptor of o
func (o Options) Descriptor() (compose.Descriptor, error) {
	return compose.NewDescriptor(o.ProjectName, o.ProjectDir, o.ComposeFiles...)
}

// FindRootDir walks up from dir to the closest directory holding a go.mod
func FindRootDir(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if stat, err := os.Stat(filepath.Join(current, "go.mod")); err == nil && !stat.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("go.mod not found from %s", dir)
		}
		current = parent
	}
}

// LoadOptions reads options from a YAML (or JSON) file. Relative paths are
// resolved against the directory of the file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read options %s: %w", path, err)
	}

	var o Options
	if err := yaml.UnmarshalStrict(data, &o); err != nil {
		return Options{}, fmt.Errorf("failed to parse options %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Options{}, err
	}
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	o.RootDir = resolve(o.RootDir)
	o.ProjectDir = resolve(o.ProjectDir)
	o.ComposeFiles = lo.Map(o.ComposeFiles, func(f string, _ int) string { return resolve(f) })

	return o, nil
}
