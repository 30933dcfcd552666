package compose

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/compose-spec/compose-go/v2/cli"
	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
)

// Load parses the manifests of d into a compose project. Files are read
// relative to the working directory, like `docker compose -f` does.
// Variables are interpolated from the process environment and from the .env
// file of the project directory, the process environment taking precedence.
func Load(ctx context.Context, d Descriptor) (*types.Project, error) {
	configFiles := make([]types.ConfigFile, 0, len(d.files))
	for _, file := range d.files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read compose file %s: %w", file, err)
		}
		configFiles = append(configFiles, types.ConfigFile{Filename: file, Content: data})
	}

	workingDir := d.projectDir
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workingDir = wd
	}

	env, err := environment(d.files, workingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment of %s: %w", workingDir, err)
	}

	configDetails := types.ConfigDetails{
		WorkingDir:  workingDir,
		ConfigFiles: configFiles,
		Environment: env,
	}

	project, err := loader.LoadWithContext(ctx, configDetails, func(o *loader.Options) {
		o.SetProjectName(d.projectName, true)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse compose files %s: %w", strings.Join(d.files, ", "), err)
	}
	if len(project.Services) == 0 {
		return nil, fmt.Errorf("compose files %s declare no services", strings.Join(d.files, ", "))
	}

	return project, nil
}

func environment(files []string, workingDir string) (types.Mapping, error) {
	options, err := cli.NewProjectOptions(files,
		cli.WithWorkingDirectory(workingDir),
		cli.WithOsEnv,
		cli.WithEnvFiles(),
		cli.WithDotEnv,
	)
	if err != nil {
		return nil, err
	}
	return options.Environment, nil
}
