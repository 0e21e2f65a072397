package devcontainer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// RawDevContainer holds the devcontainer.json fields pyfmt reads. Other
// fields are ignored during parsing.
type RawDevContainer struct {
	Name string `json:"name"`

	// Image is the container image for image-based configurations.
	Image string `json:"image,omitempty"`

	// Build is set when the image is built from a Dockerfile.
	Build *BuildConfig `json:"build,omitempty"`

	// DockerComposeFile is a string or an array of strings.
	DockerComposeFile interface{} `json:"dockerComposeFile,omitempty"`

	// ContainerEnv sets environment variables inside the container.
	ContainerEnv map[string]string `json:"containerEnv,omitempty"`
}

// BuildConfig is the "build" object of devcontainer.json.
type BuildConfig struct {
	Dockerfile string `json:"dockerfile,omitempty"`
	Context    string `json:"context,omitempty"`
}

// Find returns the devcontainer.json path for projectPath, or an empty
// string when there is none. Locations are tried in the order editors use:
//  1. <projectPath>/.devcontainer/devcontainer.json
//  2. <projectPath>/.devcontainer.json
func Find(projectPath string) string {
	candidates := []string{
		filepath.Join(projectPath, ".devcontainer", "devcontainer.json"),
		filepath.Join(projectPath, ".devcontainer.json"),
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadConfig reads a devcontainer.json file, strips JSONC comments and
// trailing commas, and parses it.
//
// Returns a CLIError with ExitConfigError if the file cannot be read or parsed.
func LoadConfig(path string) (*RawDevContainer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read %s", path), err)
	}

	var raw RawDevContainer
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse %s", path), err)
	}
	return &raw, nil
}

// Lookup finds and loads the devcontainer.json for projectPath.
// It returns nil and no error when the project has none.
func Lookup(projectPath string) (*RawDevContainer, error) {
	path := Find(projectPath)
	if path == "" {
		return nil, nil
	}
	return LoadConfig(path)
}

// BuildsImage reports whether the configuration builds its own image,
// from a Dockerfile or Docker Compose, instead of naming one.
func (r *RawDevContainer) BuildsImage() bool {
	return r.Build != nil || r.DockerComposeFile != nil
}

// UsableImage returns the image to run formatters in, or "" when the
// configuration does not name one directly.
func (r *RawDevContainer) UsableImage() string {
	if r == nil || r.BuildsImage() {
		return ""
	}
	return r.Image
}

// Env returns ContainerEnv as sorted KEY=VALUE pairs.
func (r *RawDevContainer) Env() []string {
	if r == nil || len(r.ContainerEnv) == 0 {
		return nil
	}
	env := make([]string, 0, len(r.ContainerEnv))
	for k, v := range r.ContainerEnv {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
