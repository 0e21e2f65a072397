package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/pyfmt/internal/model"
)

// DefaultDockerImage is used by the container backend when no image is configured.
const DefaultDockerImage = "python:3.12-slim"

// FileNames lists the configuration file names searched for in the
// repository root, in priority order.
var FileNames = []string{".pyfmt.yaml", ".pyfmt.yml", ".pyfmt.jsonc", ".pyfmt.json"}

// Config controls which files are discovered and how they are formatted.
type Config struct {
	// Sources are glob patterns relative to the root. Matching files named
	// *.py are included; matching directories are searched recursively.
	Sources []string `yaml:"sources" json:"sources"`

	// ScriptDirs are directories whose direct children are included when
	// their first line matches Shebang.
	ScriptDirs []string `yaml:"scriptDirs" json:"scriptDirs"`

	// Shebang is a regular expression matched against the first line of
	// each file in ScriptDirs.
	Shebang string `yaml:"shebang" json:"shebang"`

	// Venv is the virtual environment directory relative to the root.
	// An empty value disables activation.
	Venv string `yaml:"venv" json:"venv"`

	// Formatters run in order over the discovered files.
	Formatters []model.Formatter `yaml:"formatters" json:"formatters"`

	// Docker configures the container backend.
	Docker DockerConfig `yaml:"docker" json:"docker"`
}

// DockerConfig configures running formatters inside a container.
type DockerConfig struct {
	// Enabled selects the container backend without needing --docker.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Image is the container image the formatters run in. When empty, the
	// devcontainer image is used if there is one, else DefaultDockerImage.
	Image string `yaml:"image" json:"image"`

	// Setup commands run in the container before the formatter,
	// typically installing the formatters themselves.
	Setup []string `yaml:"setup" json:"setup"`
}

// Default returns the configuration matching the layout of an octoDNS
// provider repository: top-level modules, octodns_* packages, tests/,
// python scripts under script/, and a virtualenv in env/.
func Default() *Config {
	return &Config{
		Sources:    []string{"*.py", "octodns_*", "tests"},
		ScriptDirs: []string{"script"},
		Shebang:    `^#!.*python`,
		Venv:       "env",
		Formatters: []model.Formatter{
			{Name: "isort"},
			{Name: "black"},
		},
		Docker: DockerConfig{
			Setup: []string{"pip install --quiet --disable-pip-version-check isort black"},
		},
	}
}

// Find returns the path of the first configuration file present in root,
// or an empty string when there is none.
func Find(root string) string {
	for _, name := range FileNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads the configuration at path on top of the defaults.
// An empty path returns the defaults unchanged.
//
// Returns a CLIError with ExitConfigError if the file cannot be read,
// parsed, or validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	if err := Parse(data, filepath.Ext(path), cfg); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to parse config file %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid config file %s", path), err)
	}
	return cfg, nil
}

// Parse decodes data into cfg. The extension selects the decoder:
// ".json" and ".jsonc" use JSONC, anything else is treated as YAML.
func Parse(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		// Strip comments and trailing commas, then decode strictly so that
		// a misspelt key is reported instead of silently ignored.
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			// An empty document keeps the defaults.
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("invalid YAML: %w", err)
		}
	}
	return nil
}

// Validate checks the configuration for values that would make a run
// meaningless or impossible.
func (c *Config) Validate() error {
	if len(c.Formatters) == 0 {
		return fmt.Errorf("at least one formatter must be configured")
	}
	seen := make(map[string]bool, len(c.Formatters))
	for _, f := range c.Formatters {
		if err := f.Validate(); err != nil {
			return err
		}
		if seen[f.Name] {
			return fmt.Errorf("formatter %q is configured more than once", f.Name)
		}
		seen[f.Name] = true
	}

	if len(c.ScriptDirs) > 0 {
		if _, err := c.ShebangRegexp(); err != nil {
			return err
		}
	}

	for _, pattern := range c.Sources {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid source pattern %q: %w", pattern, err)
		}
		if filepath.IsAbs(pattern) {
			return fmt.Errorf("source pattern %q must be relative to the repository root", pattern)
		}
	}
	return nil
}

// ShebangRegexp compiles the configured shebang pattern.
func (c *Config) ShebangRegexp() (*regexp.Regexp, error) {
	if c.Shebang == "" {
		return nil, fmt.Errorf("shebang pattern must not be empty when scriptDirs are set")
	}
	re, err := regexp.Compile(c.Shebang)
	if err != nil {
		return nil, fmt.Errorf("invalid shebang pattern %q: %w", c.Shebang, err)
	}
	return re, nil
}

// DockerImage picks the container image: the configured one, then
// fallback (typically the devcontainer image), then DefaultDockerImage.
func (c *Config) DockerImage(fallback string) string {
	switch {
	case c.Docker.Image != "":
		return c.Docker.Image
	case fallback != "":
		return fallback
	default:
		return DefaultDockerImage
	}
}
