// Package config loads and validates the YAML job matrix that drives
// the harness: which images to build, which environments to run them
// against, and how the run is scheduled and logged.
package config

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is searched for recursively from the working
// directory when no config file is given on the command line.
const DefaultFileName = "envmatrix.yml"

// PathPlaceholder in path-like config values expands to the absolute
// directory containing the config file.
const PathPlaceholder = "__PATH__"

// ConfigError wraps any failure to produce a usable Config. It is
// fatal: nothing is built or run after one.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// VolumeSpec describes a single volume bind.
type VolumeSpec struct {
	// Bind is the mount point inside the container.
	Bind string `yaml:"bind"`

	// Mode is "ro" or "rw".
	Mode string `yaml:"mode"`
}

// EnvSpec is one named environment: the variables injected into a
// container plus the images this environment never runs against.
type EnvSpec struct {
	// Vars holds every key except skip_images. Values may be strings,
	// numbers, bools, lists or mappings.
	Vars map[string]any

	// SkipImages lists image names excluded from the matrix for this
	// environment.
	SkipImages []string
}

// UnmarshalYAML splits the raw environment mapping into variables and
// the skip_images directive.
func (e *EnvSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}

	e.Vars = make(map[string]any, len(raw))
	for key, value := range raw {
		if key == "skip_images" {
			list, ok := value.([]any)
			if !ok {
				return fmt.Errorf("skip_images must be a list, got %T", value)
			}
			for _, item := range list {
				name, ok := item.(string)
				if !ok {
					return fmt.Errorf("skip_images entries must be strings, got %T", item)
				}
				e.SkipImages = append(e.SkipImages, name)
			}
			continue
		}
		e.Vars[key] = value
	}
	return nil
}

// Skips reports whether this environment excludes the given image.
func (e EnvSpec) Skips(image string) bool {
	for _, name := range e.SkipImages {
		if name == image {
			return true
		}
	}
	return false
}

// Environments preserves the declaration order of the YAML mapping so
// the run matrix, and with it the summary, is reproducible.
type Environments struct {
	byName map[string]EnvSpec
	order  []string
}

// UnmarshalYAML decodes the mapping while recording key order.
func (e *Environments) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("docker_container_environments must be a mapping")
	}

	e.byName = make(map[string]EnvSpec, len(node.Content)/2)
	e.order = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var spec EnvSpec
		if err := node.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("environment %q: %w", name, err)
		}
		e.byName[name] = spec
		e.order = append(e.order, name)
	}
	return nil
}

// Names returns environment names in declaration order.
func (e Environments) Names() []string { return e.order }

// Get returns the named environment.
func (e Environments) Get(name string) (EnvSpec, bool) {
	spec, ok := e.byName[name]
	return spec, ok
}

// Len returns the number of declared environments.
func (e Environments) Len() int { return len(e.order) }

// Config is the full job matrix. It is read-only after Load.
type Config struct {
	ProjectName    string                `yaml:"project_name"`
	Threads        int                   `yaml:"threads"`
	LogLevel       string                `yaml:"log_level"`
	DisableLogging bool                  `yaml:"disable_logging"`
	BuildArgs      map[string]string     `yaml:"docker_image_build_args"`
	ImagePath      string                `yaml:"docker_image_path"`
	Images         []string              `yaml:"docker_images"`
	RemoveImages   bool                  `yaml:"docker_remove_images"`
	Environments   Environments          `yaml:"docker_container_environments"`
	Volumes        map[string]VolumeSpec `yaml:"docker_container_volumes"`
}

// Load reads the config file at path, or searches for DefaultFileName
// recursively from the working directory when path is empty. The
// returned error is always a *ConfigError.
func Load(path string) (*Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, &ConfigError{Path: resolved, Err: err}
	}

	cfg, err := Parse(data, filepath.Dir(resolved))
	if err != nil {
		return nil, &ConfigError{Path: resolved, Err: err}
	}
	return cfg, nil
}

// Parse decodes, defaults and validates raw config bytes. baseDir
// replaces the __PATH__ placeholder; it is made absolute first.
func Parse(data []byte, baseDir string) (*Config, error) {
	absDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	data = bytes.ReplaceAll(data, []byte(PathPlaceholder), []byte(absDir))

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePath returns the config file to load. An explicit path must
// exist. Otherwise the working directory tree is walked and the first
// DefaultFileName found wins.
func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	var found string
	err = filepath.WalkDir(wd, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep walking
		}
		if !d.IsDir() && d.Name() == DefaultFileName {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no %s found under %s", DefaultFileName, wd)
	}
	return found, nil
}

// DockerfilePath returns the build file for an image name.
func (c *Config) DockerfilePath(image string) string {
	return filepath.Join(c.ImagePath, "Dockerfile_"+image)
}

// ResolveDockerfiles checks that every declared image maps to an
// existing build file and returns the image → Dockerfile mapping.
func (c *Config) ResolveDockerfiles() (map[string]string, error) {
	files := make(map[string]string, len(c.Images))
	for _, image := range c.Images {
		path := c.DockerfilePath(image)
		if _, err := os.Stat(path); err != nil {
			return nil, &ConfigError{Path: path, Err: fmt.Errorf("image %q has no build file: %w", image, err)}
		}
		files[image] = path
	}
	return files, nil
}
