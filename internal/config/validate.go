package config

import (
	"errors"
	"fmt"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.Threads < 1 {
		errs = append(errs, &ValidationError{
			Field:   "threads",
			Value:   cfg.Threads,
			Message: "must be at least 1",
		})
	}

	if cfg.ImagePath == "" {
		errs = append(errs, &ValidationError{
			Field:   "docker_image_path",
			Value:   cfg.ImagePath,
			Message: "must not be empty",
		})
	}

	if len(cfg.Images) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "docker_images",
			Value:   cfg.Images,
			Message: "must declare at least one image",
		})
	}

	if cfg.BuildArgs == nil {
		errs = append(errs, &ValidationError{
			Field:   "docker_image_build_args",
			Value:   nil,
			Message: "must be present (may be empty)",
		})
	}

	declared := make(map[string]bool, len(cfg.Images))
	for _, image := range cfg.Images {
		declared[image] = true
	}
	for _, env := range cfg.Environments.Names() {
		spec, _ := cfg.Environments.Get(env)
		for _, skip := range spec.SkipImages {
			if !declared[skip] {
				errs = append(errs, &ValidationError{
					Field:   "docker_container_environments." + env + ".skip_images",
					Value:   skip,
					Message: "references an undeclared image",
				})
			}
		}
	}

	for host, vol := range cfg.Volumes {
		if vol.Bind == "" {
			errs = append(errs, &ValidationError{
				Field:   "docker_container_volumes." + host + ".bind",
				Value:   vol.Bind,
				Message: "must not be empty",
			})
		}
		if vol.Mode != "ro" && vol.Mode != "rw" {
			errs = append(errs, &ValidationError{
				Field:   "docker_container_volumes." + host + ".mode",
				Value:   vol.Mode,
				Message: `must be "ro" or "rw"`,
			})
		}
	}

	return errors.Join(errs...)
}
