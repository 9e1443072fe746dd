package config

import (
	"os"
	"strconv"
)

// envOverrides maps environment variables to config field setters.
// TRAVIS is propagated into the image build args so CI detection
// works inside the build, the rest are harness knobs.
var envOverrides = []struct {
	envVar string
	apply  func(*Config, string)
}{
	{
		envVar: "TRAVIS",
		apply: func(c *Config, v string) {
			if c.BuildArgs == nil {
				c.BuildArgs = map[string]string{}
			}
			c.BuildArgs["TRAVIS"] = v
		},
	},
	{
		envVar: "ENVMATRIX_LOG_LEVEL",
		apply: func(c *Config, v string) {
			c.LogLevel = v
		},
	},
	{
		envVar: "ENVMATRIX_THREADS",
		apply: func(c *Config, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				c.Threads = n
			}
		},
	},
}

// applyEnvOverrides modifies config in place with environment
// variable values.
func applyEnvOverrides(cfg *Config) {
	for _, override := range envOverrides {
		if val := os.Getenv(override.envVar); val != "" {
			override.apply(cfg, val)
		}
	}
}
