package config

// Default values for optional config keys.
const (
	DefaultThreads  = 2
	DefaultLogLevel = "INFO"
)

// DefaultConfig returns a Config with every optional key at its
// default. Required keys (build args, image path, images) stay zero
// and are enforced by validateConfig.
func DefaultConfig() *Config {
	return &Config{
		Threads:        DefaultThreads,
		LogLevel:       DefaultLogLevel,
		DisableLogging: false,
		RemoveImages:   true,
		Volumes:        map[string]VolumeSpec{},
	}
}

// Overrides holds CLI values that take precedence over the file.
// Zero values mean "not set on the command line".
type Overrides struct {
	Threads        int
	LogLevel       string
	DisableLogging bool
}

// Apply layers CLI overrides onto a loaded config. Precedence is
// CLI > file > default, matching the flag semantics.
func (c *Config) Apply(o Overrides) error {
	if o.Threads > 0 {
		c.Threads = o.Threads
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.DisableLogging {
		c.DisableLogging = true
	}
	if err := validateConfig(c); err != nil {
		return &ConfigError{Err: err}
	}
	return nil
}
