package observed

// Config holds the defaults applied to every observed value created through
// an engine.
type Config struct {
	// InstantUpdate drains the event context after every change instead of
	// leaving pending events for the next explicit drain.
	InstantUpdate bool `json:"instant_update,omitempty" yaml:"instant_update,omitempty"`
}

// DefaultConfig returns a Config with deferred updates.
func DefaultConfig() Config {
	return Config{}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.InstantUpdate {
		c.InstantUpdate = true
	}
}

// Option adjusts the Config of a single observed value.
type Option func(*Config)

// WithConfig replaces the configuration wholesale.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}

// WithInstantUpdate toggles immediate draining for one value.
func WithInstantUpdate(on bool) Option {
	return func(c *Config) { c.InstantUpdate = on }
}
