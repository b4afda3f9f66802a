package config

// HistoryConfig configures the undo/redo stack.
type HistoryConfig struct {
	// Capacity is the maximum number of retained transactions.
	// Zero keeps no history at all.
	Capacity int `yaml:"capacity" env:"CAPACITY"`

	// StrictOwnership rejects completing a transaction from a context that
	// does not own it instead of logging a warning.
	StrictOwnership bool `yaml:"strictOwnership" env:"STRICT_OWNERSHIP"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level ("debug", "info", "warn", "error").
	Level string `yaml:"level" env:"LEVEL"`

	// Development switches to human readable console output.
	Development bool `yaml:"development" env:"DEVELOPMENT"`
}

// MetricsConfig configures prometheus metrics.
type MetricsConfig struct {
	// Enabled registers history metrics.
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}
