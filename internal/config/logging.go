package config

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"REGISTRY_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"REGISTRY_LOG_FORMAT"` // json, console
}
