package config

import (
	potassium "github.com/bananalabs-oss/potassium/config"
)

// Config is the process configuration read from the environment.
type Config struct {
	JWTSecret    string
	ServiceToken string
	DatabaseURL  string
	Host         string
	Port         string
	MetricsAddr  string
	NATSURL      string
	SettingsPath string
	Logging      LoggingConfig
}

type LoggingConfig struct {
	Level    string
	Format   string
	Output   string
	FilePath string
}

// FromEnv reads the process configuration. Missing required variables are fatal.
func FromEnv() *Config {
	return &Config{
		JWTSecret:    potassium.RequireEnv("JWT_SECRET"),
		ServiceToken: potassium.RequireEnv("SERVICE_TOKEN"),
		DatabaseURL:  potassium.EnvOrDefault("DATABASE_URL", "sqlite://clans.db"),
		Host:         potassium.EnvOrDefault("HOST", "0.0.0.0"),
		Port:         potassium.EnvOrDefault("PORT", "8004"),
		MetricsAddr:  potassium.EnvOrDefault("METRICS_ADDR", ":9104"),
		NATSURL:      potassium.EnvOrDefault("NATS_URL", ""),
		SettingsPath: potassium.EnvOrDefault("SETTINGS_PATH", "settings.toml"),
		Logging: LoggingConfig{
			Level:    potassium.EnvOrDefault("LOG_LEVEL", "info"),
			Format:   potassium.EnvOrDefault("LOG_FORMAT", "json"),
			Output:   potassium.EnvOrDefault("LOG_OUTPUT", "stdout"),
			FilePath: potassium.EnvOrDefault("LOG_FILE", "clans.log"),
		},
	}
}
