package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	UploadDir    string `mapstructure:"upload_dir" yaml:"upload_dir"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// AdminSecretKey unlocks the admin dashboard endpoints.
	AdminSecretKey string `mapstructure:"admin_secret_key" yaml:"admin_secret_key"`

	// WSMessagesPerMinute caps inbound signals per connection. Zero disables the cap.
	WSMessagesPerMinute int `mapstructure:"ws_messages_per_minute" yaml:"ws_messages_per_minute"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                ":3000",
		ReadHeaderTimeout:   5 * time.Second,
		ShutdownTimeout:     5 * time.Second,
		DatabasePath:        "klatch.db",
		UploadDir:           "uploads",
		JWTSecret:           "change-me-in-production",
		JWTIssuer:           "klatch",
		JWTAudience:         "klatch-clients",
		AdminSecretKey:      "change-me-too",
		WSMessagesPerMinute: 240,
		LogLevel:            "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.UploadDir != "" {
		c.UploadDir = other.UploadDir
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
	if other.AdminSecretKey != "" {
		c.AdminSecretKey = other.AdminSecretKey
	}
	if other.WSMessagesPerMinute != 0 {
		c.WSMessagesPerMinute = other.WSMessagesPerMinute
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
