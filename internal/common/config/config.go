// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Export        ExportConfig       `mapstructure:"export"`
	Session       SessionConfig      `mapstructure:"session"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	ShutdownTimeout    int      `mapstructure:"shutdown_timeout"` // milliseconds
	ReadTimeout        int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout       int      `mapstructure:"write_timeout"`    // milliseconds
	MaxBodyBytes       int64    `mapstructure:"max_body_bytes"`
	CORSOrigins        []string `mapstructure:"cors_origins"`
	SubmitRatePerMin   int      `mapstructure:"submit_rate_per_minute"`
	ExportRatePerMin   int      `mapstructure:"export_rate_per_minute"`
	NotificationWaitMS int      `mapstructure:"notification_drain_timeout"` // milliseconds
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects the lead store backend and its collections.
type StorageConfig struct {
	Driver           string `mapstructure:"driver"` // postgres | memory
	LeadsCollection  string `mapstructure:"leads_collection"`
	LegacyCollection string `mapstructure:"legacy_collection"`
	AutoMigrate      bool   `mapstructure:"auto_migrate"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig is optional; an empty address disables the export cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// AuthConfig holds the two static credentials.
type AuthConfig struct {
	AdminToken   string `mapstructure:"admin_token"`
	ExportAPIKey string `mapstructure:"export_api_key"`
}

// NotificationConfig holds settings for the lead notification worker.
type NotificationConfig struct {
	Timeout int `mapstructure:"timeout"` // milliseconds

	Email struct {
		Enabled       bool   `mapstructure:"enabled"`
		Provider      string `mapstructure:"provider"` // ses | smtp
		FromEmail     string `mapstructure:"from_email"`
		OperatorEmail string `mapstructure:"operator_email"`
		ReplyTo       string `mapstructure:"reply_to"`
		BrandName     string `mapstructure:"brand_name"`
	} `mapstructure:"email"`

	SMS struct {
		Enabled       bool   `mapstructure:"enabled"`
		OperatorPhone string `mapstructure:"operator_phone"`
		SenderID      string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`

	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		UseTLS   bool   `mapstructure:"use_tls"`
	} `mapstructure:"smtp"`
}

// ExportConfig drives GET /phones.
type ExportConfig struct {
	Collections []string `mapstructure:"collections"`
	CacheTTL    int      `mapstructure:"cache_ttl"` // milliseconds, 0 disables caching
	CacheKey    string   `mapstructure:"cache_key"`
}

// SessionConfig is read by the lead-admin client.
type SessionConfig struct {
	ServerURL    string `mapstructure:"server_url"`
	File         string `mapstructure:"file"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // milliseconds
	MaxAge       int    `mapstructure:"max_age"`       // milliseconds
	PollInterval int    `mapstructure:"poll_interval"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
