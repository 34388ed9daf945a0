// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Load reads the server configuration: .env, configs/config.yaml, the
// config.<APP_ENVIRONMENT>.yaml overlay and environment overrides. Storage and
// the admin secret are required.
func Load() (*Config, error) {
	return load("", validateConfig)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return load(path, validateConfig)
}

// LoadClient loads the same files for the lead-admin client, which needs
// neither storage nor server credentials.
func LoadClient(path string) (*Config, error) {
	return load(path, validateClientConfig)
}

func load(path string, validate func(*Config) error) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../../configs")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading base config: %w", err)
			}
		}

		env := os.Getenv("APP_ENVIRONMENT")
		if env == "" {
			env = "development"
		}
		v.SetConfigName(fmt.Sprintf("config.%s", env))
		_ = v.MergeInConfig() // overlay is optional
	}

	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking from the working directory
// up to the module root.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// setDefaults registers values that cannot be defaulted after unmarshal
// because their zero value is meaningful.
func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.auto_migrate", true)
	v.SetDefault("notifications.email.enabled", true)
}

// overrideEmptyConfig fills credentials from the conventional variable names
// used by the deployment environment.
func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		env    string
	}{
		{&cfg.Auth.AdminToken, "ADMIN_TOKEN"},
		{&cfg.Auth.ExportAPIKey, "PRIVATE_API_KEY"},
		{&cfg.Notifications.Email.FromEmail, "NOTIFY_FROM_EMAIL"},
		{&cfg.Notifications.Email.OperatorEmail, "NOTIFY_OPERATOR_EMAIL"},
		{&cfg.Notifications.SMS.OperatorPhone, "NOTIFY_OPERATOR_PHONE"},
		{&cfg.Notifications.SMTP.Password, "SMTP_PASSWORD"},
		{&cfg.Database.Postgres.User, "DB_USER"},
		{&cfg.Database.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Database.Redis.Address, "REDIS_ADDRESS"},
		{&cfg.Session.ServerURL, "LEAD_SERVER_URL"},
	}
	for _, o := range overrides {
		if *o.target != "" {
			continue
		}
		if val := os.Getenv(o.env); val != "" {
			*o.target = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "franchise-leads"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 64 * 1024
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Server.SubmitRatePerMin == 0 {
		cfg.Server.SubmitRatePerMin = 20
	}
	if cfg.Server.ExportRatePerMin == 0 {
		cfg.Server.ExportRatePerMin = 60
	}
	if cfg.Server.NotificationWaitMS == 0 {
		cfg.Server.NotificationWaitMS = 10000
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
	if cfg.Storage.LeadsCollection == "" {
		cfg.Storage.LeadsCollection = "franchise_leads"
	}
	if cfg.Storage.LegacyCollection == "" {
		cfg.Storage.LegacyCollection = "leads"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Notifications.Timeout == 0 {
		cfg.Notifications.Timeout = 15000
	}
	if cfg.Notifications.Email.Provider == "" {
		cfg.Notifications.Email.Provider = "ses"
	}
	if cfg.Notifications.Email.BrandName == "" {
		cfg.Notifications.Email.BrandName = "Milkshake Franchise"
	}
	if cfg.Notifications.AWS.Region == "" {
		cfg.Notifications.AWS.Region = "us-east-1"
	}
	if cfg.Notifications.SMTP.Port == 0 {
		cfg.Notifications.SMTP.Port = 587
	}

	if len(cfg.Export.Collections) == 0 {
		cfg.Export.Collections = []string{cfg.Storage.LeadsCollection, cfg.Storage.LegacyCollection}
	}
	if cfg.Export.CacheKey == "" {
		cfg.Export.CacheKey = "phones:export"
	}

	if cfg.Session.ServerURL == "" {
		cfg.Session.ServerURL = "http://localhost:8080"
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = 30 * 60 * 1000
	}
	if cfg.Session.MaxAge == 0 {
		cfg.Session.MaxAge = 8 * 60 * 60 * 1000
	}
	if cfg.Session.PollInterval == 0 {
		cfg.Session.PollInterval = 15 * 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case DriverPostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, cfg.Storage.Driver)
	}

	if cfg.Auth.AdminToken == "" {
		return fmt.Errorf("auth.admin_token is required")
	}

	switch cfg.Notifications.Email.Provider {
	case "ses", "smtp":
	default:
		return fmt.Errorf("notifications.email.provider must be ses or smtp, got %q", cfg.Notifications.Email.Provider)
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	return nil
}

func validateClientConfig(cfg *Config) error {
	if cfg.Session.ServerURL == "" {
		return fmt.Errorf("session.server_url is required")
	}
	if cfg.Session.IdleTimeout <= 0 || cfg.Session.MaxAge <= 0 || cfg.Session.PollInterval <= 0 {
		return fmt.Errorf("session timeouts must be positive")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
