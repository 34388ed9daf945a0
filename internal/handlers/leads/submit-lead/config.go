package submitlead

import (
	"fmt"

	"franchise-leads/internal/common/config"
)

type Config struct {
	MaxBodyBytes int64
}

func DefaultConfig() *Config {
	return &Config{MaxBodyBytes: 64 << 10}
}

func LoadConfig(cfg config.ServerConfig) *Config {
	c := DefaultConfig()
	if cfg.MaxBodyBytes > 0 {
		c.MaxBodyBytes = cfg.MaxBodyBytes
	}
	return c
}

func (c *Config) Validate() error {
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}
	return nil
}
