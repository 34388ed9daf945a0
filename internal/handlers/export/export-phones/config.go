package exportphones

import (
	"fmt"
	"time"

	"franchise-leads/internal/common/config"
)

type Config struct {
	// Collections are read in order; earlier collections win ties in the
	// first-seen ordering of the result.
	Collections []string
	CacheKey    string
	CacheTTL    time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Collections: []string{"franchise_leads", "leads"},
		CacheKey:    "phones:export",
		CacheTTL:    time.Minute,
	}
}

func LoadConfig(cfg config.ExportConfig) *Config {
	c := DefaultConfig()
	if len(cfg.Collections) > 0 {
		c.Collections = cfg.Collections
	}
	if cfg.CacheKey != "" {
		c.CacheKey = cfg.CacheKey
	}
	c.CacheTTL = config.GetDuration(cfg.CacheTTL)
	return c
}

func (c *Config) Validate() error {
	if len(c.Collections) == 0 {
		return fmt.Errorf("at least one export collection is required")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative")
	}
	return nil
}
