package listleads

import (
	"fmt"

	"franchise-leads/internal/store"
)

type Config struct {
	// MaxLimit caps ?limit=. Requests without a limit stay unbounded.
	MaxLimit int
}

func DefaultConfig() *Config {
	return &Config{MaxLimit: store.MaxPageSize}
}

func (c *Config) Validate() error {
	if c.MaxLimit <= 0 {
		return fmt.Errorf("max_limit must be positive")
	}
	return nil
}
