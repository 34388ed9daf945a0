package submitlead

import (
	"context"

	"franchise-leads/internal/models"
)

type Input struct {
	Payload map[string]interface{}
}

type Output struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// Notifier starts best-effort notifications for a stored lead without
// blocking the caller.
type Notifier interface {
	Dispatch(ctx context.Context, lead models.Lead)
}

// CacheInvalidator drops derived data that a new lead makes stale.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}
