package store

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"franchise-leads/internal/models"
)

// cursor marks the last lead of a page; the next page starts strictly after
// it in (createdAt desc, id desc) order.
type cursor struct {
	CreatedAt time.Time
	ID        string
}

func encodeCursor(l models.Lead) string {
	raw := l.CreatedAt.UTC().Format(time.RFC3339Nano) + "|" + l.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	ts, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return &cursor{CreatedAt: createdAt, ID: id}, nil
}

// admits reports whether l belongs on a page that starts after c.
func (c *cursor) admits(l models.Lead) bool {
	if l.CreatedAt.Equal(c.CreatedAt) {
		return l.ID < c.ID
	}
	return l.CreatedAt.Before(c.CreatedAt)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
