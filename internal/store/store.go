// Package store persists franchise leads. Each collection is a table of
// JSON documents with the interest status and creation time kept alongside.
package store

import (
	"context"
	"errors"

	"franchise-leads/internal/models"
)

var (
	ErrNotFound      = errors.New("lead not found")
	ErrInvalidStatus = errors.New("invalid interest status")
	ErrInvalidCursor = errors.New("invalid cursor")
	ErrStorage       = errors.New("storage failure")
)

// Store is the lead store. Implementations assign identifiers and creation
// timestamps; callers never supply them.
type Store interface {
	Create(ctx context.Context, sub models.LeadSubmission) (*models.Lead, error)
	List(ctx context.Context, opts ListOptions) (*ListPage, error)
	UpdateStatus(ctx context.Context, id string, status models.InterestStatus) error
	Documents(ctx context.Context, collection string) ([]map[string]interface{}, error)
	Ping(ctx context.Context) error
}

// ListOptions pages through leads newest first. A zero Limit returns every
// lead.
type ListOptions struct {
	Limit  int
	Cursor string
}

type ListPage struct {
	Items      []models.Lead
	NextCursor string
}

const MaxPageSize = 500
