package store

import (
	"context"
	"time"

	"franchise-leads/internal/common/metrics"
	"franchise-leads/internal/models"
)

// instrumented records per-operation latency for any Store.
type instrumented struct {
	next Store
}

// WithMetrics wraps s so every call is observed in
// lead_store_operation_duration_seconds.
func WithMetrics(s Store) Store {
	return &instrumented{next: s}
}

func observe(op string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (i *instrumented) Create(ctx context.Context, sub models.LeadSubmission) (*models.Lead, error) {
	defer observe("create", time.Now())
	return i.next.Create(ctx, sub)
}

func (i *instrumented) List(ctx context.Context, opts ListOptions) (*ListPage, error) {
	defer observe("list", time.Now())
	return i.next.List(ctx, opts)
}

func (i *instrumented) UpdateStatus(ctx context.Context, id string, status models.InterestStatus) error {
	defer observe("update_status", time.Now())
	return i.next.UpdateStatus(ctx, id, status)
}

func (i *instrumented) Documents(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	defer observe("documents", time.Now())
	return i.next.Documents(ctx, collection)
}

func (i *instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}
