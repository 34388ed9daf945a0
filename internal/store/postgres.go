package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore keeps each collection in its own table.
type PostgresStore struct {
	db         *sql.DB
	collection string
	table      string
	clock      *monotonicClock
	logger     logger.Logger
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB, collection string, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:         db,
		collection: collection,
		table:      pq.QuoteIdentifier(collection),
		clock:      newMonotonicClock(nil),
		logger:     log.WithFields(map[string]interface{}{"collection": collection}),
	}
}

// MigrationStatements returns idempotent DDL for the given collections.
func MigrationStatements(collections ...string) []string {
	var stmts []string
	for _, c := range collections {
		table := pq.QuoteIdentifier(c)
		index := pq.QuoteIdentifier(c + "_created_at_idx")
		stmts = append(stmts,
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	document JSONB NOT NULL,
	interest_status TEXT NOT NULL DEFAULT 'unassigned',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ
)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC, id DESC)`, index, table),
		)
	}
	return stmts
}

func (s *PostgresStore) Create(ctx context.Context, sub models.LeadSubmission) (*models.Lead, error) {
	lead := models.NewLead(uuid.New().String(), sub, s.clock.Next())

	doc, err := json.Marshal(lead.Document())
	if err != nil {
		return nil, fmt.Errorf("%w: marshal lead document: %v", ErrStorage, err)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, document, interest_status, created_at)
		VALUES ($1, $2, $3, $4)`, s.table),
		lead.ID,
		doc,
		string(lead.InterestStatus),
		lead.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert lead: %v", ErrStorage, err)
	}

	return lead, nil
}

func (s *PostgresStore) List(ctx context.Context, opts ListOptions) (*ListPage, error) {
	after, err := decodeCursor(opts.Cursor)
	if err != nil {
		return nil, err
	}
	limit := normalizeLimit(opts.Limit)

	var (
		query strings.Builder
		args  []interface{}
	)
	fmt.Fprintf(&query, `SELECT id, document, interest_status, created_at FROM %s`, s.table)
	if after != nil {
		query.WriteString(` WHERE (created_at, id) < ($1, $2)`)
		args = append(args, after.CreatedAt, after.ID)
	}
	query.WriteString(` ORDER BY created_at DESC, id DESC`)
	if limit > 0 {
		fmt.Fprintf(&query, ` LIMIT %d`, limit+1)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list leads: %v", ErrStorage, err)
	}
	defer rows.Close()

	items := []models.Lead{}
	for rows.Next() {
		var (
			lead   models.Lead
			doc    []byte
			status string
		)
		if err := rows.Scan(&lead.ID, &doc, &status, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan lead: %v", ErrStorage, err)
		}
		if err := json.Unmarshal(doc, &lead.LeadSubmission); err != nil {
			s.logger.Warn("skipping lead with unreadable document", map[string]interface{}{
				"leadId": lead.ID,
				"error":  err,
			})
			continue
		}
		lead.InterestStatus = models.InterestStatus(status)
		lead.CreatedAt = lead.CreatedAt.UTC()
		items = append(items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate leads: %v", ErrStorage, err)
	}

	return paginate(items, limit), nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status models.InterestStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s SET interest_status = $1, updated_at = $2 WHERE id = $3`, s.table),
		string(status),
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("%w: update status: %v", ErrStorage, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", ErrStorage, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Documents returns the raw stored documents of any collection, oldest
// first, including legacy ones that were never written by this service.
func (s *PostgresStore) Documents(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT document FROM %s ORDER BY created_at, id`, pq.QuoteIdentifier(collection)))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStorage, collection, err)
	}
	defer rows.Close()

	var docs []map[string]interface{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrStorage, collection, err)
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %v", ErrStorage, collection, err)
	}
	return docs, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrStorage, err)
	}
	return nil
}

// paginate trims a limit+1 result to a page and derives the next cursor.
func paginate(items []models.Lead, limit int) *ListPage {
	page := &ListPage{Items: items}
	if limit > 0 && len(items) > limit {
		page.Items = items[:limit]
		page.NextCursor = encodeCursor(page.Items[limit-1])
	}
	return page
}
