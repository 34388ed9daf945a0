package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"franchise-leads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestMonotonicClock_NeverRepeats(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newMonotonicClock(fixedClock(now))

	a := c.Next()
	b := c.Next()
	assert.Equal(t, now, a)
	assert.Equal(t, now.Add(time.Microsecond), b)

	back := newMonotonicClock(func() time.Time { return now.Add(-time.Hour) })
	back.last = b
	assert.True(t, back.Next().After(b))
}

func TestCursor_RoundTrip(t *testing.T) {
	lead := models.Lead{ID: "abc", CreatedAt: time.Date(2026, 2, 3, 4, 5, 6, 7000, time.UTC)}
	c, err := decodeCursor(encodeCursor(lead))
	require.NoError(t, err)
	assert.True(t, c.CreatedAt.Equal(lead.CreatedAt))
	assert.Equal(t, "abc", c.ID)

	_, err = decodeCursor("bm8tc2VwYXJhdG9y") // "no-separator"
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestMemoryStore_CreateListUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("franchise_leads").WithClock(fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	first, err := s.Create(ctx, testSubmission())
	require.NoError(t, err)
	second, err := s.Create(ctx, testSubmission())
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	page, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.Equal(t, models.InterestUnassigned, page.Items[0].InterestStatus)

	require.NoError(t, s.UpdateStatus(ctx, first.ID, models.InterestHigh))
	require.NoError(t, s.UpdateStatus(ctx, first.ID, models.InterestHigh))

	page, err = s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.InterestHigh, page.Items[1].InterestStatus)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", models.InterestLow), ErrNotFound)
	assert.ErrorIs(t, s.UpdateStatus(ctx, first.ID, "urgent"), ErrInvalidStatus)

	page, err = s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.InterestHigh, page.Items[1].InterestStatus)
}

func TestMemoryStore_ReturnedLeadIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("franchise_leads")

	lead, err := s.Create(ctx, testSubmission())
	require.NoError(t, err)
	lead.InterestStatus = models.InterestHigh

	page, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.InterestUnassigned, page.Items[0].InterestStatus)
}

func TestMemoryStore_Pagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("franchise_leads")
	for i := 0; i < 5; i++ {
		_, err := s.Create(ctx, testSubmission())
		require.NoError(t, err)
	}

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)

	var (
		seen   []string
		cursor string
	)
	for {
		page, err := s.List(ctx, ListOptions{Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, l := range page.Items {
			seen = append(seen, l.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	require.Len(t, seen, 5)
	for i, l := range all.Items {
		assert.Equal(t, l.ID, seen[i])
	}
}

func TestMemoryStore_Documents(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("franchise_leads")
	_, err := s.Create(ctx, testSubmission())
	require.NoError(t, err)
	s.Seed("leads", map[string]interface{}{"phoneNumber": "555-0100"})

	current, err := s.Documents(ctx, "franchise_leads")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "+1 555 010 2030", current[0]["phone"])

	legacy, err := s.Documents(ctx, "leads")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", legacy[0]["phoneNumber"])

	s.FailCollection("leads", errors.New("permission denied"))
	_, err = s.Documents(ctx, "leads")
	assert.ErrorIs(t, err, ErrStorage)

	s.FailCollection("leads", nil)
	_, err = s.Documents(ctx, "leads")
	assert.NoError(t, err)
}

func TestMemoryStore_ConcurrentUpdatesLastWriterWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("franchise_leads")
	lead, err := s.Create(ctx, testSubmission())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, status := range models.InterestStatuses {
		wg.Add(1)
		go func(st models.InterestStatus) {
			defer wg.Done()
			assert.NoError(t, s.UpdateStatus(ctx, lead.ID, st))
		}(status)
	}
	wg.Wait()

	page, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.True(t, page.Items[0].InterestStatus.Valid())
}

func TestWithMetrics_Delegates(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore("franchise_leads")
	s := WithMetrics(mem)

	lead, err := s.Create(ctx, testSubmission())
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, lead.ID, models.InterestLow))

	page, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.InterestLow, page.Items[0].InterestStatus)

	docs, err := s.Documents(ctx, "franchise_leads")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.NoError(t, s.Ping(ctx))
}
