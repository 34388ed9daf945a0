// internal/handlers/export/export-phones/handler_test.go
package exportphones

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"franchise-leads/internal/common/config"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/store"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// sourceStub serves fixed documents per collection.
type sourceStub struct {
	docs     map[string][]map[string]interface{}
	failures map[string]error
}

func (s *sourceStub) Documents(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	if err := s.failures[collection]; err != nil {
		return nil, err
	}
	return s.docs[collection], nil
}

func newSource() *sourceStub {
	return &sourceStub{
		docs: map[string][]map[string]interface{}{
			"franchise_leads": {
				{"phone": "555-0100"},
				{"phone": "  555-0101 "},
				{"phone": ""},
				{"fullName": "no phone"},
			},
			"leads": {
				{"phoneNumber": "555-0101"},
				{"phoneNumber": "555-0102"},
				{"phone": 5550103.0},
				{"phone": "   ", "phoneNumber": "555-0104"},
			},
		},
		failures: map[string]error{},
	}
}

func noCacheConfig() *Config {
	c := DefaultConfig()
	c.CacheTTL = 0
	return c
}

// ==========================
// Merge Tests
// ==========================

func TestHandler_Execute_MergesAndDeduplicates(t *testing.T) {
	h := NewHandler(noCacheConfig(), newSource(), nil, newTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, []string{"555-0100", "555-0101", "555-0102", "5550103", "555-0104"}, output.Phones)
	assert.False(t, output.Partial)
}

func TestHandler_Execute_SourceFailures(t *testing.T) {
	tests := []struct {
		name       string
		failing    []string
		wantPhones []string
	}{
		{
			name:       "legacy collection down",
			failing:    []string{"leads"},
			wantPhones: []string{"555-0100", "555-0101"},
		},
		{
			name:       "current collection down",
			failing:    []string{"franchise_leads"},
			wantPhones: []string{"555-0101", "555-0102", "5550103", "555-0104"},
		},
		{
			name:       "both down",
			failing:    []string{"franchise_leads", "leads"},
			wantPhones: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSource()
			for _, c := range tt.failing {
				src.failures[c] = errors.New("permission denied")
			}
			h := NewHandler(noCacheConfig(), src, nil, newTestLogger(t))

			output, err := h.Execute(context.Background(), &Input{})

			require.NoError(t, err)
			assert.True(t, output.Partial)
			assert.Equal(t, tt.wantPhones, output.Phones)
		})
	}
}

func TestHandler_Execute_WithMemoryStore(t *testing.T) {
	s := store.NewMemoryStore("franchise_leads")
	s.Seed("leads", map[string]interface{}{"phoneNumber": "555-0199"})

	h := NewHandler(noCacheConfig(), s, nil, newTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, []string{"555-0199"}, output.Phones)
}

// ==========================
// Cache Tests
// ==========================

func TestHandler_Execute_CacheMissThenWrite(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cfg := DefaultConfig()

	redisMock.ExpectGet(cfg.CacheKey).RedisNil()
	cached, _ := json.Marshal([]string{"555-0100", "555-0101", "555-0102", "5550103", "555-0104"})
	redisMock.ExpectSet(cfg.CacheKey, cached, time.Minute).SetVal("OK")

	h := NewHandler(cfg, newSource(), client, newTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.False(t, output.Cached)
	assert.Len(t, output.Phones, 5)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cfg := DefaultConfig()

	redisMock.ExpectGet(cfg.CacheKey).SetVal(`["555-0999"]`)

	src := newSource()
	src.failures["franchise_leads"] = errors.New("must not be read")
	h := NewHandler(cfg, src, client, newTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.True(t, output.Cached)
	assert.Equal(t, []string{"555-0999"}, output.Phones)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_PartialResultNotCached(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cfg := DefaultConfig()

	redisMock.ExpectGet(cfg.CacheKey).RedisNil()

	src := newSource()
	src.failures["leads"] = errors.New("timeout")
	h := NewHandler(cfg, src, client, newTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.True(t, output.Partial)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheErrorsBypassed(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cfg := DefaultConfig()

	redisMock.ExpectGet(cfg.CacheKey).SetErr(errors.New("connection reset"))
	cached, _ := json.Marshal([]string{"555-0100", "555-0101", "555-0102", "5550103", "555-0104"})
	redisMock.ExpectSet(cfg.CacheKey, cached, time.Minute).SetErr(errors.New("READONLY"))

	h := NewHandler(cfg, newSource(), client, newTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Len(t, output.Phones, 5)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Invalidate(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cfg := DefaultConfig()

	redisMock.ExpectDel(cfg.CacheKey).SetVal(1)
	h := NewHandler(cfg, newSource(), client, newTestLogger(t))
	require.NoError(t, h.Invalidate(context.Background()))

	redisMock.ExpectDel(cfg.CacheKey).SetErr(errors.New("connection reset"))
	assert.Error(t, h.Invalidate(context.Background()))
	assert.NoError(t, redisMock.ExpectationsWereMet())

	uncached := NewHandler(noCacheConfig(), newSource(), nil, newTestLogger(t))
	assert.NoError(t, uncached.Invalidate(context.Background()))
}

// ==========================
// HTTP / Config
// ==========================

func TestHandler_ServeHTTP(t *testing.T) {
	src := newSource()
	src.failures["franchise_leads"] = errors.New("down")
	src.failures["leads"] = errors.New("down")
	h := NewHandler(noCacheConfig(), src, nil, newTestLogger(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/phones", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"phones":[]}`, rec.Body.String())
}

func TestLoadConfig(t *testing.T) {
	c := LoadConfig(config.ExportConfig{CacheTTL: 30000})
	assert.Equal(t, []string{"franchise_leads", "leads"}, c.Collections)
	assert.Equal(t, "phones:export", c.CacheKey)
	assert.Equal(t, 30*time.Second, c.CacheTTL)
	assert.NoError(t, c.Validate())

	c = LoadConfig(config.ExportConfig{Collections: []string{"leads"}, CacheKey: "k"})
	assert.Equal(t, []string{"leads"}, c.Collections)
	assert.Equal(t, time.Duration(0), c.CacheTTL)

	assert.Error(t, (&Config{}).Validate())
}
