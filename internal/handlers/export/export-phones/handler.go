// internal/handlers/export/export-phones/handler.go
package exportphones

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	apperrors "franchise-leads/internal/common/errors"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "export-phones"
)

// Handler serves GET /phones. It assumes the API key gate already ran.
type Handler struct {
	config *Config
	source DocumentSource
	cache  redis.Cmdable
	logger logger.Logger
}

// NewHandler accepts a nil cache, which disables caching.
func NewHandler(config *Config, source DocumentSource, cache redis.Cmdable, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		source: source,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute never fails: an unreadable collection contributes no phones.
func (h *Handler) Execute(ctx context.Context, _ *Input) (*Output, error) {
	if phones, ok := h.readCache(ctx); ok {
		return &Output{Phones: phones, Cached: true}, nil
	}

	results := make([][]map[string]interface{}, len(h.config.Collections))
	failed := make([]bool, len(h.config.Collections))

	var wg sync.WaitGroup
	for i, collection := range h.config.Collections {
		wg.Add(1)
		go func(i int, collection string) {
			defer wg.Done()
			docs, err := h.source.Documents(ctx, collection)
			if err != nil {
				failed[i] = true
				metrics.PhoneExportSourceFailures.WithLabelValues(collection).Inc()
				h.logger.Warn("phone export source unavailable", map[string]interface{}{
					"collection": collection,
					"error":      err,
				})
				return
			}
			results[i] = docs
		}(i, collection)
	}
	wg.Wait()

	partial := false
	for _, f := range failed {
		partial = partial || f
	}

	phones := collectPhones(results)
	if !partial {
		h.writeCache(ctx, phones)
	}

	h.logger.Debug("phones exported", map[string]interface{}{
		"count":   len(phones),
		"partial": partial,
	})
	return &Output{Phones: phones, Partial: partial}, nil
}

// collectPhones unions phone values across document sets in first-seen
// order.
func collectPhones(sets [][]map[string]interface{}) []string {
	seen := make(map[string]struct{})
	phones := []string{}
	for _, docs := range sets {
		for _, doc := range docs {
			phone := extractPhone(doc)
			if phone == "" {
				continue
			}
			if _, dup := seen[phone]; dup {
				continue
			}
			seen[phone] = struct{}{}
			phones = append(phones, phone)
		}
	}
	return phones
}

func extractPhone(doc map[string]interface{}) string {
	for _, field := range phoneFields {
		var s string
		switch v := doc[field].(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			s = v.String()
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (h *Handler) readCache(ctx context.Context) ([]string, bool) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return nil, false
	}

	val, err := h.cache.Get(ctx, h.config.CacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.PhoneExportCache.WithLabelValues("miss").Inc()
		} else {
			metrics.PhoneExportCache.WithLabelValues("error").Inc()
			h.logger.Warn("phone export cache read failed", map[string]interface{}{"error": err})
		}
		return nil, false
	}

	var phones []string
	if err := json.Unmarshal([]byte(val), &phones); err != nil || phones == nil {
		metrics.PhoneExportCache.WithLabelValues("error").Inc()
		return nil, false
	}
	metrics.PhoneExportCache.WithLabelValues("hit").Inc()
	return phones, true
}

func (h *Handler) writeCache(ctx context.Context, phones []string) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(phones)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, h.config.CacheKey, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("phone export cache write failed", map[string]interface{}{"error": err})
	}
}

// Invalidate drops the cached export so the next request reads the store.
func (h *Handler) Invalidate(ctx context.Context) error {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return nil
	}
	return h.cache.Del(ctx, h.config.CacheKey).Err()
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	output, err := h.Execute(r.Context(), &Input{})
	if err != nil {
		apperrors.NewErrorHandler(h.logger).WriteError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, output)
}
