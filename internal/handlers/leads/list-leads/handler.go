// internal/handlers/leads/list-leads/handler.go
package listleads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "franchise-leads/internal/common/errors"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/models"
	"franchise-leads/internal/store"
)

const (
	TaskType = "list-leads"
)

// Handler serves GET /admin/leads. It assumes the admin gate already ran.
type Handler struct {
	config     *Config
	store      store.Store
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, s store.Store, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      s,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	page, err := h.store.List(ctx, store.ListOptions{Limit: input.Limit, Cursor: input.Cursor})
	if err != nil {
		if errors.Is(err, store.ErrInvalidCursor) {
			return nil, apperrors.NewInvalidRequestError("invalid cursor", err)
		}
		return nil, apperrors.NewStorageFailureError("list leads", err)
	}

	items := page.Items
	if items == nil {
		items = []models.Lead{}
	}

	h.logger.Debug("leads listed", map[string]interface{}{
		"count":   len(items),
		"limit":   input.Limit,
		"hasMore": page.NextCursor != "",
	})

	return &Output{Items: items, NextCursor: page.NextCursor}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	input, err := h.parseInput(r)
	if err != nil {
		h.errHandler.WriteError(w, r, err)
		return
	}

	output, err := h.Execute(r.Context(), input)
	if err != nil {
		h.errHandler.WriteError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, output)
}

func (h *Handler) parseInput(r *http.Request) (*Input, error) {
	q := r.URL.Query()
	input := &Input{Cursor: q.Get("cursor")}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > h.config.MaxLimit {
			return nil, apperrors.NewInvalidRequestError(
				fmt.Sprintf("limit must be an integer between 1 and %d", h.config.MaxLimit), err)
		}
		input.Limit = limit
	}
	return input, nil
}
