// internal/handlers/leads/submit-lead/handler.go
package submitlead

import (
	"context"
	"errors"
	"net/http"

	apperrors "franchise-leads/internal/common/errors"
	httputil "franchise-leads/internal/common/http"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/metrics"
	"franchise-leads/internal/common/validation"
	"franchise-leads/internal/store"
)

const (
	TaskType = "submit-lead"
)

// Handler serves POST /submit: validate, store, then notify in the
// background.
type Handler struct {
	config     *Config
	store      store.Store
	notifier   Notifier
	caches     []CacheInvalidator
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, s store.Store, notifier Notifier, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		store:      s,
		notifier:   notifier,
		logger:     l,
		errHandler: apperrors.NewErrorHandler(l),
	}
}

// WithInvalidators registers caches to drop after every stored lead.
func (h *Handler) WithInvalidators(caches ...CacheInvalidator) *Handler {
	h.caches = append(h.caches, caches...)
	return h
}

// Execute creates exactly one lead for a valid payload. Nothing is written
// when validation fails.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sub, result := validation.ValidateLeadSubmission(input.Payload)
	if !result.Valid {
		metrics.LeadsSubmitted.WithLabelValues("invalid").Inc()
		return nil, result.Err()
	}

	lead, err := h.store.Create(ctx, *sub)
	if err != nil {
		metrics.LeadsSubmitted.WithLabelValues("storage_error").Inc()
		return nil, apperrors.NewStorageFailureError("create lead", err)
	}
	metrics.LeadsSubmitted.WithLabelValues("created").Inc()

	h.logger.Info("lead created", map[string]interface{}{
		"leadId":    lead.ID,
		"cityState": lead.CityState,
	})

	for _, c := range h.caches {
		if err := c.Invalidate(ctx); err != nil {
			h.logger.Warn("cache invalidation failed", map[string]interface{}{
				"leadId": lead.ID,
				"error":  err,
			})
		}
	}

	if h.notifier != nil {
		h.notifier.Dispatch(ctx, *lead)
	}

	return &Output{Success: true, ID: lead.ID}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := httputil.DecodeObject(w, r, h.config.MaxBodyBytes)
	if err != nil {
		metrics.LeadsSubmitted.WithLabelValues("invalid").Inc()
		msg := "invalid request body"
		if errors.Is(err, httputil.ErrBodyTooLarge) || errors.Is(err, httputil.ErrNotAnObject) {
			msg = err.Error()
		}
		h.errHandler.WriteError(w, r, apperrors.NewInvalidRequestError(msg, err))
		return
	}

	output, err := h.Execute(r.Context(), &Input{Payload: payload})
	if err != nil {
		h.errHandler.WriteError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, output)
}
