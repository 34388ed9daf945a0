// internal/handlers/leads/update-lead-status/handler.go
package updateleadstatus

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "franchise-leads/internal/common/errors"
	httputil "franchise-leads/internal/common/http"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/metrics"
	"franchise-leads/internal/common/validation"
	"franchise-leads/internal/store"

	"github.com/go-chi/chi/v5"
)

const (
	TaskType = "update-lead-status"
)

// Handler serves PATCH /admin/leads/{id}. Only the interest status is
// mutable; the value is checked before the store is touched. Responses are
// 200 on success, 400 for a missing id or status outside the enum, 404 when
// no lead has the id and 500 when the store fails. The 401 for a bad admin
// secret comes from the gate in front of the route.
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
	if strings.TrimSpace(input.ID) == "" {
		return nil, apperrors.NewInvalidRequestError("lead id is required", nil)
	}

	status, result := validation.ValidateInterestStatus(input.InterestStatus)
	if !result.Valid {
		metrics.LeadStatusUpdates.WithLabelValues("invalid").Inc()
		return nil, result.Err()
	}

	if err := h.store.UpdateStatus(ctx, input.ID, status); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			metrics.LeadStatusUpdates.WithLabelValues("not_found").Inc()
			return nil, apperrors.NewNotFoundError("lead", input.ID, err)
		case errors.Is(err, store.ErrInvalidStatus):
			metrics.LeadStatusUpdates.WithLabelValues("invalid").Inc()
			return nil, apperrors.NewValidationFailedError([]string{"interestStatus: " + err.Error()})
		default:
			metrics.LeadStatusUpdates.WithLabelValues("storage_error").Inc()
			return nil, apperrors.NewStorageFailureError("update lead status", err)
		}
	}

	metrics.LeadStatusUpdates.WithLabelValues(string(status)).Inc()
	h.logger.Info("lead status updated", map[string]interface{}{
		"leadId":         input.ID,
		"interestStatus": string(status),
	})
	return &Output{Success: true}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := httputil.DecodeObject(w, r, h.config.MaxBodyBytes)
	if err != nil {
		msg := "invalid request body"
		if errors.Is(err, httputil.ErrBodyTooLarge) || errors.Is(err, httputil.ErrNotAnObject) {
			msg = err.Error()
		}
		h.errHandler.WriteError(w, r, apperrors.NewInvalidRequestError(msg, err))
		return
	}

	output, err := h.Execute(r.Context(), &Input{
		ID:             chi.URLParam(r, h.config.IDParam),
		InterestStatus: body["interestStatus"],
	})
	if err != nil {
		h.errHandler.WriteError(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, output)
}
