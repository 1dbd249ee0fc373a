package settings

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	internal "github.com/akira-ishikawa-jpg/coin-system/internal"
	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport"
	"github.com/akira-ishikawa-jpg/coin-system/pkg/logger"
)

// Recorder is satisfied by the audit service.
type Recorder interface {
	Record(ctx context.Context, action string, actorID string, payload map[string]interface{}) error
}

type Handler struct {
	*transport.BaseHandler
	Service  *Service
	recorder Recorder
}

func NewHandler(service *Service, recorder Recorder) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		recorder:    recorder,
	}
}

// GetPolicy returns the live policy snapshot.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, h.Service.CurrentPolicy())
}

type updatePolicyDTO struct {
	WeeklyAllowance *int `json:"weekly_allowance,omitempty"`
	MaxTransferSize *int `json:"max_transfer_size,omitempty"`
}

// UpdatePolicy changes the weekly allowance and/or the per-transfer cap.
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	actorID := internal.EmployeeIDFromContext(r.Context())

	var dto updatePolicyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.WeeklyAllowance == nil && dto.MaxTransferSize == nil {
		h.WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	changes := map[string]interface{}{}

	if dto.WeeklyAllowance != nil {
		if *dto.WeeklyAllowance <= 0 {
			h.WriteError(w, http.StatusBadRequest, "weekly_allowance must be positive")
			return
		}
		if err := h.Service.UpdateWeeklyAllowance(*dto.WeeklyAllowance); err != nil {
			h.HandleServiceError(w, err)
			return
		}
		changes["weekly_allowance"] = *dto.WeeklyAllowance
	}

	if dto.MaxTransferSize != nil {
		if *dto.MaxTransferSize <= 0 {
			h.WriteError(w, http.StatusBadRequest, "max_transfer_size must be positive")
			return
		}
		if err := h.Service.UpdateMaxTransferSize(*dto.MaxTransferSize); err != nil {
			h.HandleServiceError(w, err)
			return
		}
		changes["max_transfer_size"] = *dto.MaxTransferSize
	}

	if err := h.recorder.Record(r.Context(), audit.ActionPolicyChanged, actorID, changes); err != nil {
		h.Logger.Error("audit write for policy change failed", "error", err)
	}

	h.WriteJSON(w, http.StatusOK, h.Service.CurrentPolicy())
}
