package reaction

import (
	"errors"
	"log/slog"
	"net/http"

	internal "github.com/akira-ishikawa-jpg/coin-system/internal"
	"github.com/akira-ishikawa-jpg/coin-system/internal/transport"
	"github.com/akira-ishikawa-jpg/coin-system/pkg/logger"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	employeeID := internal.EmployeeIDFromContext(r.Context())
	if employeeID == "" {
		h.Logger.Error("ToggleLike: employee not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	transactionID := chi.URLParam(r, "id")
	result, err := h.Service.Toggle(employeeID, transactionID)
	if err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, ErrTransferNotFound):
		return internal.NewNotFoundError("transfer not found", internal.ErrCodeTransactionNotFound)
	case errors.Is(err, ErrSelfLike):
		return internal.NewValidationError("cannot like your own transfer", internal.ErrCodeSelfLike)
	default:
		return err
	}
}
