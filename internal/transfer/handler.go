package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

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

func (h *Handler) SendCoins(w http.ResponseWriter, r *http.Request) {
	senderID := internal.EmployeeIDFromContext(r.Context())
	if senderID == "" {
		h.Logger.Error("SendCoins: employee not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SendCoinsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SendCoins: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.SubmitTransfer(r.Context(), senderID, dto, OriginWeb)
	if err != nil {
		h.HandleServiceError(w, MapDomainError(err))
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	h.WriteJSON(w, status, result)
}

func (h *Handler) GetRemaining(w http.ResponseWriter, r *http.Request) {
	employeeID := internal.EmployeeIDFromContext(r.Context())
	if employeeID == "" {
		h.Logger.Error("GetRemaining: employee not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	remaining, err := h.Service.RemainingAllowance(employeeID)
	if err != nil {
		h.HandleServiceError(w, MapDomainError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, remaining)
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	txn, err := h.Service.GetTransfer(id)
	if err != nil {
		h.HandleServiceError(w, MapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, txn)
}

func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	transfers, err := h.Service.ListRecent(limit, offset)
	if err != nil {
		h.HandleServiceError(w, MapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transfers": transfers,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) ListMyTransfers(w http.ResponseWriter, r *http.Request) {
	employeeID := internal.EmployeeIDFromContext(r.Context())
	if employeeID == "" {
		h.Logger.Error("ListMyTransfers: employee not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	transfers, err := h.Service.ListForEmployee(employeeID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, MapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transfers": transfers,
		"limit":     limit,
		"offset":    offset,
	})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// MapDomainError translates transfer domain errors into the API error shape.
// Every surface (web, Slack, admin) goes through this so a given failure
// always produces the same code.
func MapDomainError(err error) error {
	var amountErr *AmountOutOfRangeError
	var quotaErr *QuotaExceededError

	switch {
	case errors.Is(err, ErrUnknownParty):
		return internal.NewValidationError("sender or receiver is not a registered employee", internal.ErrCodeUnknownParty)
	case errors.Is(err, ErrSelfTransfer):
		return internal.NewValidationError("cannot send coins to yourself", internal.ErrCodeSelfTransfer)
	case errors.Is(err, ErrMissingMessage):
		return internal.NewValidationError("a message is required", internal.ErrCodeMissingMessage)
	case errors.As(err, &amountErr):
		return internal.NewValidationError(amountErr.Error(), internal.ErrCodeAmountOutOfRange).
			WithDetails(map[string]int{"max": amountErr.Cap})
	case errors.As(err, &quotaErr):
		return internal.NewValidationError(
			fmt.Sprintf("not enough coins left this week: %d remaining", quotaErr.Remaining),
			internal.ErrCodeQuotaExceeded).
			WithDetails(map[string]int{"remaining": quotaErr.Remaining})
	case errors.Is(err, ErrTransferNotFound):
		return internal.NewNotFoundError("transfer not found", internal.ErrCodeTransactionNotFound)
	case errors.Is(err, ErrStoreUnavailable):
		return internal.NewStoreUnavailableError(err)
	default:
		return err
	}
}
