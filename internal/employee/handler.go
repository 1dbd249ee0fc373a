package employee

import (
	"encoding/json"
	"errors"
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

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	actorID := internal.EmployeeIDFromContext(r.Context())

	var dto CreateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateEmployee: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	emp, err := h.Service.Create(r.Context(), actorID, dto)
	if err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusCreated, emp)
}

func (h *Handler) BulkCreateEmployees(w http.ResponseWriter, r *http.Request) {
	actorID := internal.EmployeeIDFromContext(r.Context())

	var dto BulkCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("BulkCreateEmployees: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(dto.Employees) == 0 {
		h.WriteError(w, http.StatusBadRequest, "employees must not be empty")
		return
	}

	result := h.Service.BulkCreate(r.Context(), actorID, dto)
	status := http.StatusCreated
	if len(result.Created) == 0 {
		status = http.StatusBadRequest
	} else if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	h.WriteJSON(w, status, result)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, emp)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	includeInactive := r.URL.Query().Get("include_inactive") == "true"

	employees, err := h.Service.List(includeInactive, limit, offset)
	if err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"employees": employees,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actorID := internal.EmployeeIDFromContext(r.Context())

	var dto UpdateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateRole: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.UpdateRole(r.Context(), actorID, chi.URLParam(r, "id"), dto); err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	actorID := internal.EmployeeIDFromContext(r.Context())

	if err := h.Service.Deactivate(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

func (h *Handler) GrantBonus(w http.ResponseWriter, r *http.Request) {
	actorID := internal.EmployeeIDFromContext(r.Context())

	var dto GrantBonusDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("GrantBonus: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Service.GrantBonus(r.Context(), actorID, chi.URLParam(r, "id"), dto); err != nil {
		h.HandleServiceError(w, mapDomainError(err))
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "granted"})
}

func mapDomainError(err error) error {
	switch {
	case errors.Is(err, ErrEmployeeNotFound):
		return internal.NewNotFoundError("employee not found", internal.ErrCodeEmployeeNotFound)
	case errors.Is(err, ErrDuplicateEmail):
		return internal.NewConflictError("email already registered", internal.ErrCodeDuplicateEmail)
	case errors.Is(err, ErrInvalidRole):
		return internal.NewValidationError("role must be user or admin", internal.ErrCodeValidationFailed)
	default:
		return err
	}
}
