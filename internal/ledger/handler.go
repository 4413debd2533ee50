package ledger

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carlosryandeveloper/GenericERP/internal/platform/httpx"
	"github.com/carlosryandeveloper/GenericERP/internal/shared"
)

// Handler exposes stock ledger endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger routes under the caller's prefix.
// Callers must wrap the router with authentication middleware first.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/movements", h.createMovement)
	r.Get("/movements", h.listMovements)
	r.Get("/balance", h.listBalances)
	r.Get("/balance/{productID}", h.balance)
	r.Get("/statement", h.statement)
	r.Get("/statement/export.csv", h.statementCSV)
}

type movementRequest struct {
	ProductID int64   `json:"product_id"`
	Type      string  `json:"type"`
	Quantity  float64 `json:"quantity"`
	Note      string  `json:"note"`
}

func (h *Handler) createMovement(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	created, err := h.service.Append(r.Context(), identity.UserID, AppendInput{
		ProductID: req.ProductID,
		Type:      MovementType(req.Type),
		Quantity:  req.Quantity,
		Note:      req.Note,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := shared.NewPagination(page, perPage, 0)

	movements, err := h.service.Movements(r.Context(), identity.UserID, pagination)
	if err != nil {
		h.logger.Error("list movements", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if movements == nil {
		movements = []Movement{}
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) listBalances(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	balances, err := h.service.Balances(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("list balances", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if balances == nil {
		balances = []Balance{}
	}
	httpx.JSON(w, http.StatusOK, balances)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	balance, err := h.service.Balance(r.Context(), identity.UserID, productID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"product_id": productID, "balance": balance})
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	st, ok := h.buildStatement(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}

func (h *Handler) statementCSV(w http.ResponseWriter, r *http.Request) {
	st, ok := h.buildStatement(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="statement.csv"`)
	if err := WriteStatementCSV(w, st); err != nil {
		h.logger.Error("write statement csv", "error", err)
	}
}

func (h *Handler) buildStatement(w http.ResponseWriter, r *http.Request) (Statement, bool) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return Statement{}, false
	}
	query := r.URL.Query()
	productID, err := strconv.ParseInt(query.Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "product_id is required")
		return Statement{}, false
	}
	fromDate, err := parseDate(query.Get("from_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from_date must be YYYY-MM-DD")
		return Statement{}, false
	}
	toDate, err := parseDate(query.Get("to_date"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "to_date must be YYYY-MM-DD")
		return Statement{}, false
	}
	st, err := h.service.Statement(r.Context(), identity.UserID, productID, fromDate, toDate)
	if err != nil {
		httpx.RespondError(w, err)
		return Statement{}, false
	}
	return st, true
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
