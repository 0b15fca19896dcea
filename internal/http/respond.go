package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/metrics"
	"financas/internal/service"
	"financas/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain errors onto HTTP statuses: validation 422,
// conflicts 409, missing rows 404, bad credentials 401, the rest 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrEmailTaken), errors.Is(err, service.ErrCategoryInUse):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, metrics.ErrNoTransactions):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"url", r.URL.Path)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidType,
		core.ErrInvalidAmount,
		core.ErrInvalidBudget,
		core.ErrInvalidDate,
		core.ErrEmptyDescription,
		core.ErrDescriptionTooLong,
		core.ErrEmptyName,
		core.ErrNameTooLong,
		core.ErrCategoryRequired,
		service.ErrInvalidEmail,
		service.ErrPasswordMismatch,
		auth.ErrPasswordTooShort,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

type userJSON struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserJSON(u core.User) userJSON {
	return userJSON{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

type transactionJSON struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	CategoryID  *int64    `json:"category_id"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Method      string    `json:"method,omitempty"`
	Date        core.Date `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:          t.ID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Location:    t.Location,
		Method:      t.Method,
		Date:        t.Date,
		CreatedAt:   t.CreatedAt,
	}
}

func toTransactionListJSON(ts []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, len(ts))
	for i, t := range ts {
		out[i] = toTransactionJSON(t)
	}
	return out
}

type categoryJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	BudgetCents int64  `json:"budget_cents"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:          c.ID,
		Name:        c.Name,
		BudgetCents: c.Budget.Cents,
		Color:       c.Color,
		Icon:        c.Icon,
	}
}
