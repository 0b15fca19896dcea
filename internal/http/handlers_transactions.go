package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"financas/internal/core"
	"financas/internal/metrics"
	"financas/internal/service"
)

type transactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	CategoryID  *int64 `json:"category_id"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Method      string `json:"method"`
	Date        string `json:"date"`
}

func (req transactionRequest) input() service.TransactionInput {
	return service.TransactionInput{
		Type:        req.Type,
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Location:    req.Location,
		Method:      req.Method,
		Date:        req.Date,
	}
}

// parseFilterParams reads the shared filter query parameters used by the
// transaction list, the dashboard and the CSV export.
func parseFilterParams(r *http.Request) metrics.FilterParams {
	q := r.URL.Query()
	params := metrics.FilterParams{
		Date:     metrics.DateFilter(q.Get("date")),
		Type:     metrics.TypeFilter(q.Get("type")),
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if from, err := core.ParseDate(q.Get("from")); err == nil {
		params.From = from
	}
	if to, err := core.ParseDate(q.Get("to")); err == nil {
		params.To = to
	}
	return params
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	snap, err := s.ledger.Snapshot(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filtered := metrics.Filter(snap, parseFilterParams(r), time.Now())
	writeJSON(w, http.StatusOK, toTransactionListJSON(filtered))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), currentUser(r).ID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.ledger.UpdateTransaction(r.Context(), currentUser(r).ID, id, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), currentUser(r).ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportTransactions streams the filtered statement as a CSV download.
func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	snap, err := s.ledger.Snapshot(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	now := time.Now()
	filtered := metrics.Filter(snap, parseFilterParams(r), now)
	data, err := metrics.ExportCSV(filtered, snap.Categories)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+metrics.ExportFilename(now)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
