package http

import (
	"encoding/json"
	"net/http"

	"financas/internal/metrics"
	"financas/internal/service"
)

type categoryRequest struct {
	Name   string `json:"name"`
	Budget string `json:"budget"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
}

func (req categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:   req.Name,
		Budget: req.Budget,
		Color:  req.Color,
		Icon:   req.Icon,
	}
}

type categoryStatJSON struct {
	categoryJSON
	SpentCents int64 `json:"spent_cents"`
}

// handleListCategories returns categories with their derived lifetime spend.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	snap, err := s.ledger.Snapshot(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stats := metrics.EnrichCategories(snap.Categories, snap.Transactions)
	out := make([]categoryStatJSON, len(stats))
	for i, st := range stats {
		out[i] = categoryStatJSON{
			categoryJSON: toCategoryJSON(st.Category),
			SpentCents:   st.Spent.Cents,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.ledger.CreateCategory(r.Context(), currentUser(r).ID, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryJSON(created))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.ledger.UpdateCategory(r.Context(), currentUser(r).ID, id, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryJSON(updated))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid category id")
		return
	}

	if err := s.ledger.DeleteCategory(r.Context(), currentUser(r).ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
