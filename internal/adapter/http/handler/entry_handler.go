package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dandoingdev/ledger/internal/adapter/http/dto"
	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/usecase"
)

// EntryHandler handles entry read requests.
type EntryHandler struct {
	queryUC *usecase.EntryQueryUseCase
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(queryUC *usecase.EntryQueryUseCase) *EntryHandler {
	return &EntryHandler{queryUC: queryUC}
}

// ListByAccount lists entries for the account in the URL, newest first.
// Supports direction, days_ago, limit and offset query parameters.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	input := usecase.ListInput{
		Account: ref,
		DaysAgo: parseIntQuery(r, "days_ago", 0),
		Limit:   parseIntQuery(r, "limit", 0),
		Offset:  parseIntQuery(r, "offset", 0),
	}

	if raw := r.URL.Query().Get("direction"); raw != "" {
		direction, ok := domain.ParseDirection(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "direction must be credit or debit", "")
			return
		}

		input.Direction = &direction
	}

	views, err := h.queryUC.List(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromViews(views))
}

// Get returns a single entry owned by the account in the URL.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	entryID := chi.URLParam(r, "entryID")
	if entryID == "" {
		writeError(w, http.StatusBadRequest, "missing entry ID", "")
		return
	}

	view, err := h.queryUC.FindByID(r.Context(), ref, entryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromView(view))
}
