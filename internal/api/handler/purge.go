package handler

import (
	"net/http"

	"github.com/edvin/mailcycle/internal/api/request"
	"github.com/edvin/mailcycle/internal/api/response"
	"github.com/edvin/mailcycle/internal/core"
)

type Purge struct {
	svc *core.PurgeService
}

func NewPurge(svc *core.PurgeService) *Purge {
	return &Purge{svc: svc}
}

// Run processes all due purge entries synchronously and returns the
// dispositions. Scheduled processing goes through the worker instead.
func (h *Purge) Run(w http.ResponseWriter, r *http.Request) {
	var req request.RunPurge
	if err := request.DecodeOptional(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Process(r.Context(), req.DryRun)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

// ListQueue returns purge queue entries, optionally filtered by status.
func (h *Purge) ListQueue(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)
	status := r.URL.Query().Get("status")

	entries, hasMore, err := h.svc.ListEntries(r.Context(), status, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	nextCursor := ""
	if hasMore && len(entries) > 0 {
		nextCursor = entries[len(entries)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, entries, nextCursor, hasMore)
}
