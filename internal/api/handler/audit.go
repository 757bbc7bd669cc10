package handler

import (
	"net/http"

	"github.com/edvin/mailcycle/internal/api/request"
	"github.com/edvin/mailcycle/internal/api/response"
	"github.com/edvin/mailcycle/internal/core"
)

type Audit struct {
	svc *core.AuditService
}

func NewAudit(svc *core.AuditService) *Audit {
	return &Audit{svc: svc}
}

// List returns recent audit entries, newest first.
func (h *Audit) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)
	action := r.URL.Query().Get("action")
	targetID := r.URL.Query().Get("target_id")

	logs, err := h.svc.List(r.Context(), action, targetID, p.Limit)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WritePaginated(w, http.StatusOK, logs, "", false)
}
