package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/mailcycle/internal/api/request"
	"github.com/edvin/mailcycle/internal/api/response"
	"github.com/edvin/mailcycle/internal/core"
	"github.com/edvin/mailcycle/internal/zimbra"
)

type Account struct {
	accounts  *core.AccountService
	lifecycle *core.LifecycleService
	bulkOps   *core.BulkOpsService
	dir       core.Directory
}

func NewAccount(accounts *core.AccountService, lifecycle *core.LifecycleService, bulkOps *core.BulkOpsService, dir core.Directory) *Account {
	return &Account{accounts: accounts, lifecycle: lifecycle, bulkOps: bulkOps, dir: dir}
}

func (h *Account) List(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)
	domain := r.URL.Query().Get("domain")
	status := r.URL.Query().Get("status")

	accounts, hasMore, err := h.accounts.List(r.Context(), domain, status, p.Limit, p.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	nextCursor := ""
	if hasMore && len(accounts) > 0 {
		nextCursor = accounts[len(accounts)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, accounts, nextCursor, hasMore)
}

func (h *Account) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, account)
}

func (h *Account) GetByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := request.RequireID(chi.URLParam(r, "email"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.GetByEmail(r.Context(), email)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, account)
}

// Remote fetches the live directory record behind an account, bypassing
// the synced local copy.
func (h *Account) Remote(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	remote, err := h.dir.GetAccount(r.Context(), account.ZimbraID, "id")
	if err != nil {
		var notFound *zimbra.NotFoundError
		if errors.As(err, &notFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, directoryErrorStatus(err), err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, remote)
}

func (h *Account) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.ChangeStatus
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	ok, message, err := h.lifecycle.ChangeStatus(r.Context(), account, req.Status, actorFrom(r), req.Reason)
	if err != nil {
		response.WriteError(w, directoryErrorStatus(err), err.Error())
		return
	}
	if !ok {
		response.WriteError(w, http.StatusConflict, message)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"account": account,
	})
}

func (h *Account) BulkOp(w http.ResponseWriter, r *http.Request) {
	var req request.BulkOp
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.bulkOps.Execute(r.Context(), req.Operation, req.Emails, actorFrom(r), req.Reason)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}
