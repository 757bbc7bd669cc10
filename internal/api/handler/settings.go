package handler

import (
	"net/http"
	"strconv"

	"github.com/edvin/mailcycle/internal/api/request"
	"github.com/edvin/mailcycle/internal/api/response"
	"github.com/edvin/mailcycle/internal/core"
	"github.com/edvin/mailcycle/internal/model"
	"github.com/edvin/mailcycle/internal/scheduler"
)

type Settings struct {
	svc   *core.SettingsService
	sched *scheduler.Scheduler
	dir   core.Directory
}

func NewSettings(svc *core.SettingsService, sched *scheduler.Scheduler, dir core.Directory) *Settings {
	return &Settings{svc: svc, sched: sched, dir: dir}
}

// TestConnection verifies the directory admin endpoint is reachable with
// the configured credentials.
func (h *Settings) TestConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.dir.TestConnection(r.Context()); err != nil {
		response.WriteError(w, directoryErrorStatus(err), err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetSyncInterval reports the configured cadence and the next planned run.
func (h *Settings) GetSyncInterval(w http.ResponseWriter, r *http.Request) {
	hours, err := h.svc.SyncIntervalHours(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	next, err := h.sched.NextRunTime(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"interval_hours": hours,
		"next_run":       next,
	})
}

// UpdateSyncInterval persists a new cadence and reconciles the schedule.
func (h *Settings) UpdateSyncInterval(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateSyncInterval
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	hours := *req.IntervalHours
	if err := h.svc.Set(r.Context(), model.SettingSyncIntervalHours, strconv.Itoa(hours)); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.sched.Apply(r.Context(), hours); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]int{"interval_hours": hours})
}
