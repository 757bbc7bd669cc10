package handler

import (
	"errors"
	"net/http"

	"go.temporal.io/api/serviceerror"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/mailcycle/internal/activity"
	"github.com/edvin/mailcycle/internal/api/request"
	"github.com/edvin/mailcycle/internal/api/response"
	"github.com/edvin/mailcycle/internal/core"
	"github.com/edvin/mailcycle/internal/scheduler"
)

// syncWorkflowID is fixed so that starting a second manual sync while one
// is running fails with an already-started error instead of racing it.
const syncWorkflowID = "directory-sync"

type Sync struct {
	svc       *core.SyncService
	tc        temporalclient.Client
	taskQueue string
	sched     *scheduler.Scheduler
}

func NewSync(svc *core.SyncService, tc temporalclient.Client, taskQueue string, sched *scheduler.Scheduler) *Sync {
	return &Sync{svc: svc, tc: tc, taskQueue: taskQueue, sched: sched}
}

// Trigger starts a reconciliation run in the background.
func (h *Sync) Trigger(w http.ResponseWriter, r *http.Request) {
	var req request.TriggerSync
	if err := request.DecodeOptional(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.tc.ExecuteWorkflow(r.Context(), temporalclient.StartWorkflowOptions{
		ID:        syncWorkflowID,
		TaskQueue: h.taskQueue,
	}, "DirectorySyncWorkflow", activity.SyncDirectoryParams{
		Domain: req.Domain,
		DryRun: req.DryRun,
	})
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			response.WriteError(w, http.StatusConflict, "a sync run is already in progress")
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{
		"workflow_id": run.GetID(),
		"run_id":      run.GetRunID(),
	})
}

// ListRuns returns recent sync runs, newest first.
func (h *Sync) ListRuns(w http.ResponseWriter, r *http.Request) {
	p := request.ParsePagination(r)

	runs, err := h.svc.ListRuns(r.Context(), p.Limit)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WritePaginated(w, http.StatusOK, runs, "", false)
}

// Status reports the most recent run and the next scheduled one.
func (h *Sync) Status(w http.ResponseWriter, r *http.Request) {
	last, err := h.svc.LastRun(r.Context())
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
		"last_run":      last,
		"next_auto_run": next,
	})
}
