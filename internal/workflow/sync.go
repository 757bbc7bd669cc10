package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/mailcycle/internal/activity"
	"github.com/edvin/mailcycle/internal/model"
)

// DirectorySyncWorkflow runs a single reconciliation pass against the
// remote directory. The activity holds a process-wide run lock, so the
// workflow never retries it: a retry would either hit the lock or repeat
// a pass that partially succeeded.
func DirectorySyncWorkflow(ctx workflow.Context, params activity.SyncDirectoryParams) (*model.SyncSummary, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var summary *model.SyncSummary
	err := workflow.ExecuteActivity(ctx, "SyncDirectory", params).Get(ctx, &summary)
	if err != nil {
		return nil, err
	}

	logger := workflow.GetLogger(ctx)
	logger.Info("directory sync finished",
		"total", summary.Total,
		"created", summary.Created,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"errors", summary.Errors,
	)

	return summary, nil
}
