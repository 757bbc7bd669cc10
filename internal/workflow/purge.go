package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/edvin/mailcycle/internal/activity"
	"github.com/edvin/mailcycle/internal/model"
)

// PurgeQueueWorkflow processes all due purge queue entries once. Each entry
// is handled independently inside the activity and failed deletions stay
// queued, so the next scheduled run is the retry mechanism.
func PurgeQueueWorkflow(ctx workflow.Context, params activity.ProcessPurgeQueueParams) (*model.PurgeResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var result *model.PurgeResult
	err := workflow.ExecuteActivity(ctx, "ProcessPurgeQueue", params).Get(ctx, &result)
	if err != nil {
		return nil, err
	}

	logger := workflow.GetLogger(ctx)
	logger.Info("purge queue processed",
		"processed", result.Processed,
		"purged", result.Purged,
		"skipped", result.Skipped,
		"errors", result.Errors,
	)

	return result, nil
}
