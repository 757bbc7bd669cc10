package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/edvin/mailcycle/internal/activity"
	"github.com/edvin/mailcycle/internal/workflow"
)

// ScheduleID is the Temporal schedule that drives automatic directory
// syncs. There is exactly one; Apply replaces it wholesale.
const ScheduleID = "auto-sync"

// Scheduler reconciles the automatic sync schedule with the persisted
// interval setting.
type Scheduler struct {
	tc        temporalclient.Client
	taskQueue string
	logger    zerolog.Logger
}

func New(tc temporalclient.Client, taskQueue string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{tc: tc, taskQueue: taskQueue, logger: logger}
}

// Apply makes the schedule match intervalHours. Zero disables automatic
// syncs. The old schedule is always deleted first so interval changes
// take effect immediately instead of after the previous interval elapses.
func (s *Scheduler) Apply(ctx context.Context, intervalHours int) error {
	handle := s.tc.ScheduleClient().GetHandle(ctx, ScheduleID)
	if err := handle.Delete(ctx); err != nil {
		var notFound *serviceerror.NotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("delete sync schedule: %w", err)
		}
	}

	if intervalHours <= 0 {
		s.logger.Info().Msg("automatic sync disabled")
		return nil
	}

	_, err := s.tc.ScheduleClient().Create(ctx, temporalclient.ScheduleOptions{
		ID: ScheduleID,
		Spec: temporalclient.ScheduleSpec{
			Intervals: []temporalclient.ScheduleIntervalSpec{
				{Every: time.Duration(intervalHours) * time.Hour},
			},
		},
		Action: &temporalclient.ScheduleWorkflowAction{
			ID:        ScheduleID,
			Workflow:  workflow.DirectorySyncWorkflow,
			Args:      []interface{}{activity.SyncDirectoryParams{}},
			TaskQueue: s.taskQueue,
		},
		// A run that would start while the previous one is still going is
		// skipped, and at most one missed run is made up after an outage.
		Overlap:       enumspb.SCHEDULE_OVERLAP_POLICY_SKIP,
		CatchupWindow: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("create sync schedule: %w", err)
	}

	s.logger.Info().Int("interval_hours", intervalHours).Msg("automatic sync schedule applied")
	return nil
}

// NextRunTime returns the next planned automatic sync, or nil when
// automatic syncs are disabled.
func (s *Scheduler) NextRunTime(ctx context.Context) (*time.Time, error) {
	handle := s.tc.ScheduleClient().GetHandle(ctx, ScheduleID)
	desc, err := handle.Describe(ctx)
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("describe sync schedule: %w", err)
	}
	if len(desc.Info.NextActionTimes) == 0 {
		return nil, nil
	}
	next := desc.Info.NextActionTimes[0]
	return &next, nil
}
