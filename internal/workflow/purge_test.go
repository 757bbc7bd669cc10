package workflow

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"

	"github.com/edvin/mailcycle/internal/activity"
	"github.com/edvin/mailcycle/internal/model"
)

type PurgeQueueWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *PurgeQueueWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	registerActivities(s.env)
}

func (s *PurgeQueueWorkflowTestSuite) AfterTest(suiteName, testName string) {
	s.env.AssertExpectations(s.T())
}

func (s *PurgeQueueWorkflowTestSuite) TestSuccess() {
	params := activity.ProcessPurgeQueueParams{}
	result := &model.PurgeResult{Processed: 3, Purged: 2, Skipped: 1}

	s.env.OnActivity("ProcessPurgeQueue", mock.Anything, params).Return(result, nil)

	s.env.ExecuteWorkflow(PurgeQueueWorkflow, params)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var got *model.PurgeResult
	s.NoError(s.env.GetWorkflowResult(&got))
	s.Equal(2, got.Purged)
	s.Equal(1, got.Skipped)
}

func (s *PurgeQueueWorkflowTestSuite) TestDryRun() {
	params := activity.ProcessPurgeQueueParams{DryRun: true}
	result := &model.PurgeResult{Processed: 1, Purged: 1, DryRun: true}

	s.env.OnActivity("ProcessPurgeQueue", mock.Anything, params).Return(result, nil)

	s.env.ExecuteWorkflow(PurgeQueueWorkflow, params)
	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var got *model.PurgeResult
	s.NoError(s.env.GetWorkflowResult(&got))
	s.True(got.DryRun)
}

func (s *PurgeQueueWorkflowTestSuite) TestProcessFails() {
	params := activity.ProcessPurgeQueueParams{}

	s.env.OnActivity("ProcessPurgeQueue", mock.Anything, params).
		Return(nil, fmt.Errorf("db error"))

	s.env.ExecuteWorkflow(PurgeQueueWorkflow, params)
	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
}

func TestPurgeQueueWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(PurgeQueueWorkflowTestSuite))
}
