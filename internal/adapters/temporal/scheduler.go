package temporaladapter

import (
	"context"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/workflows"
)

// Starter is the subset of client.Client used to start workflows.
type Starter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Scheduler implements ports.AnalysisScheduler by starting a
// SiteAnalysisWorkflow per analysis.
type Scheduler struct {
	client    Starter
	taskQueue string
}

func NewScheduler(c Starter, taskQueue string) *Scheduler {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Scheduler{client: c, taskQueue: taskQueue}
}

func (s *Scheduler) Schedule(ctx context.Context, analysisID string, req domain.SiteRequest) error {
	opts := client.StartWorkflowOptions{
		ID:                    workflows.WorkflowID(analysisID),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}
	_, err := s.client.ExecuteWorkflow(ctx, opts, workflows.SiteAnalysisWorkflow, workflows.AnalysisInput{
		AnalysisID: analysisID,
		Request:    req,
	})
	if err != nil {
		return fmt.Errorf("start workflow: %w", err)
	}
	return nil
}

// Dial connects to the Temporal frontend.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}
