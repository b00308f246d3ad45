package temporaladapter

import (
	"context"
	"errors"
	"testing"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/workflows"
)

type fakeStarter struct {
	opts client.StartWorkflowOptions
	args []interface{}
	err  error
}

func (f *fakeStarter) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	f.opts = options
	f.args = args
	return nil, f.err
}

func TestScheduler_Schedule(t *testing.T) {
	f := &fakeStarter{}
	s := NewScheduler(f, "")

	req := domain.SiteRequest{PlantType: domain.PlantWind}
	if err := s.Schedule(context.Background(), "abc", req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.opts.ID != "analysis-abc" || f.opts.TaskQueue != workflows.TaskQueue {
		t.Errorf("unexpected options: %+v", f.opts)
	}
	in, ok := f.args[0].(workflows.AnalysisInput)
	if !ok || in.AnalysisID != "abc" || in.Request.PlantType != domain.PlantWind {
		t.Errorf("unexpected input: %+v", f.args)
	}
}

func TestScheduler_ScheduleError(t *testing.T) {
	s := NewScheduler(&fakeStarter{err: errors.New("unavailable")}, "q")
	if err := s.Schedule(context.Background(), "abc", domain.SiteRequest{}); err == nil {
		t.Error("expected error")
	}
}
