package workflow

import (
	"path"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/isp-sorter/internal/types"
)

// ComboSortWorkflow analyzes one uploaded combo file and writes the
// filtered email export described by p.
func ComboSortWorkflow(ctx workflow.Context, p types.WorkflowParams) (types.SortStats, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 1 * time.Hour,
		HeartbeatTimeout:    1 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	if p.ScratchSubdir == "" {
		p.ScratchSubdir = "run-" + workflow.GetInfo(ctx).WorkflowExecution.RunID
	}
	if !p.KeepScratch {
		defer func() {
			// Runs on failure too, so use a context that survives cancellation.
			dctx, _ := workflow.NewDisconnectedContext(ctx)
			_ = workflow.ExecuteActivity(dctx, "Activities.CleanupScratch", types.CleanupParams{ScratchSubdir: p.ScratchSubdir}).Get(dctx, nil)
		}()
	}

	var an types.AnalyzeResult
	if err := workflow.ExecuteActivity(ctx, "Activities.AnalyzeCombos", p).Get(ctx, &an); err != nil {
		return types.SortStats{}, err
	}

	ep := types.ExportParams{
		SnapshotURI:    an.SnapshotURI,
		OutURI:         p.OutputURI,
		ManifestURI:    manifestPath(p.OutputURI),
		Providers:      p.Providers,
		IncludeBounced: p.IncludeBounced,
		Analyze:        an,
	}
	var ex types.ExportStats
	if err := workflow.ExecuteActivity(ctx, "Activities.ExportFiltered", ep).Get(ctx, &ex); err != nil {
		return types.SortStats{}, err
	}
	return types.SortStats{Analyze: an, Export: ex}, nil
}

func manifestPath(out string) string {
	// a directory gets manifest.json inside it; "x.txt" becomes "x.manifest.json"
	if out == "" {
		return ""
	}
	if strings.HasSuffix(out, "/") {
		return out + "manifest.json"
	}
	dir, file := path.Split(out)
	return dir + strings.TrimSuffix(file, ".txt") + ".manifest.json"
}
