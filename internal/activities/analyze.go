package activities

import (
	"context"
	"fmt"
	"path/filepath"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/yourorg/isp-sorter/internal/combo"
	iopkg "github.com/yourorg/isp-sorter/internal/iopkg"
	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/types"
)

const snapshotName = "records.jsonl"

// AnalyzeCombos parses the input file, runs the pipeline and leaves a
// password-free snapshot of the checked records in the scratch dir.
func (a *Activities) AnalyzeCombos(ctx context.Context, p types.WorkflowParams) (types.AnalyzeResult, error) {
	log := activity.GetLogger(ctx)
	log.Info("Starting combo analysis", "inputURI", p.InputURI)

	rc, size, err := iopkg.OpenText(ctx, p.InputURI)
	if err != nil {
		return types.AnalyzeResult{}, fmt.Errorf("failed to open %s: %w", p.InputURI, err)
	}
	defer rc.Close()

	recs, st, err := combo.ParseReader(rc)
	if err != nil {
		return types.AnalyzeResult{}, fmt.Errorf("failed to read %s: %w", p.InputURI, err)
	}
	znmetrics.LinesParsed.Add(float64(st.Lines))
	znmetrics.LinesDropped.Add(float64(st.Dropped))
	if len(recs) == 0 {
		return types.AnalyzeResult{}, temporal.NewNonRetryableApplicationError(types.ErrNoRecords.Error(), "NoRecords", types.ErrNoRecords)
	}
	log.Info("Parsed combo file", "bytes", size, "lines", st.Lines, "accepted", st.Accepted, "dropped", st.Dropped)

	lastPercent := -1
	res, err := a.orchestrator().Process(ctx, recs, func(percent int, status string) {
		if percent == lastPercent {
			return
		}
		lastPercent = percent
		activity.RecordHeartbeat(ctx, map[string]any{"percent": percent, "status": status})
	})
	if err != nil {
		return types.AnalyzeResult{}, err
	}

	path := filepath.Join(a.cfg.ScratchDir, p.ScratchSubdir, snapshotName)
	uri := "file://" + path
	w, c, err := iopkg.CreateWriter(ctx, uri)
	if err != nil {
		return types.AnalyzeResult{}, err
	}
	if err := writeSnapshot(w, res.AllRecords); err != nil {
		c.Close()
		return types.AnalyzeResult{}, err
	}
	if err := c.Close(); err != nil {
		return types.AnalyzeResult{}, err
	}

	log.Info("Completed combo analysis",
		"records", res.TotalCount,
		"valid", res.BounceSummary.Valid,
		"bounced", res.BounceSummary.Bounced,
		"unknown", res.BounceSummary.Unknown)

	return types.AnalyzeResult{
		SnapshotURI:    uri,
		Parse:          st,
		ProviderCounts: res.ProviderCounts,
		TotalCount:     res.TotalCount,
		BounceSummary:  res.BounceSummary,
	}, nil
}
