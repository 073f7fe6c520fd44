package activities

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"

	"github.com/yourorg/isp-sorter/internal/filter"
	iopkg "github.com/yourorg/isp-sorter/internal/iopkg"
	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/provider"
	"github.com/yourorg/isp-sorter/internal/types"
)

// ExportFiltered applies the provider/bounce filter to the snapshot and
// writes the export plus a manifest. An OutURI ending in "/" is treated as
// a directory and gets a timestamped export filename. When nothing passes
// the filter no export is written and OutURI is empty in the result.
func (a *Activities) ExportFiltered(ctx context.Context, p types.ExportParams) (types.ExportStats, error) {
	rc, _, err := iopkg.Open(ctx, p.SnapshotURI)
	if err != nil {
		return types.ExportStats{}, err
	}
	recs, err := readSnapshot(rc)
	rc.Close()
	if err != nil {
		return types.ExportStats{}, err
	}

	crit := filter.Criteria{Providers: p.Providers, IncludeBounced: p.IncludeBounced}
	emails := crit.Apply(recs)

	out := p.OutURI
	if strings.HasSuffix(out, "/") {
		out += filter.ExportFilename(time.Now())
	}
	stats := types.ExportStats{Emitted: len(emails)}
	if len(emails) > 0 {
		w, c, err := iopkg.CreateWriter(ctx, out)
		if err != nil {
			return types.ExportStats{}, err
		}
		if _, err := filter.WriteExport(w, emails); err != nil {
			c.Close()
			return types.ExportStats{}, err
		}
		if err := c.Close(); err != nil {
			return types.ExportStats{}, err
		}
		stats.OutURI = out
		znmetrics.ExportedEmails.Add(float64(len(emails)))
	} else {
		activity.GetLogger(ctx).Warn("Filter matched no emails; export skipped", "providers", p.Providers)
	}

	// manifest
	man := map[string]any{
		"output":          stats.OutURI,
		"manifest":        p.ManifestURI,
		"providers":       p.Providers,
		"include_bounced": p.IncludeBounced,
		"emitted":         stats.Emitted,
		"total":           p.Analyze.TotalCount,
		"parse":           p.Analyze.Parse,
		"provider_counts": p.Analyze.ProviderCounts,
		"bounce_summary":  p.Analyze.BounceSummary,
		"top_domains":     provider.TopDomains(recs, 20),
		"created_at":      time.Now().UTC().Format(time.RFC3339),
	}
	if p.ManifestURI != "" {
		writeManifest(ctx, p.ManifestURI, man)
	}
	return stats, nil
}

// writeManifest is best effort: a missing manifest never fails the export.
func writeManifest(ctx context.Context, uri string, man map[string]any) {
	log := activity.GetLogger(ctx)
	mb, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		log.Warn("Failed to encode manifest", "uri", uri, "error", err)
		return
	}
	mw, cw, err := iopkg.CreateWriter(ctx, uri)
	if err != nil {
		log.Warn("Failed to create manifest", "uri", uri, "error", err)
		return
	}
	if _, err := mw.Write(mb); err != nil {
		log.Warn("Failed to write manifest", "uri", uri, "error", err)
	}
	if err := cw.Close(); err != nil {
		log.Warn("Failed to write manifest", "uri", uri, "error", err)
	}
}
