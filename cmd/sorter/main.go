// Command sorter groups a local or S3 combo file by email provider and
// writes the filtered address list without passwords.
//
//	sorter -in combos.txt -out exports/ -providers gmail,yahoo -include-bounced=false
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/isp-sorter/internal/bounce"
	"github.com/yourorg/isp-sorter/internal/combo"
	"github.com/yourorg/isp-sorter/internal/config"
	"github.com/yourorg/isp-sorter/internal/filter"
	iopkg "github.com/yourorg/isp-sorter/internal/iopkg"
	"github.com/yourorg/isp-sorter/internal/pipeline"
	"github.com/yourorg/isp-sorter/internal/types"
)

type options struct {
	in             string
	out            string
	providers      string
	includeBounced bool
	delay          time.Duration
	batch          int
	cacheDir       string
}

func main() {
	cfg := config.FromEnv()
	var o options
	flag.StringVar(&o.in, "in", "", "input combo file (path, file:// or s3:// URI; .gz is decompressed)")
	flag.StringVar(&o.out, "out", "./", "output file URI, or a directory ending in / for a generated name")
	flag.StringVar(&o.providers, "providers", "all", "comma-separated providers to export")
	flag.BoolVar(&o.includeBounced, "include-bounced", true, "export addresses the bounce check marked bounced")
	flag.DurationVar(&o.delay, "delay", cfg.BounceDelay, "simulated per-address check latency")
	flag.IntVar(&o.batch, "batch", pipeline.DefaultBatchSize, "concurrent checks per batch")
	flag.StringVar(&o.cacheDir, "cache", cfg.BounceCacheDir, "badger directory for cached verdicts (empty disables)")
	flag.Parse()

	zl := config.NewLogger(cfg.LogLevel)
	defer zl.Sync()

	if o.in == "" {
		flag.Usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := run(ctx, o, zl)
	if err != nil {
		zl.Error("sort failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(stats.OutURI)
}

func run(ctx context.Context, o options, zl *zap.Logger) (types.ExportStats, error) {
	rc, _, err := iopkg.OpenText(ctx, o.in)
	if err != nil {
		return types.ExportStats{}, fmt.Errorf("open %s: %w", o.in, err)
	}
	recs, st, err := combo.ParseReader(rc)
	rc.Close()
	if err != nil {
		return types.ExportStats{}, fmt.Errorf("read %s: %w", o.in, err)
	}
	zl.Info("parsed", zap.Int("lines", st.Lines), zap.Int("accepted", st.Accepted), zap.Int("dropped", st.Dropped))
	if len(recs) == 0 {
		return types.ExportStats{}, types.ErrNoRecords
	}

	var checker bounce.Checker = bounce.Simulated{Delay: o.delay}
	if o.cacheDir != "" {
		cache, err := bounce.OpenCache(o.cacheDir, checker, zl)
		if err != nil {
			return types.ExportStats{}, fmt.Errorf("bounce cache: %w", err)
		}
		defer cache.Close()
		checker = cache
	}

	last := -10
	orch := pipeline.New(checker, pipeline.WithBatchSize(o.batch), pipeline.WithLogger(zl))
	res, err := orch.Process(ctx, recs, func(percent int, status string) {
		if percent/10 != last/10 {
			last = percent
			zl.Info("progress", zap.Int("percent", percent), zap.String("status", status))
		}
	})
	if err != nil {
		return types.ExportStats{}, err
	}
	for _, pc := range res.ProviderCounts {
		zl.Info("provider", zap.String("name", pc.Name), zap.Int("count", pc.Count))
	}
	zl.Info("bounce summary",
		zap.Int("valid", res.BounceSummary.Valid),
		zap.Int("bounced", res.BounceSummary.Bounced),
		zap.Int("unknown", res.BounceSummary.Unknown))

	crit := filter.Criteria{Providers: filter.ParseProviders(o.providers), IncludeBounced: o.includeBounced}
	emails := crit.Apply(res.AllRecords)
	if len(emails) == 0 {
		return types.ExportStats{}, types.ErrNothingToExport
	}
	return export(ctx, o.out, emails)
}

// export writes emails to out, generating a filename when out names a
// directory.
func export(ctx context.Context, out string, emails []string) (types.ExportStats, error) {
	if isDir(out) {
		if !strings.HasSuffix(out, "/") {
			out += "/"
		}
		out += filter.ExportFilename(time.Now())
	}
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
	return types.ExportStats{OutURI: out, Emitted: len(emails)}, nil
}

func isDir(uri string) bool {
	if strings.HasSuffix(uri, "/") {
		return true
	}
	p, ok := iopkg.LocalPath(uri)
	if !ok {
		return false
	}
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}
