// Package pipeline turns parsed combo records into a ProcessingResult:
// provider aggregation followed by batched bounce checks with progress.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/isp-sorter/internal/bounce"
	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/provider"
	"github.com/yourorg/isp-sorter/internal/types"
)

// DefaultBatchSize caps the number of bounce checks in flight.
const DefaultBatchSize = 10

// ProgressFunc receives the completed percentage (0-100) and a status line.
// Calls are advisory; percent never decreases within one run.
type ProgressFunc func(percent int, status string)

type Orchestrator struct {
	checker   bounce.Checker
	batchSize int
	log       *zap.Logger
}

type Option func(*Orchestrator)

// WithBatchSize overrides DefaultBatchSize. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// New returns an Orchestrator checking addresses with c. A nil c uses the
// simulated checker with its default delay.
func New(c bounce.Checker, opts ...Option) *Orchestrator {
	o := &Orchestrator{batchSize: DefaultBatchSize, log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if c == nil {
		c = bounce.Simulated{Delay: bounce.DefaultDelay}
	}
	o.checker = bounce.Guard(c, o.log)
	return o
}

// Process classifies and bounce-checks records. The input slice is not
// modified; the result holds its own copy with statuses filled in.
//
// Batches run one after another and the checks inside a batch run
// concurrently. The only error is ctx.Err() when ctx ends before the last
// batch has joined; no partial result is returned.
func (o *Orchestrator) Process(ctx context.Context, records []types.EmailRecord, progress ProgressFunc) (types.ProcessingResult, error) {
	start := time.Now()
	if progress == nil {
		progress = func(int, string) {}
	}

	counts := Aggregate(records)

	all := make([]types.EmailRecord, len(records))
	copy(all, records)
	total := len(all)

	var summary types.BounceSummary
	processed := 0
	for lo := 0; lo < total; lo += o.batchSize {
		if err := ctx.Err(); err != nil {
			return types.ProcessingResult{}, err
		}
		hi := min(lo+o.batchSize, total)

		// Each goroutine owns all[i] and nothing else. Receiving every
		// completion below is the batch join.
		finished := make(chan struct{}, hi-lo)
		for i := lo; i < hi; i++ {
			go func() {
				all[i].BounceStatus = o.checker.Check(ctx, all[i].Email)
				finished <- struct{}{}
			}()
		}
		for range hi - lo {
			<-finished
			processed++
			progress(processed*100/total, fmt.Sprintf("Checking email %d/%d", processed, total))
		}

		for i := lo; i < hi; i++ {
			summary.Add(all[i].BounceStatus)
		}
		o.log.Debug("batch checked", zap.Int("from", lo), zap.Int("to", hi), zap.Int("total", total))
	}
	// Checks interrupted by ctx report unknown; that is not a result.
	if err := ctx.Err(); err != nil {
		return types.ProcessingResult{}, err
	}

	elapsed := time.Since(start)
	znmetrics.PipelineSeconds.Observe(elapsed.Seconds())
	o.log.Info("pipeline complete",
		zap.Int("records", total),
		zap.Int("providers", len(counts)),
		zap.Int("valid", summary.Valid),
		zap.Int("bounced", summary.Bounced),
		zap.Int("unknown", summary.Unknown),
		zap.Duration("elapsed", elapsed))

	return types.ProcessingResult{
		ProviderCounts: counts,
		TotalCount:     total,
		AllRecords:     all,
		BounceSummary:  summary,
	}, nil
}

// Aggregate counts records per provider tag, largest first. Equal counts
// keep the order in which their tags first appeared.
func Aggregate(records []types.EmailRecord) []types.ProviderCount {
	idx := make(map[string]int)
	out := make([]types.ProviderCount, 0, 8)
	for _, r := range records {
		tag := provider.Classify(r.Email)
		i, ok := idx[tag]
		if !ok {
			i = len(out)
			idx[tag] = i
			out = append(out, types.ProviderCount{Name: tag, Color: provider.Color(tag)})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
