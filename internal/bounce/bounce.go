// Package bounce produces simulated liveness verdicts for email addresses.
//
// The verdict is a deterministic placeholder for a real verification call:
// nothing here touches the network.
package bounce

import (
	"context"
	"strings"
	"time"
	"unicode/utf16"

	"go.uber.org/zap"

	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/types"
)

// DefaultDelay is the simulated latency of one check.
const DefaultDelay = 100 * time.Millisecond

// Checker returns a verdict for one address. Implementations must not block
// past ctx and report failures as types.StatusUnknown instead of panicking.
type Checker interface {
	Check(ctx context.Context, email string) types.BounceStatus
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, email string) types.BounceStatus

func (f CheckerFunc) Check(ctx context.Context, email string) types.BounceStatus { return f(ctx, email) }

var bounceMarkers = []string{"bounce", "invalid", "test"}

// Verdict is the deterministic policy behind Simulated, without the delay.
func Verdict(email string) types.BounceStatus {
	for _, m := range bounceMarkers {
		if strings.Contains(email, m) {
			return types.StatusBounced
		}
	}
	if CharCodeSum(email)%10 == 0 {
		return types.StatusBounced
	}
	return types.StatusValid
}

// CharCodeSum sums the UTF-16 code units of s.
func CharCodeSum(s string) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(s)) {
		sum += int(u)
	}
	return sum
}

// Simulated waits Delay and then applies Verdict.
type Simulated struct {
	Delay time.Duration
}

func (s Simulated) Check(ctx context.Context, email string) types.BounceStatus {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return types.StatusUnknown
		case <-t.C:
		}
	}
	return Verdict(email)
}

// Guard wraps c so that a panic or an out-of-range verdict becomes
// types.StatusUnknown. Every verdict it returns is counted in metrics.
func Guard(c Checker, log *zap.Logger) Checker {
	if log == nil {
		log = zap.NewNop()
	}
	return &guard{next: c, log: log}
}

type guard struct {
	next Checker
	log  *zap.Logger
}

func (g *guard) Check(ctx context.Context, email string) (st types.BounceStatus) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Warn("bounce check panicked", zap.Any("panic", r))
			st = types.StatusUnknown
		}
		znmetrics.BounceChecks.WithLabelValues(string(st)).Inc()
	}()
	st = g.next.Check(ctx, email)
	switch st {
	case types.StatusValid, types.StatusBounced, types.StatusUnknown:
	default:
		st = types.StatusUnknown
	}
	return st
}
