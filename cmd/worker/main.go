package main

import (
	"log"
	"os"

	tactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/yourorg/isp-sorter/internal/activities"
	"github.com/yourorg/isp-sorter/internal/bounce"
	"github.com/yourorg/isp-sorter/internal/config"
	znmetrics "github.com/yourorg/isp-sorter/internal/metrics"
	"github.com/yourorg/isp-sorter/internal/workflow"
)

func main() {
	cfg := config.FromEnv()
	// Ensure scratch dir exists and is writable
	_ = os.MkdirAll(cfg.ScratchDir, 0o777)

	zl := config.NewLogger(cfg.LogLevel)
	defer zl.Sync()

	// Metrics server
	znmetrics.Init()
	go func() {
		_ = znmetrics.Serve(cfg.MetricsAddr)
	}()

	var checker bounce.Checker = bounce.Simulated{Delay: cfg.BounceDelay}
	if cfg.BounceCacheDir != "" {
		cache, err := bounce.OpenCache(cfg.BounceCacheDir, checker, zl)
		if err != nil {
			log.Fatal("bounce cache:", err)
		}
		defer cache.Close()
		checker = cache
	}

	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress, Namespace: cfg.TemporalNamespace})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	acts := activities.New(activities.Config{ScratchDir: cfg.ScratchDir, Checker: checker})
	// Register activities with explicit names matching workflow.ExecuteActivity calls
	w.RegisterActivityWithOptions(acts.AnalyzeCombos, tactivity.RegisterOptions{Name: "Activities.AnalyzeCombos"})
	w.RegisterActivityWithOptions(acts.ExportFiltered, tactivity.RegisterOptions{Name: "Activities.ExportFiltered"})
	w.RegisterActivityWithOptions(acts.CleanupScratch, tactivity.RegisterOptions{Name: "Activities.CleanupScratch"})
	w.RegisterWorkflow(workflow.ComboSortWorkflow)

	zl.Info("worker started",
		zap.String("namespace", cfg.TemporalNamespace),
		zap.String("taskQueue", cfg.TaskQueue),
		zap.String("tmp", cfg.ScratchDir),
		zap.String("metrics", cfg.MetricsAddr),
		zap.Bool("cache", cfg.BounceCacheDir != ""))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}
