package activities

import (
	"github.com/yourorg/isp-sorter/internal/bounce"
	"github.com/yourorg/isp-sorter/internal/pipeline"
)

type Config struct {
	ScratchDir string
	// Checker defaults to the simulated checker with its default delay.
	Checker   bounce.Checker
	BatchSize int
}

type Activities struct {
	cfg Config
}

func New(cfg Config) *Activities { return &Activities{cfg: cfg} }

func (a *Activities) orchestrator() *pipeline.Orchestrator {
	return pipeline.New(a.cfg.Checker, pipeline.WithBatchSize(a.cfg.BatchSize))
}
