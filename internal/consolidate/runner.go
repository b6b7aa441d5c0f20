package consolidate

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bandboard/internal/adapters/export"
	"github.com/okian/bandboard/pkg/logger"
)

// Run collects the inputs, consolidates them and writes the export bundle.
func Run(ctx context.Context, cfg *Config, opts ...Option) (*Result, error) {
	start := time.Now()
	c := New(opts...)

	exporter, err := export.NewExporter(cfg.Format)
	if err != nil {
		return nil, err
	}

	files, err := CollectInputs(cfg.Inputs)
	if err != nil {
		return nil, err
	}
	c.logger.Info(ctx, "starting consolidation",
		logger.Int("files", len(files)),
		logger.String("output", cfg.Output),
		logger.String("format", exporter.Extension()))

	res, err := c.Consolidate(ctx, files)
	if err != nil {
		return res, err
	}

	c.logger.Info(ctx, "consolidation finished",
		logger.Int("competitions", len(res.Competitions)),
		logger.Int("skipped", len(res.Skipped)),
		logger.Duration("took", time.Since(start)))

	if cfg.DryRun {
		return res, nil
	}
	if err := export.WriteFile(cfg.Output, exporter, res.Competitions); err != nil {
		return res, fmt.Errorf("export failed: %w", err)
	}
	return res, nil
}
