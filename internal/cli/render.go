package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/gifrecipe/internal/config"
	"github.com/ivlev/gifrecipe/internal/engine"
	"github.com/ivlev/gifrecipe/internal/job"
	"github.com/ivlev/gifrecipe/internal/system"
)

func newRenderCmd() *cobra.Command {
	cfg := config.Default()
	cfg.Workers = system.DefaultWorkers()

	cmd := &cobra.Command{
		Use:   "render <job>...",
		Short: "Run job files and write their outputs",
		Long: `Render reads each job file (YAML or TOML), applies its recipe to the
source animation and writes the result. Jobs run concurrently; a source shared
by several jobs is decoded once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateWorkers(cfg.Workers); err != nil {
				return err
			}
			logger := loggerFromContext(cmd.Context())
			cfg.BuildVersion = version
			system.InitResourceLimits(logger)

			jobs := make([]*job.Job, 0, len(args))
			for _, path := range args {
				j, err := job.ReadJob(path)
				if err != nil {
					return err
				}
				jobs = append(jobs, j)
			}

			p, err := engine.NewProject(cfg, logger)
			if err != nil {
				return err
			}

			start := time.Now()
			results, err := p.RunAll(cmd.Context(), jobs)
			if err != nil {
				return err
			}
			frames := 0
			for _, r := range results {
				frames += r.OutputFrames
			}
			logger.Infof("rendered %d job(s), %d frame(s) (%s)", len(results), frames, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "jobs rendered concurrently")
	f.IntVar(&cfg.DPI, "dpi", cfg.DPI, "rasterization DPI for PDF sources")
	f.IntVar(&cfg.Delay, "delay", cfg.Delay, "frame delay in 1/100 s for sources without timing")
	f.IntVar(&cfg.CacheSize, "cache", cfg.CacheSize, "decoded sources kept in memory (0 disables)")
	f.BoolVar(&cfg.ShowStats, "stats", false, "log per-job timing")
	f.StringVar(&cfg.StatsFile, "stats-file", "", "append per-job timing to this file (with --stats)")
	return cmd
}

func validateWorkers(n int) error {
	if n < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", n)
	}
	return nil
}
