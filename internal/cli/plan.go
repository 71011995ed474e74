package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/gifrecipe/internal/config"
	"github.com/ivlev/gifrecipe/internal/job"
	"github.com/ivlev/gifrecipe/internal/recipe"
	"github.com/ivlev/gifrecipe/internal/source"
)

func newPlanCmd() *cobra.Command {
	var frames int
	var recipePath string
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "plan [job]",
		Short: "Print the normalized composite plan of a job as YAML",
		Long: `Plan resolves the job's recipe into one list of composite elements per
output frame. The source is opened only to count its frames; pass --frames to
skip it. With --recipe a bare recipe file is planned instead of a job; it has
no source, so --frames is required.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			if recipePath != "" {
				if len(args) != 0 {
					return fmt.Errorf("--recipe and a job file are mutually exclusive")
				}
				if frames <= 0 {
					return fmt.Errorf("--recipe needs --frames")
				}
				r, err := recipe.ReadFile(recipePath)
				if err != nil {
					return err
				}
				plan, err := recipe.Normalize(r, frames)
				if err != nil {
					return err
				}
				return writePlan(cmd, plan)
			}
			if len(args) != 1 {
				return fmt.Errorf("plan needs a job file or --recipe")
			}

			j, err := job.ReadJob(args[0])
			if err != nil {
				return err
			}

			n := frames
			if n <= 0 {
				n, err = countFrames(j.Source, cfg)
				if err != nil {
					return err
				}
			}
			logger.Debug("planning", "job", j.Label(), "source_frames", n)

			var plan recipe.Plan
			if j.IsStill() {
				images, err := recipe.ResolveStill(&j.Recipe, n)
				if err != nil {
					return err
				}
				plan.Frames = []recipe.PlanFrame{{Images: images}}
			} else {
				plan, err = recipe.Normalize(&j.Recipe, n)
				if err != nil {
					return err
				}
			}

			return writePlan(cmd, plan)
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "source frame count; the source is not opened when set")
	cmd.Flags().StringVarP(&recipePath, "recipe", "r", "", "plan a bare recipe file (YAML or TOML)")
	cmd.Flags().IntVar(&cfg.DPI, "dpi", cfg.DPI, "rasterization DPI for PDF sources")
	return cmd
}

func writePlan(cmd *cobra.Command, plan recipe.Plan) error {
	out, err := recipe.EncodePlan(plan)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func countFrames(path string, cfg *config.Config) (int, error) {
	src, err := source.Open(path, source.Options{DPI: cfg.DPI, Delay: cfg.Delay})
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()
	return src.FrameCount(), nil
}
