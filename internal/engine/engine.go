// Package engine runs jobs end to end: load the source, apply the recipe and
// write the result.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/gifrecipe/internal/compositor"
	"github.com/ivlev/gifrecipe/internal/config"
	"github.com/ivlev/gifrecipe/internal/job"
	"github.com/ivlev/gifrecipe/internal/output"
	"github.com/ivlev/gifrecipe/internal/source"
	"github.com/ivlev/gifrecipe/internal/system"
)

// Project wires the collaborators a run needs. One Project serves any number
// of jobs; sources shared between jobs are decoded once.
type Project struct {
	Config     *config.Config
	Loader     *source.Loader
	Writer     output.Writer
	Compositor *compositor.Compositor
	Logger     *log.Logger
}

// Result describes one finished job.
type Result struct {
	Job          *job.Job
	SourceFrames int
	OutputFrames int
	Load         time.Duration
	Compose      time.Duration
	Write        time.Duration
}

func (r Result) Total() time.Duration {
	return r.Load + r.Compose + r.Write
}

func NewProject(cfg *config.Config, logger *log.Logger) (*Project, error) {
	if logger == nil {
		logger = log.Default()
	}
	loader, err := source.NewLoader(source.Options{DPI: cfg.DPI, Delay: cfg.Delay}, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Project{
		Config:     cfg,
		Loader:     loader,
		Writer:     &output.FileWriter{},
		Compositor: compositor.New(logger),
		Logger:     logger,
	}, nil
}

// Run executes a single job. Nothing is written unless every stage succeeds.
func (p *Project) Run(ctx context.Context, j *job.Job) (Result, error) {
	res := Result{Job: j}
	logger := p.Logger.With("job", j.Label())

	start := time.Now()
	anim, err := p.Loader.Load(j.Source)
	if err != nil {
		return res, fmt.Errorf("load %s: %w", j.Source, err)
	}
	res.Load = time.Since(start)
	res.SourceFrames = anim.FrameCount()
	logger.Debug("source loaded", "path", j.Source, "frames", res.SourceFrames)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	start = time.Now()
	if j.IsStill() {
		img, err := p.Compositor.RenderStill(anim, &j.Recipe)
		if err != nil {
			return res, fmt.Errorf("job %s: %w", j.Label(), err)
		}
		res.Compose = time.Since(start)
		res.OutputFrames = 1

		start = time.Now()
		if err := p.Writer.WriteStill(ctx, j.Output, img); err != nil {
			return res, fmt.Errorf("write %s: %w", j.Output, err)
		}
	} else {
		out, err := p.Compositor.Composite(anim, &j.Recipe)
		if err != nil {
			return res, fmt.Errorf("job %s: %w", j.Label(), err)
		}
		res.Compose = time.Since(start)
		res.OutputFrames = out.FrameCount()

		start = time.Now()
		if err := p.Writer.WriteAnimation(ctx, j.Output, out); err != nil {
			return res, fmt.Errorf("write %s: %w", j.Output, err)
		}
	}
	res.Write = time.Since(start)

	logger.Info("done", "output", j.Output, "frames", res.OutputFrames, "took", res.Total().Round(time.Millisecond))
	if p.Config.ShowStats {
		p.report(res)
	}
	return res, nil
}

// RunAll runs jobs concurrently, at most Config.Workers at a time. The first
// failure cancels the jobs that have not finished; results keep input order.
func (p *Project) RunAll(ctx context.Context, jobs []*job.Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Config.Workers, 1))

	for i, j := range jobs {
		g.Go(func() error {
			res, err := p.Run(ctx, j)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Project) report(res Result) {
	fields := []interface{}{
		"build", p.Config.BuildVersion,
		"source_frames", res.SourceFrames,
		"output_frames", res.OutputFrames,
		"load", res.Load.Round(time.Microsecond),
		"compose", res.Compose.Round(time.Microsecond),
		"write", res.Write.Round(time.Microsecond),
		"cached_sources", p.Loader.Cached(),
	}
	if used, total, err := system.MemoryUsage(); err == nil {
		fields = append(fields, "mem", fmt.Sprintf("%d/%d MiB", used, total))
	}
	p.Logger.Info("stats "+res.Job.Label(), fields...)

	if p.Config.StatsFile == "" {
		return
	}
	entry := fmt.Sprintf("[%s] Build: %s | Job: %s | Source: %s | Frames: %d->%d | Total: %.3fs | Compose: %.3fs | Write: %.3fs\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		res.Job.Label(),
		filepath.Base(res.Job.Source),
		res.SourceFrames,
		res.OutputFrames,
		res.Total().Seconds(),
		res.Compose.Seconds(),
		res.Write.Seconds(),
	)
	f, err := os.OpenFile(p.Config.StatsFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		p.Logger.Warn("cannot write stats file", "path", p.Config.StatsFile, "err", err)
		return
	}
	defer f.Close()
	if _, err := f.WriteString(entry); err != nil {
		p.Logger.Warn("cannot write stats file", "path", p.Config.StatsFile, "err", err)
	}
}
