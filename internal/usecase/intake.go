package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ScanNamer/internal/domain"
	"ScanNamer/internal/naming"
	"ScanNamer/internal/ports"
)

// IntakeDeps wires all collaborators into the per-file pipeline.
type IntakeDeps struct {
	Stability ports.StabilityWaiter
	Preparer  ports.ImagePreparer
	Oracle    ports.NameOracle
	Logger    *slog.Logger

	// Progress receives the live ticker and result lines (default os.Stdout).
	Progress io.Writer
	// StabilityTimeout caps the settle wait per file (default 30s).
	StabilityTimeout time.Duration
	// TickInterval sets how often elapsed time is printed (default 1s).
	TickInterval time.Duration
}

// Intake drives one file through the pipeline: stability wait, image
// preparation, model query, sanitize, rename, cleanup. Runs are strictly
// sequential; no stage is revisited and there are no retries across stages.
type Intake struct {
	stability ports.StabilityWaiter
	preparer  ports.ImagePreparer
	oracle    ports.NameOracle
	logger    *slog.Logger
	progress  io.Writer
	timeout   time.Duration
	tick      time.Duration
}

// NewIntake constructs the orchestration component.
func NewIntake(deps IntakeDeps) *Intake {
	progress := deps.Progress
	if progress == nil {
		progress = os.Stdout
	}
	timeout := deps.StabilityTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tick := deps.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Intake{
		stability: deps.Stability,
		preparer:  deps.Preparer,
		oracle:    deps.Oracle,
		logger:    logger,
		progress:  progress,
		timeout:   timeout,
		tick:      tick,
	}
}

// Process runs the full pipeline for one intake event. Every per-file failure
// is logged and swallowed here, so one bad file never stops the watch loop.
func (in *Intake) Process(ctx context.Context, event domain.IntakeEvent) {
	path := event.Path

	// The file may already have been renamed by an earlier sweep entry.
	if _, err := os.Stat(path); err != nil {
		return
	}

	if !in.stability.Wait(ctx, path, in.timeout) {
		in.logger.Warn("file is still changing or locked, skipping",
			"path", path, "stage", domain.StageStabilizing, "timeout", in.timeout)
		return
	}

	start := time.Now()

	img, err := in.preparer.Prepare(ctx, path)
	if err != nil {
		in.logger.Error("prepare image",
			"path", path, "stage", domain.StagePreparing, "error", err)
		return
	}
	defer in.cleanup(img)

	raw, err := in.propose(ctx, path, img.ImagePath)
	if err != nil {
		in.logger.Error("query naming model",
			"path", path, "stage", domain.StageQuerying, "error", err)
		return
	}

	res := naming.Sanitize(raw)
	if res.Rejected {
		in.logger.Warn("model returned unusable name, skipping",
			"path", path, "stage", domain.StageSanitizing, "raw", raw, "reason", res.Reason)
		return
	}

	target := naming.EnsureUnique(naming.TargetPath(path, res.Name))
	if err := os.Rename(path, target); err != nil {
		in.logger.Error("rename",
			"path", path, "stage", domain.StageRenaming, "target", target, "error", err)
		return
	}
	result := domain.RenameResult{NewPath: target}

	fmt.Fprintf(in.progress, "[OK] renamed to %s (%.1fs)\n",
		filepath.Base(result.NewPath), time.Since(start).Seconds())
	in.logger.Info("file renamed",
		"from", filepath.Base(path), "to", filepath.Base(result.NewPath), "stage", domain.StageDone)
}

// propose issues the model request while a background ticker prints elapsed
// seconds. The ticker is cancelled and joined before the result is used, so
// progress output never interleaves with the result line.
func (in *Intake) propose(ctx context.Context, path, imagePath string) (string, error) {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(in.tick)
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fmt.Fprintf(in.progress, "\r[...] processing %s... %ds",
					filepath.Base(path), int(time.Since(start).Seconds()))
			}
		}
	}()

	raw, err := in.oracle.ProposeName(ctx, imagePath)

	close(stop)
	<-done
	fmt.Fprint(in.progress, "\r")

	return raw, err
}

// cleanup removes the temporary rasterized page, if any. The pipeline run
// owns it for success and failure alike; removal failures are logged only.
func (in *Intake) cleanup(img domain.PreparedImage) {
	if !img.Temporary {
		return
	}
	if err := os.Remove(img.ImagePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		in.logger.Warn("remove temporary image", "path", img.ImagePath, "error", err)
	}
}
