package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ScanNamer/internal/config"
	"ScanNamer/internal/infrastructure/ollama"
	"ScanNamer/internal/infrastructure/pdf"
	"ScanNamer/internal/infrastructure/watcher"
	"ScanNamer/internal/logging"
	"ScanNamer/internal/ports"
	"ScanNamer/internal/prepare"
	"ScanNamer/internal/stability"
	"ScanNamer/internal/usecase"
)

const unloadTimeout = 10 * time.Second

// Application wires configuration into the intake pipeline and owns the
// watch-loop lifecycle.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	intake   *usecase.Intake
	preparer *prepare.Registry
	oracle   ports.NameOracle
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := prepare.NewRegistry()
	registry.Register(prepare.Passthrough{})
	registry.Register(prepare.NewPDFPreparer(pdf.NewRasterizer(cfg.PDF.PopplerPath), ""))

	oracle := ollama.NewClient(cfg.Ollama)

	intake := usecase.NewIntake(usecase.IntakeDeps{
		Stability:        stability.Detector{},
		Preparer:         registry,
		Oracle:           oracle,
		Logger:           baseLogger.With("component", "intake"),
		StabilityTimeout: cfg.Watch.StabilityTimeout(),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		intake:   intake,
		preparer: registry,
		oracle:   oracle,
	}
}

// Run performs the optional startup sweep, then processes create events until
// ctx is cancelled by an operator interrupt.
func (a *Application) Run(ctx context.Context) error {
	dir := a.cfg.Watch.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}

	if !a.cfg.Watch.SkipSweep {
		sweep := usecase.NewSweep(usecase.SweepDeps{
			Dir:      dir,
			Intake:   a.intake,
			Preparer: a.preparer,
			Logger:   a.logger.With("component", "sweep"),
		})
		if err := sweep.Run(ctx); err != nil {
			return err
		}
	}

	source, err := watcher.New(dir, a.preparer.Supported, a.logger.With("component", "watcher"))
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer source.Close()

	a.logger.Info("watching for new scans", "dir", dir, "model", a.cfg.Ollama.Model)

	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return nil
		case event, ok := <-source.Events():
			if !ok {
				return fmt.Errorf("watcher stopped unexpectedly")
			}
			a.intake.Process(ctx, event)
		}
	}
}

// shutdown asks the model host to free its memory. Best-effort: a failure is
// logged and the process still exits normally.
func (a *Application) shutdown() {
	a.logger.Info("stopping watcher, unloading model", "model", a.cfg.Ollama.Model)

	ctx, cancel := context.WithTimeout(context.Background(), unloadTimeout)
	defer cancel()

	if err := a.oracle.Unload(ctx); err != nil {
		a.logger.Warn("could not unload model", "error", err)
		return
	}
	a.logger.Info("model unloaded")
}
