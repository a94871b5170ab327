package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ScanNamer/internal/domain"
	"ScanNamer/internal/prepare"
	"ScanNamer/internal/stability"
)

type stubOracle struct {
	name     string
	err      error
	delay    time.Duration
	gotImage string
}

func (s *stubOracle) ProposeName(_ context.Context, imagePath string) (string, error) {
	s.gotImage = imagePath
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.name, s.err
}

func (s *stubOracle) Unload(context.Context) error { return nil }

type fakeRasterizer struct {
	dest string
}

func (f *fakeRasterizer) RenderFirstPage(_ context.Context, _, destPath string) error {
	f.dest = destPath
	return os.WriteFile(destPath, []byte("page one"), 0o644)
}

func newTestIntake(t *testing.T, oracle *stubOracle, raster *fakeRasterizer, logs *bytes.Buffer, progress *bytes.Buffer) *Intake {
	t.Helper()

	registry := prepare.NewRegistry()
	registry.Register(prepare.Passthrough{})
	registry.Register(prepare.NewPDFPreparer(raster, t.TempDir()))

	return NewIntake(IntakeDeps{
		Stability:        stability.Detector{Interval: 2 * time.Millisecond},
		Preparer:         registry,
		Oracle:           oracle,
		Logger:           slog.New(slog.NewTextHandler(logs, nil)),
		Progress:         progress,
		StabilityTimeout: time.Second,
		TickInterval:     5 * time.Millisecond,
	})
}

func TestProcessRenamesStablePNG(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scan0001.png")
	if err := os.WriteFile(path, []byte("png data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	oracle := &stubOracle{name: "2024-03-10 - IRS - Tax Form"}
	var logs, progress bytes.Buffer
	in := newTestIntake(t, oracle, &fakeRasterizer{}, &logs, &progress)

	in.Process(context.Background(), domain.IntakeEvent{Path: path})

	want := filepath.Join(dir, "2024-03-10 - IRS - Tax Form.png")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("renamed file missing: %v\nlogs: %s", err, logs.String())
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("original path still present: %v", err)
	}
	if oracle.gotImage != path {
		t.Fatalf("model saw %s, want the original image %s", oracle.gotImage, path)
	}
	if !strings.Contains(progress.String(), "[OK] renamed to 2024-03-10 - IRS - Tax Form.png") {
		t.Fatalf("missing result line in progress output: %q", progress.String())
	}
}

func TestProcessRenamesPDFAndCleansTemporary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scan0002.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	oracle := &stubOracle{name: "2025-12-23 - FloridaPower - Electric Bill"}
	raster := &fakeRasterizer{}
	var logs, progress bytes.Buffer
	in := newTestIntake(t, oracle, raster, &logs, &progress)

	in.Process(context.Background(), domain.IntakeEvent{Path: path})

	want := filepath.Join(dir, "2025-12-23 - FloridaPower - Electric Bill.pdf")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("renamed file missing: %v\nlogs: %s", err, logs.String())
	}
	if raster.dest == "" {
		t.Fatal("rasterizer was never invoked")
	}
	if oracle.gotImage != raster.dest {
		t.Fatalf("model saw %s, want the rasterized page %s", oracle.gotImage, raster.dest)
	}
	if _, err := os.Stat(raster.dest); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temporary artifact not cleaned up: %v", err)
	}
}

func TestProcessRejectsUnusableName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scan0003.png")
	if err := os.WriteFile(path, []byte("png data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	oracle := &stubOracle{name: "no"}
	var logs, progress bytes.Buffer
	in := newTestIntake(t, oracle, &fakeRasterizer{}, &logs, &progress)

	in.Process(context.Background(), domain.IntakeEvent{Path: path})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file must stay untouched on rejection: %v", err)
	}
	if !strings.Contains(logs.String(), "unusable") {
		t.Fatalf("expected a rejection warning, got: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "raw=no") {
		t.Fatalf("raw model text missing from warning: %s", logs.String())
	}
}

func TestProcessAbortsOnOracleError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scan0004.png")
	if err := os.WriteFile(path, []byte("png data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	oracle := &stubOracle{err: errors.New("connection refused")}
	var logs, progress bytes.Buffer
	in := newTestIntake(t, oracle, &fakeRasterizer{}, &logs, &progress)

	in.Process(context.Background(), domain.IntakeEvent{Path: path})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file must stay untouched on inference failure: %v", err)
	}
	if !strings.Contains(logs.String(), "connection refused") {
		t.Fatalf("inference failure not logged: %s", logs.String())
	}
}

func TestProcessUniquifiesCollidingTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "scan0005.png")
	if err := os.WriteFile(path, []byte("png data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	taken := filepath.Join(dir, "2024-03-10 - IRS - Tax Form.png")
	if err := os.WriteFile(taken, []byte("earlier scan"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	oracle := &stubOracle{name: "2024-03-10 - IRS - Tax Form"}
	var logs, progress bytes.Buffer
	in := newTestIntake(t, oracle, &fakeRasterizer{}, &logs, &progress)

	in.Process(context.Background(), domain.IntakeEvent{Path: path})

	want := filepath.Join(dir, "2024-03-10 - IRS - Tax Form (2).png")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("uniquified file missing: %v\nlogs: %s", err, logs.String())
	}
	if data, err := os.ReadFile(taken); err != nil || string(data) != "earlier scan" {
		t.Fatalf("existing file was clobbered: %v %q", err, data)
	}
}

func TestProcessSkipsVanishedFile(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{name: "2024-03-10 - IRS - Tax Form"}
	var logs, progress bytes.Buffer
	in := newTestIntake(t, oracle, &fakeRasterizer{}, &logs, &progress)

	in.Process(context.Background(), domain.IntakeEvent{Path: filepath.Join(t.TempDir(), "already-renamed.png")})

	if oracle.gotImage != "" {
		t.Fatal("vanished file must not reach the model")
	}
}

func TestProgressTickerStopsBeforeResult(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "slow.png")
	if err := os.WriteFile(path, []byte("png data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	oracle := &stubOracle{name: "2024-03-10 - IRS - Tax Form", delay: 40 * time.Millisecond}
	var logs, progress bytes.Buffer
	in := newTestIntake(t, oracle, &fakeRasterizer{}, &logs, &progress)

	in.Process(context.Background(), domain.IntakeEvent{Path: path})

	out := progress.String()
	if !strings.Contains(out, "[...] processing slow.png") {
		t.Fatalf("ticker output missing: %q", out)
	}

	lastTick := strings.LastIndex(out, "[...]")
	result := strings.Index(out, "[OK]")
	if result == -1 || result < lastTick {
		t.Fatalf("result line must come after the final tick: %q", out)
	}
}
