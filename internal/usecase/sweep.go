package usecase

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"ScanNamer/internal/domain"
	"ScanNamer/internal/naming"
	"ScanNamer/internal/ports"
)

// SweepDeps wires the one-time scan of pre-existing files.
type SweepDeps struct {
	Dir      string
	Intake   *Intake
	Preparer ports.ImagePreparer
	Logger   *slog.Logger

	// In and Out carry the interactive selection prompt (default stdin/stdout).
	In  io.Reader
	Out io.Writer
}

// Sweep lists unprocessed files already sitting in the watch directory and
// lets the operator choose which ones to pipeline before watching starts.
type Sweep struct {
	dir      string
	intake   *Intake
	preparer ports.ImagePreparer
	logger   *slog.Logger
	in       io.Reader
	out      io.Writer
}

// NewSweep constructs the sweep component.
func NewSweep(deps SweepDeps) *Sweep {
	in := deps.In
	if in == nil {
		in = os.Stdin
	}
	out := deps.Out
	if out == nil {
		out = os.Stdout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweep{
		dir:      deps.Dir,
		intake:   deps.Intake,
		preparer: deps.Preparer,
		logger:   logger,
		in:       in,
		out:      out,
	}
}

// Run presents the candidates and pipelines the operator's selection, one
// file at a time.
func (s *Sweep) Run(ctx context.Context) error {
	candidates, err := s.candidates()
	if err != nil {
		return fmt.Errorf("list watch directory: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	fmt.Fprintf(s.out, "\nFound %d unprocessed file(s):\n", len(candidates))
	for i, name := range candidates {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, name)
	}
	fmt.Fprint(s.out, "\nEnter numbers to process (e.g. '1,3,5'), 'all', or 'skip': ")

	line, err := bufio.NewReader(s.in).ReadString('\n')
	if err != nil && line == "" {
		// Closed stdin (service manager, piped run): treat as skip so the
		// watcher still starts.
		s.logger.Info("no interactive input, skipping existing files")
		return nil
	}

	selected := Selection(strings.TrimSpace(line), candidates)
	for _, name := range selected {
		s.intake.Process(ctx, domain.IntakeEvent{Path: filepath.Join(s.dir, name)})
	}
	return nil
}

// candidates returns names in the watch directory with supported extensions
// that do not already follow the processed naming convention, sorted for a
// deterministic listing.
func (s *Sweep) candidates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !s.preparer.Supported(name) || naming.Processed(name) {
			continue
		}
		out = append(out, name)
	}

	sort.Strings(out)
	return out, nil
}

// Selection parses the operator's reply: comma-separated 1-based indices,
// "all", or "skip". Junk tokens and out-of-range indices are dropped rather
// than rejected.
func Selection(reply string, candidates []string) []string {
	switch strings.ToLower(reply) {
	case "all":
		return candidates
	case "", "skip":
		return nil
	}

	var picked []string
	for _, tok := range strings.Split(reply, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			continue
		}
		if n < 1 || n > len(candidates) {
			continue
		}
		picked = append(picked, candidates[n-1])
	}
	return picked
}
