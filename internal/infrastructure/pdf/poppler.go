// Package pdf shells out to poppler's pdftoppm to rasterize PDF pages.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strings"

	"ScanNamer/internal/ports"
	"ScanNamer/pkg/logger"
)

// Rasterizer renders PDF pages through an external poppler install. binDir is
// the directory holding the pdftoppm binary; when empty, PATH lookup applies.
type Rasterizer struct {
	binDir string
	log    *log.Logger
}

var _ ports.Rasterizer = (*Rasterizer)(nil)

// NewRasterizer builds a rasterizer using the poppler install at binDir.
func NewRasterizer(binDir string) *Rasterizer {
	return &Rasterizer{binDir: binDir, log: logger.New("pdftoppm")}
}

// RenderFirstPage writes page one of pdfPath as a JPEG to destPath. Only the
// first page matters for naming, so first and last page are both pinned to 1.
func (r *Rasterizer) RenderFirstPage(ctx context.Context, pdfPath, destPath string) error {
	// pdftoppm appends ".jpg" itself with -singlefile.
	out := strings.TrimSuffix(destPath, filepath.Ext(destPath))

	cmd := exec.CommandContext(ctx, r.binary(),
		"-f", "1", "-l", "1", "-jpeg", "-singlefile", pdfPath, out)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pdftoppm %s: %w: %s",
			filepath.Base(pdfPath), err, strings.TrimSpace(stderr.String()))
	}

	// pdftoppm reports recoverable syntax warnings on stderr even on success.
	if msg := strings.TrimSpace(stderr.String()); msg != "" && r.log != nil {
		r.log.Printf("%s", msg)
	}

	return nil
}

func (r *Rasterizer) binary() string {
	if r.binDir == "" {
		return "pdftoppm"
	}
	return filepath.Join(r.binDir, "pdftoppm")
}
