// Package prepare turns candidate files into images a vision model can read.
// Each supported extension maps to one preparer strategy.
package prepare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ScanNamer/internal/domain"
	"ScanNamer/internal/ports"
)

// Preparer captures a single preparation strategy for a set of extensions.
type Preparer interface {
	Extensions() []string
	Prepare(ctx context.Context, path string) (domain.PreparedImage, error)
}

// Registry keeps a mapping from lowercase file extensions to preparers.
type Registry struct {
	preparers map[string]Preparer
}

var _ ports.ImagePreparer = (*Registry)(nil)

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{preparers: map[string]Preparer{}}
}

// Register adds or replaces the preparer for each extension it claims.
func (r *Registry) Register(p Preparer) {
	if r.preparers == nil {
		r.preparers = map[string]Preparer{}
	}
	for _, ext := range p.Extensions() {
		r.preparers[strings.ToLower(ext)] = p
	}
}

// Supported reports whether a preparer is registered for the path's extension.
func (r *Registry) Supported(path string) bool {
	_, ok := r.preparers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Prepare resolves the preparer by extension and runs it. Unsupported
// extensions are filtered upstream, so hitting one here is a wiring bug.
func (r *Registry) Prepare(ctx context.Context, path string) (domain.PreparedImage, error) {
	p, ok := r.preparers[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return domain.PreparedImage{}, fmt.Errorf("no preparer registered for %s", filepath.Ext(path))
	}
	return p.Prepare(ctx, path)
}

// Passthrough serves raster images the model can consume directly. The
// original file is aliased, never copied or deleted.
type Passthrough struct{}

// Extensions lists the image types passed through unchanged.
func (Passthrough) Extensions() []string {
	return []string{".png", ".jpg", ".jpeg"}
}

// Prepare returns the original path with no temporary artifact.
func (Passthrough) Prepare(_ context.Context, path string) (domain.PreparedImage, error) {
	return domain.PreparedImage{ImagePath: path}, nil
}

// PDFPreparer rasterizes page one of a PDF to a temporary JPEG owned by the
// pipeline run.
type PDFPreparer struct {
	rasterizer ports.Rasterizer
	tmpDir     string
}

// NewPDFPreparer builds a preparer writing temporaries under tmpDir
// (os.TempDir when empty).
func NewPDFPreparer(rasterizer ports.Rasterizer, tmpDir string) *PDFPreparer {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &PDFPreparer{rasterizer: rasterizer, tmpDir: tmpDir}
}

// Extensions claims PDF inputs.
func (p *PDFPreparer) Extensions() []string {
	return []string{".pdf"}
}

// Prepare renders the first page to a JPEG whose name carries the process id,
// so concurrent instances never collide on the same temporary file.
func (p *PDFPreparer) Prepare(ctx context.Context, path string) (domain.PreparedImage, error) {
	dest := filepath.Join(p.tmpDir, fmt.Sprintf("scannamer_%d.jpg", os.Getpid()))
	if err := p.rasterizer.RenderFirstPage(ctx, path, dest); err != nil {
		return domain.PreparedImage{}, fmt.Errorf("rasterize %s: %w", filepath.Base(path), err)
	}
	return domain.PreparedImage{ImagePath: dest, Temporary: true}, nil
}
