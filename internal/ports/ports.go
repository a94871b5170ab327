package ports

import (
	"context"
	"time"

	"ScanNamer/internal/domain"
)

// NameOracle asks a vision-capable model for a descriptive filename.
type NameOracle interface {
	ProposeName(ctx context.Context, imagePath string) (string, error)
	Unload(ctx context.Context) error
}

// Rasterizer renders the first page of a PDF to a JPEG at destPath.
type Rasterizer interface {
	RenderFirstPage(ctx context.Context, pdfPath, destPath string) error
}

// StabilityWaiter blocks until a file settles or the timeout passes.
type StabilityWaiter interface {
	Wait(ctx context.Context, path string, timeout time.Duration) bool
}

// ImagePreparer converts a candidate file into something the model can see.
type ImagePreparer interface {
	Prepare(ctx context.Context, path string) (domain.PreparedImage, error)
	Supported(path string) bool
}

// EventSource streams intake events for matching files created in the watch
// directory.
type EventSource interface {
	Events() <-chan domain.IntakeEvent
	Close() error
}
