// Package stability infers write completion by polling. Scanners and network
// shares write incrementally and give no explicit done signal, so acting on a
// freshly created entry risks reading a partial file.
package stability

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"ScanNamer/internal/ports"
)

const readProbeBytes = 1024

// Detector polls a file until its size stops changing and it can be opened
// for read. The zero value polls once per second.
type Detector struct {
	Interval time.Duration
}

var _ ports.StabilityWaiter = Detector{}

// Wait reports whether path settled within timeout. A file counts as stable
// when two consecutive size readings are equal and non-zero and the first KB
// can be read. Stat, open, or read failures only reset the size comparison;
// the loop keeps polling until the deadline.
func (d Detector) Wait(ctx context.Context, path string, timeout time.Duration) bool {
	interval := d.Interval
	if interval <= 0 {
		interval = time.Second
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastSize := int64(-1)
	for {
		if info, err := os.Stat(path); err != nil {
			lastSize = -1
		} else {
			size := info.Size()
			if size == lastSize && size > 0 && readable(path) {
				return true
			}
			lastSize = size
		}

		if !time.Now().Before(deadline) {
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// readable verifies the writer is not still holding an exclusive lock.
func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, readProbeBytes)
	_, err = f.Read(buf)
	return err == nil || errors.Is(err, io.EOF)
}
