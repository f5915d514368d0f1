package browser

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SaveScreenshot writes a full-page capture of s into dir as <uuid>.png (or .jpg
// when the driver returned a JPEG) and returns its path
func SaveScreenshot(ctx context.Context, s Session, dir string) (string, error) {
	buf, err := s.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+imageExt(buf))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func imageExt(buf []byte) string {
	if http.DetectContentType(buf) == "image/jpeg" {
		return ".jpg"
	}
	return ".png"
}

// Pause waits d unless ctx ends first. Settle delays go through here.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
