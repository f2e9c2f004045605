package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// convertHEIC converts HEIC/HEIF bytes to PNG through an external converter
// binary, since no pure-Go decoder exists for the format. Supported
// converters: heif-convert, magick, sips. An empty converter name means the
// deployment opted out of HEIC support.
func (a *Acquirer) convertHEIC(ctx context.Context, content []byte) ([]byte, error) {
	if a.cfg.HeicConverter == "" {
		return nil, fmt.Errorf("HEIC input but no converter configured (set OCR_HEIC_CONVERTER to heif-convert, magick, or sips)")
	}

	tmpDir, err := os.MkdirTemp("", "extract-heic-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "input.heic")
	out := filepath.Join(tmpDir, "page.png")
	if err := os.WriteFile(in, content, 0o600); err != nil {
		return nil, fmt.Errorf("write temp input: %w", err)
	}

	switch a.cfg.HeicConverter {
	case "heif-convert":
		if _, errb, err := a.runner.Run(ctx, "heif-convert", a.logger, in, out); err != nil {
			return nil, fmt.Errorf("heif-convert: %w (%s)", err, truncateStderr(string(errb)))
		}
	case "magick":
		if _, errb, err := a.runner.Run(ctx, "magick", a.logger, in, out); err != nil {
			return nil, fmt.Errorf("magick: %w (%s)", err, truncateStderr(string(errb)))
		}
	case "sips":
		if _, errb, err := a.runner.Run(ctx, "sips", a.logger, "-s", "format", "png", in, "--out", out); err != nil {
			return nil, fmt.Errorf("sips: %w (%s)", err, truncateStderr(string(errb)))
		}
	default:
		return nil, fmt.Errorf("unknown HEIC converter %q", a.cfg.HeicConverter)
	}

	png, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read converted output: %w", err)
	}
	return png, nil
}
