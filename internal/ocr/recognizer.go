package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer converts pixel data into text under a given segmentation
// assumption. It is a serially-reusable resource: passes for a single
// document run sequentially against one instance; separate documents may use
// separate instances to parallelize.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, mode SegMode) (text string, confidence float64, err error)
	Close() error
}

// TesseractRecognizer wraps a gosseract client.
type TesseractRecognizer struct {
	client *gosseract.Client
}

// NewTesseractRecognizer builds a recognizer for the given language string
// (e.g. "eng+rus").
func NewTesseractRecognizer(languages string) (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if languages != "" {
		if err := client.SetLanguage(strings.Split(languages, "+")...); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set languages %q: %w", languages, err)
		}
	}
	return &TesseractRecognizer{client: client}, nil
}

// Recognize runs one pass. The reported confidence is the mean word-level
// confidence in 0..1, or 0 when the engine reports none.
func (r *TesseractRecognizer) Recognize(ctx context.Context, image []byte, mode SegMode) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if err := r.client.SetPageSegMode(gosseract.PageSegMode(mode.PSM)); err != nil {
		return "", 0, fmt.Errorf("set segmentation mode %s: %w", mode.Name, err)
	}
	if err := r.client.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("set image: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("recognize (%s): %w", mode.Name, err)
	}

	var conf float64
	if boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			sum += b.Confidence
		}
		conf = sum / float64(len(boxes)) / 100.0
		if conf > 1 {
			conf = 1
		}
	}
	return strings.TrimSpace(text), conf, nil
}

func (r *TesseractRecognizer) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
