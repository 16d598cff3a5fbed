package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// TesseractConfig tunes the local Tesseract engine.
type TesseractConfig struct {
	Language   string
	Whitelist  string
	PageSeg    int
	Preprocess string
	MinHeight  int
}

// Tesseract recognizes text with a local Tesseract installation through
// gosseract. A fresh client is created per call; the engine itself holds only
// read-only settings.
type Tesseract struct {
	cfg           TesseractConfig
	clientFactory func() *gosseract.Client
}

// NewTesseract validates cfg and returns the engine.
func NewTesseract(cfg TesseractConfig) (*Tesseract, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PageSeg == 0 {
		cfg.PageSeg = int(gosseract.PSM_SINGLE_LINE)
	}
	if !ValidPreprocess(cfg.Preprocess) {
		return nil, fmt.Errorf("unknown preprocess mode %q", cfg.Preprocess)
	}
	return &Tesseract{cfg: cfg, clientFactory: gosseract.NewClient}, nil
}

func (t *Tesseract) Name() string { return EngineTesseract }

// Recognize preprocesses img, hands the PNG bytes to Tesseract and returns the
// raw text.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	prepared, err := Preprocess(img, t.cfg.Preprocess, t.cfg.MinHeight)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return "", fmt.Errorf("encode crop: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := t.clientFactory()
	defer client.Close()
	if err := client.SetLanguage(t.cfg.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if t.cfg.Whitelist != "" {
		if err := client.SetWhitelist(t.cfg.Whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(t.cfg.PageSeg)); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
