// Package ocr turns cropped sheet regions into text through a pluggable
// recognizer. Two production engines are provided: a local Tesseract engine
// and a remote engine that forwards crops to a hosted pretrained model.
package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"
)

// Recognizer converts an image buffer into text.
//
// Implementations must be safe to call repeatedly with the same engine state
// and must not mutate it; the same image yields the same text.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	Name() string
}

// RecognizerFunc adapts a plain function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image) (string, error)

func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}

func (f RecognizerFunc) Name() string { return "func" }

// Engine names accepted by New.
const (
	EngineTesseract = "tesseract"
	EngineRemote    = "remote"
)

// DefaultModel is the pretrained handwriting model requested from remote engines.
const DefaultModel = "microsoft/trocr-base-handwritten"

// Config selects and tunes an engine.
type Config struct {
	Engine string

	// Tesseract
	Language   string
	Whitelist  string
	PageSeg    int
	Preprocess string
	MinHeight  int

	// Remote
	InferenceURL string
	Model        string
	Timeout      time.Duration
}

// New builds the recognizer named by cfg.Engine.
func New(cfg Config) (Recognizer, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", EngineTesseract:
		return NewTesseract(TesseractConfig{
			Language:   cfg.Language,
			Whitelist:  cfg.Whitelist,
			PageSeg:    cfg.PageSeg,
			Preprocess: cfg.Preprocess,
			MinHeight:  cfg.MinHeight,
		})
	case EngineRemote:
		return NewRemote(RemoteConfig{
			URL:     cfg.InferenceURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
}

// Recognize runs rec on img, returning "" for nil or zero-area images without
// invoking the engine. Engine errors are wrapped with ErrInference and the
// output passes through CleanText.
func Recognize(ctx context.Context, rec Recognizer, img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := rec.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInference, rec.Name(), err)
	}
	return CleanText(text), nil
}

// Static is a deterministic recognizer for tests: it answers with the text
// registered for the image size, or Default.
type Static struct {
	BySize  map[image.Point]string
	Default string
	Err     error
	Calls   int
}

func (s *Static) Name() string { return "static" }

func (s *Static) Recognize(_ context.Context, img image.Image) (string, error) {
	s.Calls++
	if s.Err != nil {
		return "", s.Err
	}
	if t, ok := s.BySize[img.Bounds().Size()]; ok {
		return t, nil
	}
	return s.Default, nil
}
