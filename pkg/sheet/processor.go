// Package sheet extracts the named regions of one scanned grade sheet and
// runs them through a recognizer.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"gradescan/pkg/ocr"
	"gradescan/pkg/regions"
)

// ErrUnknownRegion is returned when a region name is not part of the template.
var ErrUnknownRegion = errors.New("unknown region")

// RegionError reports an inference failure on one region of one file.
type RegionError struct {
	File   string
	Region string
	Err    error
}

func (e *RegionError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("region %s: %v", e.Region, e.Err)
	}
	return fmt.Sprintf("%s: region %s: %v", e.File, e.Region, e.Err)
}

func (e *RegionError) Unwrap() error { return e.Err }

// ExtractionResult is the raw recognized text of the three sheet fields.
type ExtractionResult struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Grade string `json:"grade"`
}

// RegionResult is one recognized region.
type RegionResult struct {
	Name   string         `json:"name"`
	Region regions.Region `json:"region"`
	Text   string         `json:"text"`
	Crop   image.Image    `json:"-"`
}

// Result is the outcome of processing one sheet.
type Result struct {
	File    string         `json:"file"`
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Regions []RegionResult `json:"regions"`
}

// Text returns the recognized text of the named region, or "".
func (r Result) Text(name string) string {
	for _, rr := range r.Regions {
		if rr.Name == name {
			return rr.Text
		}
	}
	return ""
}

// Extraction returns the name, ID and grade texts.
func (r Result) Extraction() ExtractionResult {
	return ExtractionResult{
		Name:  r.Text(regions.NameRegion),
		ID:    r.Text(regions.IDRegion),
		Grade: r.Text(regions.GradeRegion),
	}
}

// Processor ties a template to a recognizer. It holds no per-image state.
type Processor struct {
	rec  ocr.Recognizer
	tmpl regions.Template
	log  *zap.SugaredLogger
}

// NewProcessor builds a Processor. A nil logger discards output.
func NewProcessor(rec ocr.Recognizer, tmpl regions.Template, log *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Processor{rec: rec, tmpl: tmpl, log: log}
}

// Template returns the region template in use.
func (p *Processor) Template() regions.Template { return p.tmpl }

// Recognizer returns the engine in use.
func (p *Processor) Recognizer() ocr.Recognizer { return p.rec }

// Load decodes the image at path; the file is closed before Load returns.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// ProcessFile loads path and processes every template region.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Result, error) {
	img, err := Load(path)
	if err != nil {
		return Result{}, err
	}
	return p.process(ctx, filepath.Base(path), img)
}

// Process runs every template region of an already decoded image.
func (p *Processor) Process(ctx context.Context, img image.Image) (Result, error) {
	return p.process(ctx, "", img)
}

func (p *Processor) process(ctx context.Context, file string, img image.Image) (Result, error) {
	b := img.Bounds()
	res := Result{File: file, Width: b.Dx(), Height: b.Dy()}
	for _, n := range regions.Compute(p.tmpl, b.Dx(), b.Dy()) {
		rr, err := p.recognize(ctx, file, img, n)
		if err != nil {
			return Result{}, err
		}
		res.Regions = append(res.Regions, rr)
	}
	return res, nil
}

func (p *Processor) recognize(ctx context.Context, file string, img image.Image, n regions.Named) (RegionResult, error) {
	crop := regions.Crop(img, n.Region)
	rr := RegionResult{Name: n.Name, Region: n.Region, Crop: crop}
	if regions.IsEmptyImage(crop) {
		p.log.Debugw("empty region, no text available", "file", file, "region", n.Name, "bounds", n.Region)
		return rr, nil
	}
	text, err := ocr.Recognize(ctx, p.rec, crop)
	if err != nil {
		return RegionResult{}, &RegionError{File: file, Region: n.Name, Err: err}
	}
	rr.Text = text
	p.log.Debugw("region recognized", "file", file, "region", n.Name, "engine", p.rec.Name(), "text", text)
	return rr, nil
}

// RegionText loads path and recognizes only the named region.
func (p *Processor) RegionText(ctx context.Context, path, name string) (RegionResult, error) {
	img, err := Load(path)
	if err != nil {
		return RegionResult{}, err
	}
	b := img.Bounds()
	r, ok := p.tmpl.Region(name, b.Dx(), b.Dy())
	if !ok {
		return RegionResult{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownRegion, name, p.tmpl.Names())
	}
	return p.recognize(ctx, filepath.Base(path), img, regions.Named{Name: name, Region: r})
}
