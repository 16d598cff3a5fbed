package sheet

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"gradescan/pkg/inventory"
)

// Sample is a file picked from the inventory by index.
type Sample struct {
	Index int
	Name  string
}

// SelectSamples keeps the indices that exist in names, in the given order.
// Out-of-range indices are skipped.
func SelectSamples(names []string, indices []int) []Sample {
	out := make([]Sample, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(names) {
			continue
		}
		out = append(out, Sample{Index: i, Name: names[i]})
	}
	return out
}

// Extraction is the printed outcome of one sample.
type Extraction struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	ExtractionResult
}

// Runner processes inventory samples one after another and prints results.
type Runner struct {
	Proc       *Processor
	Dir        string
	Out        io.Writer
	Log        *zap.SugaredLogger
	PreviewDir string
}

func (r *Runner) logger() *zap.SugaredLogger {
	if r.Log == nil {
		return zap.NewNop().Sugar()
	}
	return r.Log
}

// Run extracts every selected sample in order. A nil indices slice processes
// the whole folder. The first failing image stops the run.
func (r *Runner) Run(ctx context.Context, indices []int) ([]Extraction, error) {
	log := r.logger()
	names, err := inventory.List(r.Dir)
	if err != nil {
		return nil, err
	}
	if indices == nil {
		indices = make([]int, len(names))
		for i := range names {
			indices[i] = i
		}
	}
	samples := SelectSamples(names, indices)
	log.Infow("extracting sheets", "dir", r.Dir, "images", len(names), "samples", len(samples), "engine", r.Proc.Recognizer().Name())

	fmt.Fprintln(r.Out, strings.Repeat("=", 70))
	var results []Extraction
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		ex, err := r.One(ctx, s)
		if err != nil {
			return results, err
		}
		results = append(results, ex)
	}
	return results, nil
}

// One processes and prints a single sample.
func (r *Runner) One(ctx context.Context, s Sample) (Extraction, error) {
	fmt.Fprintf(r.Out, "\nProcessing Image #%d: %s\n", s.Index, s.Name)
	path := filepath.Join(r.Dir, s.Name)
	img, err := Load(path)
	if err != nil {
		return Extraction{}, err
	}
	res, err := r.Proc.process(ctx, s.Name, img)
	if err != nil {
		return Extraction{}, err
	}
	ex := Extraction{Index: s.Index, Filename: s.Name, ExtractionResult: res.Extraction()}
	fmt.Fprintf(r.Out, "   Name: %s\n", ex.Name)
	fmt.Fprintf(r.Out, "   ID: %s\n", ex.ID)
	fmt.Fprintf(r.Out, "   Grade: %s\n", ex.Grade)

	if r.PreviewDir != "" {
		out := filepath.Join(r.PreviewDir, strings.TrimSuffix(s.Name, filepath.Ext(s.Name))+".preview.png")
		if err := SavePreview(out, img, res); err != nil {
			return ex, fmt.Errorf("save preview: %w", err)
		}
		r.logger().Debugw("preview written", "file", s.Name, "path", out)
	}
	return ex, nil
}
