// Command gradescan extracts handwritten names, IDs and grades from scanned
// grade sheets.
//
//	gradescan inventory [-dir D]
//	gradescan extract   [-dir D] [-samples 0,33] [-all] [-preview-dir P]
//	gradescan inspect   [-dir D] [-index 33] [-region grade] [-out crop.png]
//	gradescan preview   [-dir D] [-samples 0,33,100] [-region name] -out DIR
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"gradescan/pkg/config"
	"gradescan/pkg/inventory"
	"gradescan/pkg/logging"
	"gradescan/pkg/ocr"
	"gradescan/pkg/regions"
	"gradescan/pkg/sheet"
)

const usage = `usage: gradescan <command> [flags]

commands:
  inventory   list sheet images with size, color mode and format
  extract     recognize name, ID and grade of the sample sheets
  inspect     recognize one region of one sheet and save the crop
  preview     render previews (or a single region) for sample sheets
`

// exitConfig marks configuration failures; everything else exits with 1.
const exitConfig = 2

type env struct {
	cfg  *config.Config
	log  *zap.SugaredLogger
	tmpl regions.Template
}

// commonFlags registers the flags shared by every subcommand and returns a
// function that finishes setup after parsing.
func commonFlags(fs *flag.FlagSet) func() (*env, error) {
	envFile := fs.String("env", ".env", "dotenv file to load before reading the environment")
	dir := fs.String("dir", "", "image folder (default $GRADESCAN_IMAGE_DIR)")
	tmpl := fs.String("template", "", "YAML region template (default $GRADESCAN_TEMPLATE or the built-in layout)")
	engine := fs.String("engine", "", "recognizer: tesseract or remote (default $GRADESCAN_ENGINE)")
	verbose := fs.Bool("verbose", false, "debug logging")
	return func() (*env, error) {
		if err := config.LoadDotEnv(*envFile); err != nil {
			return nil, err
		}
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if *dir != "" {
			cfg.ImageDir = *dir
		}
		if *tmpl != "" {
			cfg.TemplatePath = *tmpl
		}
		if *engine != "" {
			cfg.Engine = *engine
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		t, err := regions.LoadTemplate(cfg.TemplatePath)
		if err != nil {
			return nil, err
		}
		return &env{cfg: cfg, log: logging.New(*verbose), tmpl: t}, nil
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(exitConfig)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "inventory":
		err = runInventory(os.Args[2:])
	case "extract":
		err = runExtract(ctx, os.Args[2:])
	case "inspect":
		err = runInspect(ctx, os.Args[2:])
	case "preview":
		err = runPreview(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s", os.Args[1], usage)
		os.Exit(exitConfig)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gradescan %s: %v\n", os.Args[1], err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, inventory.ErrImageDirNotFound),
		errors.Is(err, regions.ErrInvalidTemplate),
		errors.Is(err, ocr.ErrUnknownEngine):
		return exitConfig
	}
	return 1
}

func newProcessor(e *env) (*sheet.Processor, error) {
	rec, err := ocr.New(e.cfg.OCR())
	if err != nil {
		return nil, err
	}
	e.log.Infow("recognizer ready", "engine", rec.Name(), "regions", e.tmpl.Names())
	return sheet.NewProcessor(rec, e.tmpl, e.log), nil
}

func runInventory(args []string) error {
	fs := flag.NewFlagSet("inventory", flag.ExitOnError)
	setup := commonFlags(fs)
	_ = fs.Parse(args)
	e, err := setup()
	if err != nil {
		return err
	}
	names, err := inventory.List(e.cfg.ImageDir)
	if err != nil {
		return err
	}
	fmt.Printf("Image folder: %s\n", e.cfg.ImageDir)
	fmt.Printf("Found %d PNG images:\n", len(names))
	for i, n := range names {
		fmt.Printf("%d %s\n", i+1, n)
	}
	for _, n := range names {
		rec, err := inventory.Read(e.cfg.ImageDir, n)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s:\n", rec.Filename)
		fmt.Printf("  Dimensions: %d x %d pixels\n", rec.Width, rec.Height)
		fmt.Printf("  Color mode: %s\n", rec.Mode)
		fmt.Printf("  Format: %s\n", rec.Format)
	}
	return nil
}

func runExtract(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	setup := commonFlags(fs)
	samples := fs.String("samples", "", "comma separated sheet indices (default $GRADESCAN_SAMPLES)")
	all := fs.Bool("all", false, "process every sheet in the folder")
	previewDir := fs.String("preview-dir", "", "write a 2x2 preview per sheet into this folder")
	_ = fs.Parse(args)
	e, err := setup()
	if err != nil {
		return err
	}
	indices, err := sampleIndices(e.cfg, *samples, *all)
	if err != nil {
		return err
	}
	proc, err := newProcessor(e)
	if err != nil {
		return err
	}
	pdir := firstNonEmpty(*previewDir, e.cfg.PreviewDir)
	if pdir != "" {
		if err := os.MkdirAll(pdir, 0o755); err != nil {
			return fmt.Errorf("create preview folder: %w", err)
		}
	}
	r := &sheet.Runner{Proc: proc, Dir: e.cfg.ImageDir, Out: os.Stdout, Log: e.log, PreviewDir: pdir}
	results, err := r.Run(ctx, indices)
	e.log.Infow("extraction finished", "processed", len(results))
	return err
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	setup := commonFlags(fs)
	index := fs.Int("index", 33, "sheet index in the sorted inventory")
	region := fs.String("region", regions.GradeRegion, "region name to recognize")
	out := fs.String("out", "", "save the (3x enlarged) crop to this PNG path")
	_ = fs.Parse(args)
	e, err := setup()
	if err != nil {
		return err
	}
	names, err := inventory.List(e.cfg.ImageDir)
	if err != nil {
		return err
	}
	picked := sheet.SelectSamples(names, []int{*index})
	if len(picked) == 0 {
		return fmt.Errorf("index %d out of range (%d images)", *index, len(names))
	}
	proc, err := newProcessor(e)
	if err != nil {
		return err
	}
	rr, err := proc.RegionText(ctx, filepath.Join(e.cfg.ImageDir, picked[0].Name), *region)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s region %d,%d-%d,%d\n", picked[0].Name, rr.Name, rr.Region.Left, rr.Region.Top, rr.Region.Right, rr.Region.Bottom)
	fmt.Printf("Extracted %s text: '%s'\n", rr.Name, rr.Text)
	if *out != "" {
		if regions.IsEmptyImage(rr.Crop) {
			return fmt.Errorf("region %s is empty, nothing to save", rr.Name)
		}
		b := rr.Crop.Bounds()
		big := imaging.Resize(rr.Crop, 3*b.Dx(), 3*b.Dy(), imaging.NearestNeighbor)
		if err := imaging.Save(big, *out); err != nil {
			return fmt.Errorf("save crop: %w", err)
		}
		e.log.Infow("crop saved", "path", *out)
	}
	return nil
}

func runPreview(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	setup := commonFlags(fs)
	samples := fs.String("samples", "0,33,100", "comma separated sheet indices")
	region := fs.String("region", "", "save only this region's crop instead of a full preview (no OCR)")
	out := fs.String("out", "", "output folder")
	_ = fs.Parse(args)
	e, err := setup()
	if err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("%w: -out is required", config.ErrInvalidConfig)
	}
	indices, err := config.ParseIndices(*samples)
	if err != nil {
		return fmt.Errorf("%w: -samples: %v", config.ErrInvalidConfig, err)
	}
	names, err := inventory.List(e.cfg.ImageDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	var proc *sheet.Processor
	if *region == "" {
		if proc, err = newProcessor(e); err != nil {
			return err
		}
	}
	for _, s := range sheet.SelectSamples(names, indices) {
		img, err := sheet.Load(filepath.Join(e.cfg.ImageDir, s.Name))
		if err != nil {
			return err
		}
		base := strings.TrimSuffix(s.Name, filepath.Ext(s.Name))
		if *region != "" {
			b := img.Bounds()
			r, ok := e.tmpl.Region(*region, b.Dx(), b.Dy())
			if !ok {
				return fmt.Errorf("%w: %q", sheet.ErrUnknownRegion, *region)
			}
			crop := regions.Crop(img, r)
			if regions.IsEmptyImage(crop) {
				e.log.Warnw("empty region, skipped", "file", s.Name, "region", *region)
				continue
			}
			path := filepath.Join(*out, base+"."+*region+".png")
			if err := imaging.Save(crop, path); err != nil {
				return fmt.Errorf("save crop: %w", err)
			}
			fmt.Printf("#%d %s -> %s\n", s.Index, s.Name, path)
			continue
		}
		res, err := proc.Process(ctx, img)
		if err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
		path := filepath.Join(*out, base+".preview.png")
		if err := sheet.SavePreview(path, img, res); err != nil {
			return fmt.Errorf("save preview: %w", err)
		}
		fmt.Printf("#%d %s -> %s\n", s.Index, s.Name, path)
	}
	return nil
}

func sampleIndices(cfg *config.Config, flagVal string, all bool) ([]int, error) {
	if all {
		return nil, nil
	}
	if flagVal == "" {
		return cfg.Samples, nil
	}
	idx, err := config.ParseIndices(flagVal)
	if err != nil {
		return nil, fmt.Errorf("%w: -samples: %v", config.ErrInvalidConfig, err)
	}
	return idx, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
