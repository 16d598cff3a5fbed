package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gradescan/pkg/config"
	"gradescan/pkg/logging"
	"gradescan/pkg/ocr"
	"gradescan/pkg/regions"
	"gradescan/pkg/sheet"
	"gradescan/process/report"
)

func main() {
	dir := flag.String("dir", "", "image folder (default $GRADESCAN_IMAGE_DIR)")
	samples := flag.String("samples", "", "comma separated sheet indices (default $GRADESCAN_SAMPLES)")
	all := flag.Bool("all", false, "report every sheet in the folder")
	format := flag.String("format", report.FormatTable, "table or json")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fail(err)
	}
	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	if *dir != "" {
		cfg.ImageDir = *dir
	}
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
	indices := cfg.Samples
	if *samples != "" {
		if indices, err = config.ParseIndices(*samples); err != nil {
			fail(err)
		}
	}
	if *all {
		indices = nil
	}
	tmpl, err := regions.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		fail(err)
	}
	rec, err := ocr.New(cfg.OCR())
	if err != nil {
		fail(err)
	}
	log := logging.New(false)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &sheet.Runner{Proc: sheet.NewProcessor(rec, tmpl, log), Dir: cfg.ImageDir, Out: io.Discard, Log: log}
	rows, err := r.Run(ctx, indices)
	if werr := report.Write(os.Stdout, rows, *format); werr != nil {
		fail(werr)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "report: %v\n", err)
	os.Exit(1)
}
