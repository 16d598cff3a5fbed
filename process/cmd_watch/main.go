package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gradescan/pkg/config"
	"gradescan/pkg/inventory"
	"gradescan/pkg/logging"
	"gradescan/pkg/ocr"
	"gradescan/pkg/regions"
	"gradescan/pkg/sheet"
	"gradescan/process/watcher"
)

// Watches the image folder and prints name, ID and grade of every sheet
// dropped into it. With -scan the existing sheets are processed first.
func main() {
	envFile := flag.String("env", ".env", "dotenv file")
	dir := flag.String("dir", "", "folder to watch (default $GRADESCAN_IMAGE_DIR)")
	scan := flag.Bool("scan", false, "process the sheets already in the folder before watching")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
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
	log := logging.New(*verbose)
	defer log.Sync()

	tmpl, err := regions.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		fail(err)
	}
	rec, err := ocr.New(cfg.OCR())
	if err != nil {
		fail(err)
	}
	runner := &sheet.Runner{
		Proc:       sheet.NewProcessor(rec, tmpl, log),
		Dir:        cfg.ImageDir,
		Out:        os.Stdout,
		Log:        log,
		PreviewDir: cfg.PreviewDir,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *scan {
		if _, err := runner.Run(ctx, nil); err != nil {
			fail(err)
		}
	}

	w := &watcher.Watcher{
		Dir: cfg.ImageDir,
		Log: log,
		Handle: func(ctx context.Context, name string) error {
			names, err := inventory.List(cfg.ImageDir)
			if err != nil {
				return err
			}
			idx := -1
			for i, n := range names {
				if n == name {
					idx = i
					break
				}
			}
			if idx < 0 {
				return fmt.Errorf("%s vanished before processing", name)
			}
			_, err = runner.One(ctx, sheet.Sample{Index: idx, Name: name})
			return err
		},
	}
	if err := w.Run(ctx); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "watch: %v\n", err)
	os.Exit(1)
}
