package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"gradescan/pkg/ocr"
	"gradescan/pkg/regions"
	"gradescan/pkg/sheet"
)

// Saves one region of a sheet after every preprocessing mode so the input the
// recognizer sees can be compared side by side.
func main() {
	in := flag.String("in", "", "sheet image")
	region := flag.String("region", regions.GradeRegion, "region to crop")
	tmplPath := flag.String("template", "", "YAML region template")
	minHeight := flag.Int("min-height", 64, "upscale crops shorter than this")
	out := flag.String("out", os.TempDir(), "output folder")
	flag.Parse()
	if *in == "" {
		log.Fatal("-in is required")
	}

	tmpl, err := regions.LoadTemplate(*tmplPath)
	if err != nil {
		log.Fatalf("template: %v", err)
	}
	img, err := sheet.Load(*in)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	b := img.Bounds()
	r, ok := tmpl.Region(*region, b.Dx(), b.Dy())
	if !ok {
		log.Fatalf("unknown region %q", *region)
	}
	crop := regions.Crop(img, r)
	if regions.IsEmptyImage(crop) {
		log.Fatalf("region %s is empty for a %dx%d image", *region, b.Dx(), b.Dy())
	}
	base := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	for _, mode := range []string{ocr.PreprocessNone, ocr.PreprocessGray, ocr.PreprocessBinarize, ocr.PreprocessAdaptive} {
		p, err := ocr.Preprocess(crop, mode, *minHeight)
		if err != nil {
			log.Fatalf("%s: %v", mode, err)
		}
		path := filepath.Join(*out, fmt.Sprintf("%s.%s.%s.png", base, *region, mode))
		if err := imaging.Save(p, path); err != nil {
			log.Fatalf("save: %v", err)
		}
		fmt.Printf("%-9s %dx%d -> %s\n", mode, p.Bounds().Dx(), p.Bounds().Dy(), path)
	}
}
