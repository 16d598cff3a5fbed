package ocr

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestPreprocessUpscalesShortCrops(t *testing.T) {
	img := imaging.New(120, 20, color.NRGBA{200, 200, 200, 255})
	out, err := Preprocess(img, PreprocessGray, 80)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if out.Bounds().Dy() != 80 || out.Bounds().Dx() != 480 {
		t.Fatalf("expected 480x80 got %v", out.Bounds())
	}
}

func TestPreprocessNoneReturnsInput(t *testing.T) {
	img := imaging.New(10, 10, color.NRGBA{1, 2, 3, 255})
	out, err := Preprocess(img, PreprocessNone, 0)
	if err != nil || out != img {
		t.Fatalf("expected untouched input err=%v", err)
	}
}

func TestBinarizeSplitsInkFromPaper(t *testing.T) {
	img := imaging.New(100, 100, color.NRGBA{255, 255, 255, 255})
	for x := 10; x < 30; x++ {
		img.Set(x, 50, color.NRGBA{20, 20, 20, 255})
	}
	out, err := Preprocess(img, PreprocessBinarize, 10)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if r, _, _, _ := out.At(15, 50).RGBA(); r != 0 {
		t.Fatalf("ink pixel should be black")
	}
	if r, _, _, _ := out.At(80, 80).RGBA(); r == 0 {
		t.Fatalf("paper pixel should be white")
	}
}

func TestAdaptiveKeepsSize(t *testing.T) {
	img := imaging.New(70, 90, color.NRGBA{240, 240, 240, 255})
	img.Set(35, 45, color.NRGBA{0, 0, 0, 255})
	out, err := Preprocess(img, PreprocessAdaptive, 10)
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if out.Bounds().Dx() != 70 || out.Bounds().Dy() != 90 {
		t.Fatalf("unexpected size %v", out.Bounds())
	}
	if r, _, _, _ := out.At(35, 45).RGBA(); r != 0 {
		t.Fatalf("dark dot lost after adaptive threshold")
	}
}
