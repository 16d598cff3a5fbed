package ocr

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Preprocess modes applied to a crop before it reaches Tesseract.
const (
	PreprocessNone     = "none"
	PreprocessGray     = "gray"
	PreprocessBinarize = "binarize"
	PreprocessAdaptive = "adaptive"
)

// defaultMinHeight is the crop height below which crops are upscaled.
const defaultMinHeight = 64

// ValidPreprocess reports whether mode is a known preprocess mode.
func ValidPreprocess(mode string) bool {
	switch strings.ToLower(mode) {
	case "", PreprocessNone, PreprocessGray, PreprocessBinarize, PreprocessAdaptive:
		return true
	}
	return false
}

// Preprocess prepares a crop for recognition. Short crops are upscaled to
// minHeight with Lanczos; handwriting strokes on scans are often only a few
// pixels wide.
func Preprocess(img image.Image, mode string, minHeight int) (image.Image, error) {
	if minHeight <= 0 {
		minHeight = defaultMinHeight
	}
	mode = strings.ToLower(mode)
	if mode == "" {
		mode = PreprocessGray
	}
	if mode == PreprocessNone {
		return img, nil
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	if gray.Bounds().Dy() < minHeight {
		gray = imaging.Resize(gray, 0, minHeight, imaging.Lanczos)
	}
	switch mode {
	case PreprocessGray:
		return gray, nil
	case PreprocessBinarize:
		return binarize(gray, 160), nil
	case PreprocessAdaptive:
		return dilate(adaptiveThreshold(gray, 15, 7), 1), nil
	}
	return nil, fmt.Errorf("unknown preprocess mode %q", mode)
}

// luminance returns the 8-bit gray level of every pixel, row-major, with the
// image origin moved to (0,0).
func luminance(img image.Image) ([]uint8, int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[y*w+x] = uint8((r + g + bb) / 3 >> 8)
		}
	}
	return out, w, h
}

func blackOrWhite(dark bool) color.NRGBA {
	if dark {
		return color.NRGBA{0, 0, 0, 255}
	}
	return color.NRGBA{255, 255, 255, 255}
}

// binarize performs a global threshold; pixels at or below threshold turn black.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	lum, w, h := luminance(img)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetNRGBA(x, y, blackOrWhite(lum[y*w+x] <= threshold))
		}
	}
	return out
}

// adaptiveThreshold compares each pixel with the mean of its window (via an
// integral image) minus bias.
func adaptiveThreshold(img image.Image, window int, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	lum, w, h := luminance(img)
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	half := window / 2
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			rowSum += int(lum[y*w+x])
			idx := y*w + x
			if y == 0 {
				ints[idx] = rowSum
			} else {
				ints[idx] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	at := func(x, y int) int {
		if x < 0 || y < 0 {
			return 0
		}
		return ints[y*w+x]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := max(x-half, 0), max(y-half, 0)
			x1, y1 := min(x+half, w-1), min(y+half, h-1)
			sum := at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			th := max(mean-bias, 0)
			out.SetNRGBA(x, y, blackOrWhite(int(lum[y*w+x]) < th))
		}
	}
	return out
}

// dilate thickens black strokes with a 4-neighborhood, radius times.
func dilate(img *image.NRGBA, radius int) *image.NRGBA {
	if radius <= 0 {
		return img
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	cur := img
	for r := 0; r < radius; r++ {
		next := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for _, d := range [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					x2, y2 := x+d[0], y+d[1]
					if x2 < 0 || y2 < 0 || x2 >= w || y2 >= h {
						continue
					}
					if cur.NRGBAAt(x2, y2).R == 0 {
						next.SetNRGBA(x, y, blackOrWhite(true))
						break
					}
				}
			}
		}
		cur = next
	}
	return cur
}
