package regions

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Region is an axis-aligned rectangle in pixel coordinates.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Dx and Dy may be negative for degenerate regions.
func (r Region) Dx() int { return r.Right - r.Left }
func (r Region) Dy() int { return r.Bottom - r.Top }

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool { return r.Dx() <= 0 || r.Dy() <= 0 }

// Rect converts the region to an image.Rectangle anchored at (0,0).
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Named pairs a template entry with its computed pixel region.
type Named struct {
	Name   string
	Region Region
}

// Compute derives every region of the template for a width x height image.
// Coordinates are truncated toward zero, so tiny images may yield empty regions.
func Compute(t Template, width, height int) []Named {
	out := make([]Named, 0, len(t.Regions))
	for _, e := range t.Regions {
		out = append(out, Named{Name: e.Name, Region: e.Fraction.Apply(width, height)})
	}
	return out
}

// Crop returns the sub-image covered by r. r is relative to the image origin,
// not to img.Bounds().Min. Empty results come back as a 0x0 NRGBA.
func Crop(img image.Image, r Region) image.Image {
	b := img.Bounds()
	rect := r.Rect().Add(b.Min).Intersect(b)
	if rect.Empty() {
		return imaging.New(0, 0, color.NRGBA{})
	}
	return imaging.Crop(img, rect)
}

// IsEmptyImage reports whether img is nil or has zero area.
func IsEmptyImage(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}
