package sheet

import (
	"image"
	"image/color"
	"unicode"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	panelW     = 600
	panelH     = 420
	captionH   = 40
	panelPad   = 8
	glyphW     = 7
	previewCol = 2
)

var (
	paper = color.NRGBA{255, 255, 255, 255}
	frame = color.NRGBA{210, 210, 210, 255}
)

// Preview returns a grid with the full image first, followed by each region
// crop captioned with its recognized text. The default template gives a 2x2 grid.
func Preview(img image.Image, res Result) *image.NRGBA {
	type panel struct {
		img   image.Image
		title string
		text  string
	}
	panels := []panel{{img: img, title: "Full Image"}}
	for _, rr := range res.Regions {
		panels = append(panels, panel{
			img:   rr.Crop,
			title: regionTitle(rr.Name),
			text:  "Extracted: " + rr.Text,
		})
	}
	rows := (len(panels) + previewCol - 1) / previewCol
	canvas := imaging.New(previewCol*panelW, rows*panelH, paper)
	for i, p := range panels {
		x0 := (i % previewCol) * panelW
		y0 := (i / previewCol) * panelH
		border(canvas, image.Rect(x0, y0, x0+panelW, y0+panelH))
		caption(canvas, x0+panelPad, y0+16, p.title)
		if p.text != "" {
			caption(canvas, x0+panelPad, y0+32, p.text)
		}
		if p.img == nil || p.img.Bounds().Empty() {
			caption(canvas, x0+panelPad, y0+captionH+16, "(empty region)")
			continue
		}
		thumb := imaging.Fit(p.img, panelW-2*panelPad, panelH-captionH-2*panelPad, imaging.Lanczos)
		canvas = imaging.Paste(canvas, thumb, image.Pt(x0+panelPad, y0+captionH+panelPad))
	}
	return canvas
}

// SavePreview renders the preview and writes it to path; the format follows
// the extension.
func SavePreview(path string, img image.Image, res Result) error {
	return imaging.Save(Preview(img, res), path)
}

func regionTitle(name string) string {
	switch name {
	case "id":
		return "ID Region"
	case "":
		return "Region"
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:] + " Region"
}

func caption(dst *image.NRGBA, x, y int, s string) {
	maxChars := (panelW - 2*panelPad) / glyphW
	if r := []rune(s); len(r) > maxChars {
		s = string(r[:maxChars-3]) + "..."
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func border(dst *image.NRGBA, r image.Rectangle) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.SetNRGBA(x, r.Min.Y, frame)
		dst.SetNRGBA(x, r.Max.Y-1, frame)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.SetNRGBA(r.Min.X, y, frame)
		dst.SetNRGBA(r.Max.X-1, y, frame)
	}
}
