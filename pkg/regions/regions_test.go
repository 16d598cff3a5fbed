package regions

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestDefaultRegions1000x2000(t *testing.T) {
	want := map[string]Region{
		NameRegion:  {0, 0, 500, 200},
		IDRegion:    {700, 0, 1000, 300},
		GradeRegion: {800, 1700, 1000, 2000},
	}
	got := Compute(DefaultTemplate(), 1000, 2000)
	if len(got) != 3 {
		t.Fatalf("expected 3 regions got %d", len(got))
	}
	for _, n := range got {
		if n.Region != want[n.Name] {
			t.Fatalf("%s: expected %+v got %+v", n.Name, want[n.Name], n.Region)
		}
	}
}

func TestRegionsWithinBounds(t *testing.T) {
	tmpl := DefaultTemplate()
	for w := 21; w <= 400; w += 7 {
		for h := 21; h <= 400; h += 11 {
			for _, n := range Compute(tmpl, w, h) {
				r := n.Region
				if r.Left < 0 || r.Top < 0 {
					t.Fatalf("%dx%d %s negative origin %+v", w, h, n.Name, r)
				}
				if r.Right <= r.Left || r.Bottom <= r.Top {
					t.Fatalf("%dx%d %s empty region %+v", w, h, n.Name, r)
				}
				if r.Right > w || r.Bottom > h {
					t.Fatalf("%dx%d %s out of bounds %+v", w, h, n.Name, r)
				}
			}
		}
	}
}

func TestRegionsScaleLinearly(t *testing.T) {
	tmpl := DefaultTemplate()
	for _, size := range [][2]int{{100, 200}, {640, 960}, {1000, 2000}, {1230, 1740}} {
		w, h := size[0], size[1]
		base := Compute(tmpl, w, h)
		doubled := Compute(tmpl, 2*w, 2*h)
		for i := range base {
			b, d := base[i].Region, doubled[i].Region
			if d.Left != 2*b.Left || d.Top != 2*b.Top || d.Right != 2*b.Right || d.Bottom != 2*b.Bottom {
				t.Fatalf("%dx%d %s: doubled %+v is not 2x %+v", w, h, base[i].Name, d, b)
			}
		}
	}
}

func TestTinyImageYieldsEmptyRegion(t *testing.T) {
	r, ok := DefaultTemplate().Region(NameRegion, 4, 5)
	if !ok {
		t.Fatalf("name region missing")
	}
	if !r.Empty() {
		t.Fatalf("expected empty region for 4x5 image got %+v", r)
	}
	img := imaging.New(4, 5, color.NRGBA{255, 255, 255, 255})
	crop := Crop(img, r)
	if !IsEmptyImage(crop) {
		t.Fatalf("expected empty crop got %v", crop.Bounds())
	}
}

func TestCropHonorsImageOrigin(t *testing.T) {
	base := imaging.New(100, 100, color.NRGBA{255, 255, 255, 255})
	base.Set(60, 60, color.NRGBA{0, 0, 0, 255})
	sub := base.SubImage(image.Rect(50, 50, 100, 100))
	crop := Crop(sub, Region{Left: 10, Top: 10, Right: 20, Bottom: 20})
	if crop.Bounds().Dx() != 10 || crop.Bounds().Dy() != 10 {
		t.Fatalf("unexpected crop size %v", crop.Bounds())
	}
	r, _, _, _ := crop.At(crop.Bounds().Min.X, crop.Bounds().Min.Y).RGBA()
	if r != 0 {
		t.Fatalf("expected the dark pixel at crop origin")
	}
}

func TestParseTemplate(t *testing.T) {
	doc := []byte(`
regions:
  - name: student
    left: 0
    top: 0
    right: 0.4
    bottom: 0.2
  - name: score
    left: 0.6
    top: 0.9
    right: 1
    bottom: 1
`)
	tmpl, err := ParseTemplate(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tmpl.Names(); len(got) != 2 || got[0] != "student" || got[1] != "score" {
		t.Fatalf("unexpected names %v", got)
	}
	r, ok := tmpl.Region("score", 500, 1000)
	if !ok || r != (Region{300, 900, 500, 1000}) {
		t.Fatalf("unexpected score region %+v ok=%v", r, ok)
	}
}

func TestTemplateValidation(t *testing.T) {
	cases := map[string]string{
		"empty":     `regions: []`,
		"unnamed":   "regions:\n  - left: 0\n    top: 0\n    right: 1\n    bottom: 1\n",
		"duplicate": "regions:\n  - {name: a, left: 0, top: 0, right: 1, bottom: 1}\n  - {name: a, left: 0, top: 0, right: 1, bottom: 1}\n",
		"range":     "regions:\n  - {name: a, left: 0, top: 0, right: 1.5, bottom: 1}\n",
		"inverted":  "regions:\n  - {name: a, left: 0.5, top: 0, right: 0.2, bottom: 1}\n",
		"syntax":    "regions: [",
	}
	for name, doc := range cases {
		if _, err := ParseTemplate([]byte(doc)); !errors.Is(err, ErrInvalidTemplate) {
			t.Fatalf("%s: expected ErrInvalidTemplate got %v", name, err)
		}
	}
	if err := DefaultTemplate().Validate(); err != nil {
		t.Fatalf("default template invalid: %v", err)
	}
}
