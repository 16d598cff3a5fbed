package inventory

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	white := imaging.New(10, 10, color.NRGBA{255, 255, 255, 255})
	for _, n := range []string{"b.png", "A.PNG", "c.Png"} {
		writePNG(t, filepath.Join(dir, n), white)
	}
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "scan.jpg"), []byte("x"), 0o644)
	_ = os.Mkdir(filepath.Join(dir, "sub.png"), 0o755)

	names, err := List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"A.PNG", "b.png", "c.Png"}
	if len(names) != len(want) {
		t.Fatalf("expected %v got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v got %v", want, names)
		}
	}
}

func TestListMissingDir(t *testing.T) {
	_, err := List(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrImageDirNotFound) {
		t.Fatalf("expected ErrImageDirNotFound got %v", err)
	}
	f := filepath.Join(t.TempDir(), "file")
	_ = os.WriteFile(f, nil, 0o644)
	if err := CheckDir(f); !errors.Is(err, ErrImageDirNotFound) {
		t.Fatalf("expected ErrImageDirNotFound for a file got %v", err)
	}
}

func TestReadModes(t *testing.T) {
	dir := t.TempDir()
	rgb := image.NewRGBA(image.Rect(0, 0, 30, 20))
	for i := 3; i < len(rgb.Pix); i += 4 {
		rgb.Pix[i] = 255
	}
	writePNG(t, filepath.Join(dir, "rgb.png"), rgb)
	writePNG(t, filepath.Join(dir, "gray.png"), image.NewGray(image.Rect(0, 0, 12, 8)))
	writePNG(t, filepath.Join(dir, "alpha.png"), image.NewNRGBA(image.Rect(0, 0, 5, 5)))
	pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	writePNG(t, filepath.Join(dir, "pal.png"), pal)

	cases := map[string]ImageRecord{
		"rgb.png":   {Filename: "rgb.png", Width: 30, Height: 20, Mode: "RGB", Format: "PNG"},
		"gray.png":  {Filename: "gray.png", Width: 12, Height: 8, Mode: "L", Format: "PNG"},
		"alpha.png": {Filename: "alpha.png", Width: 5, Height: 5, Mode: "RGBA", Format: "PNG"},
		"pal.png":   {Filename: "pal.png", Width: 4, Height: 4, Mode: "P", Format: "PNG"},
	}
	for name, want := range cases {
		got, err := Read(dir, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: expected %+v got %+v", name, want, got)
		}
	}

	recs, err := Scan(dir)
	if err != nil || len(recs) != 4 {
		t.Fatalf("scan: %d records err=%v", len(recs), err)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not an image"), 0o644)
	if _, err := Read(dir, "broken.png"); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := Scan(dir); err == nil {
		t.Fatalf("expected scan to stop on broken file")
	}
}
