// Package inventory lists sheet images in a folder and reads their metadata.
package inventory

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrImageDirNotFound is returned when the configured image folder is missing.
var ErrImageDirNotFound = errors.New("image folder not found")

// ImageRecord describes one image file.
type ImageRecord struct {
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Mode     string `json:"mode"`
	Format   string `json:"format"`
}

// SupportedExt is the extension accepted by List (compared case-insensitively).
const SupportedExt = ".png"

// IsSupported reports whether name has the sheet image extension.
func IsSupported(name string) bool {
	return strings.EqualFold(filepath.Ext(name), SupportedExt)
}

// CheckDir fails with ErrImageDirNotFound when dir is missing or not a directory.
func CheckDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrImageDirNotFound, dir)
		}
		return fmt.Errorf("stat image folder: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrImageDirNotFound, dir)
	}
	return nil
}

// List returns the sorted names of the .png files in dir.
func List(dir string) ([]string, error) {
	if err := CheckDir(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image folder: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Read decodes only the header of dir/name and returns its record.
func Read(dir, name string) (ImageRecord, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return ImageRecord{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	head := make([]byte, 33)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return ImageRecord{}, fmt.Errorf("read header %s: %w", name, err)
	}
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return ImageRecord{}, fmt.Errorf("rewind %s: %w", name, err)
	}
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("decode header %s: %w", name, err)
	}
	mode := modeFromModel(cfg.ColorModel)
	if format == "png" {
		if m, ok := pngMode(head); ok {
			mode = m
		}
	}
	return ImageRecord{
		Filename: name,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Mode:     mode,
		Format:   strings.ToUpper(format),
	}, nil
}

// Scan lists dir and reads every record. It stops at the first unreadable file.
func Scan(dir string) ([]ImageRecord, error) {
	names, err := List(dir)
	if err != nil {
		return nil, err
	}
	out := make([]ImageRecord, 0, len(names))
	for _, n := range names {
		rec, err := Read(dir, n)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// pngMode maps the IHDR bit depth and color type to a mode string. The
// stdlib decoder widens RGB to RGBA models, so the header is the only place
// the original layout survives.
func pngMode(head []byte) (string, bool) {
	if len(head) < 26 || !bytes.Equal(head[:8], pngSignature) || string(head[12:16]) != "IHDR" {
		return "", false
	}
	depth, ctype := head[24], head[25]
	switch ctype {
	case 0:
		switch depth {
		case 1:
			return "1", true
		case 16:
			return "I;16", true
		}
		return "L", true
	case 2:
		return "RGB", true
	case 3:
		return "P", true
	case 4:
		return "LA", true
	case 6:
		return "RGBA", true
	}
	return "", false
}

func modeFromModel(m color.Model) string {
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	switch m {
	case color.GrayModel:
		return "L"
	case color.Gray16Model:
		return "I;16"
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	case color.AlphaModel, color.Alpha16Model:
		return "A"
	}
	return "unknown"
}
