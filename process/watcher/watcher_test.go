package watcher

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"gradescan/pkg/inventory"
)

func TestAccept(t *testing.T) {
	cases := map[string]bool{
		"sheet01.png":         true,
		"SHEET02.PNG":         true,
		"sheet01.preview.png": false,
		".sheet01.png":        false,
		"notes.txt":           false,
		"scan.jpg":            false,
	}
	for name, want := range cases {
		if got := Accept(name); got != want {
			t.Fatalf("Accept(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRunHandlesNewSheets(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan string, 8)
	w := &Watcher{
		Dir:      dir,
		Debounce: 50 * time.Millisecond,
		Handle: func(_ context.Context, name string) error {
			seen <- name
			if name == "bad.png" {
				return errors.New("unreadable")
			}
			return nil
		},
	}
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	// give fsnotify time to register the folder
	time.Sleep(100 * time.Millisecond)

	white := color.NRGBA{255, 255, 255, 255}
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	if err := imaging.Save(imaging.New(10, 10, white), filepath.Join(dir, "bad.png")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := imaging.Save(imaging.New(10, 10, white), filepath.Join(dir, "sheet01.png")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := map[string]bool{}
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case n := <-seen:
			got[n] = true
		case <-timeout:
			t.Fatalf("timed out, handled %v", got)
		}
	}
	if !got["bad.png"] || !got["sheet01.png"] {
		t.Fatalf("unexpected files %v", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean stop got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not stop")
	}
}

func TestRunMissingDir(t *testing.T) {
	w := &Watcher{Dir: filepath.Join(t.TempDir(), "missing"), Handle: func(context.Context, string) error { return nil }}
	if err := w.Run(context.Background()); !errors.Is(err, inventory.ErrImageDirNotFound) {
		t.Fatalf("expected ErrImageDirNotFound got %v", err)
	}
}
