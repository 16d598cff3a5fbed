package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/disintegration/imaging"
)

func TestRemoteRecognize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if got := r.FormValue("model"); got != DefaultModel {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "model " + got})
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "no file"})
			return
		}
		defer f.Close()
		img, err := png.Decode(f)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not png"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "<s>width " + strconv.Itoa(img.Bounds().Dx()) + "</s>"})
	}))
	defer srv.Close()

	rec, err := NewRemote(RemoteConfig{URL: srv.URL + "/recognize"})
	if err != nil {
		t.Fatalf("new remote: %v", err)
	}
	got, err := Recognize(context.Background(), rec, imaging.New(42, 10, color.NRGBA{255, 255, 255, 255}))
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if got != "width 42" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestRemoteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"cuda out of memory"}`))
	}))
	defer srv.Close()
	rec, _ := NewRemote(RemoteConfig{URL: srv.URL})
	_, err := Recognize(context.Background(), rec, imaging.New(4, 4, color.NRGBA{}))
	if !errors.Is(err, ErrInference) {
		t.Fatalf("expected ErrInference got %v", err)
	}
}

func TestRemoteHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	rec, _ := NewRemote(RemoteConfig{URL: srv.URL + "/recognize"})
	if err := rec.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestNewRemoteRequiresURL(t *testing.T) {
	if _, err := NewRemote(RemoteConfig{}); err == nil {
		t.Fatalf("expected error without url")
	}
}
