package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// RemoteConfig points the remote engine at an inference service.
type RemoteConfig struct {
	URL     string
	Model   string
	Timeout time.Duration
	Client  *http.Client
}

// Remote sends crops to an HTTP service hosting a pretrained handwriting
// model. The service receives a multipart form with the PNG crop in "file" and
// the model name in "model" and answers {"text": "..."}.
type Remote struct {
	url    string
	model  string
	client *http.Client
}

// NewRemote validates cfg and returns the engine.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote engine: inference url required")
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("remote engine: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Remote{url: cfg.URL, model: cfg.Model, client: client}, nil
}

func (r *Remote) Name() string { return EngineRemote + ":" + r.model }

type remoteResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Recognize posts img to the inference service.
func (r *Remote) Recognize(ctx context.Context, img image.Image) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model", r.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	part, err := writer.CreateFormFile("file", "region.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return "", fmt.Errorf("encode crop: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var out remoteResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(raw, &out)
		return "", fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, out.Error)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("inference error: %s", out.Error)
	}
	return out.Text, nil
}

// CheckHealth issues a GET against /health on the inference host.
func (r *Remote) CheckHealth(ctx context.Context) error {
	u, err := url.Parse(r.url)
	if err != nil {
		return err
	}
	u.Path = "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
