// Package config loads gradescan settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gradescan/pkg/ocr"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting of the commands and the preview server.
type Config struct {
	ImageDir     string
	Samples      []int
	TemplatePath string
	PreviewDir   string

	Engine       string
	Model        string
	InferenceURL string
	Timeout      time.Duration
	Language     string
	Whitelist    string
	PageSeg      int
	Preprocess   string
	MinHeight    int

	Addr      string
	JWTSecret string
}

// DefaultSamples are the sheet indices inspected when none are configured.
var DefaultSamples = []int{0, 33, 50, 100, 150, 200}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	samples, err := ParseIndices(getEnv("GRADESCAN_SAMPLES", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: GRADESCAN_SAMPLES: %v", ErrInvalidConfig, err)
	}
	if samples == nil {
		samples = append([]int(nil), DefaultSamples...)
	}
	timeout, err := getEnvDuration("GRADESCAN_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	pageSeg, err := getEnvInt("GRADESCAN_PSM", 7)
	if err != nil {
		return nil, err
	}
	minHeight, err := getEnvInt("GRADESCAN_MIN_HEIGHT", 64)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		ImageDir:     getEnv("GRADESCAN_IMAGE_DIR", "./data/raw/grades_images"),
		Samples:      samples,
		TemplatePath: getEnv("GRADESCAN_TEMPLATE", ""),
		PreviewDir:   getEnv("GRADESCAN_PREVIEW_DIR", ""),
		Engine:       getEnv("GRADESCAN_ENGINE", ocr.EngineTesseract),
		Model:        getEnv("GRADESCAN_MODEL", ocr.DefaultModel),
		InferenceURL: getEnv("GRADESCAN_INFERENCE_URL", "http://localhost:5000/recognize"),
		Timeout:      timeout,
		Language:     getEnv("GRADESCAN_LANGUAGE", "eng"),
		Whitelist:    getEnv("GRADESCAN_WHITELIST", ""),
		PageSeg:      pageSeg,
		Preprocess:   getEnv("GRADESCAN_PREPROCESS", ocr.PreprocessGray),
		MinHeight:    minHeight,
		Addr:         getEnv("GRADESCAN_ADDR", ":8081"),
		JWTSecret:    getEnv("GRADESCAN_JWT_SECRET", ""),
	}
	return cfg, nil
}

// Validate checks engine settings.
func (c *Config) Validate() error {
	if c.ImageDir == "" {
		return fmt.Errorf("%w: image directory is required", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Engine) {
	case ocr.EngineTesseract:
	case ocr.EngineRemote:
		if c.InferenceURL == "" {
			return fmt.Errorf("%w: GRADESCAN_INFERENCE_URL is required for the remote engine", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalidConfig, c.Engine)
	}
	if !ocr.ValidPreprocess(c.Preprocess) {
		return fmt.Errorf("%w: unknown preprocess mode %q", ErrInvalidConfig, c.Preprocess)
	}
	if c.PageSeg < 0 || c.PageSeg > 13 {
		return fmt.Errorf("%w: page segmentation mode must be between 0 and 13, got %d", ErrInvalidConfig, c.PageSeg)
	}
	return nil
}

// OCR returns the recognizer settings.
func (c *Config) OCR() ocr.Config {
	return ocr.Config{
		Engine:       c.Engine,
		Language:     c.Language,
		Whitelist:    c.Whitelist,
		PageSeg:      c.PageSeg,
		Preprocess:   c.Preprocess,
		MinHeight:    c.MinHeight,
		InferenceURL: c.InferenceURL,
		Model:        c.Model,
		Timeout:      c.Timeout,
	}
}

// ParseIndices parses a comma separated list of non-negative integers.
// An empty string yields nil.
func ParseIndices(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	out := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad index %q", part)
		}
		if n < 0 {
			return nil, fmt.Errorf("negative index %d", n)
		}
		out = append(out, n)
	}
	return out, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidConfig, key, v)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a duration", ErrInvalidConfig, key, v)
	}
	return d, nil
}
