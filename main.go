package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"gradescan/pkg/config"
	"gradescan/pkg/inventory"
	"gradescan/pkg/logging"
	"gradescan/pkg/ocr"
	"gradescan/pkg/regions"
	"gradescan/pkg/sheet"
)

// Preview server: browse the sheet folder, recognize single sheets and look
// at the rendered crops from a browser.
func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("dotenv: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(gin.Mode() == gin.DebugMode)
	defer logger.Sync()

	if err := inventory.CheckDir(cfg.ImageDir); err != nil {
		logger.Fatalw("image folder check failed", "err", err)
	}
	tmpl, err := regions.LoadTemplate(cfg.TemplatePath)
	if err != nil {
		logger.Fatalw("template", "err", err)
	}
	rec, err := ocr.New(cfg.OCR())
	if err != nil {
		logger.Fatalw("recognizer", "err", err)
	}
	if remote, ok := rec.(*ocr.Remote); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := remote.CheckHealth(ctx); err != nil {
			logger.Warnw("inference service not available", "url", cfg.InferenceURL, "err", err)
		}
		cancel()
	}

	srv := &server{
		dir:    cfg.ImageDir,
		proc:   sheet.NewProcessor(rec, tmpl, logger),
		log:    logger,
		secret: []byte(cfg.JWTSecret),
	}
	r := gin.Default()
	setupRoutes(r, srv)

	logger.Infow("preview server starting", "addr", cfg.Addr, "dir", cfg.ImageDir, "engine", rec.Name(), "auth", len(srv.secret) > 0)
	if err := r.Run(cfg.Addr); err != nil {
		logger.Fatalw("server stopped", "err", err)
	}
}
