package main

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"gradescan/pkg/inventory"
	"gradescan/pkg/ocr"
	"gradescan/pkg/regions"
	"gradescan/pkg/sheet"
)

type server struct {
	dir    string
	proc   *sheet.Processor
	log    *zap.SugaredLogger
	secret []byte

	// mu keeps recognition one sheet at a time.
	mu sync.Mutex
}

func setupRoutes(r *gin.Engine, s *server) {
	r.GET("/health", s.healthHandler)
	g := r.Group("")
	if len(s.secret) > 0 {
		g.Use(jwtAuthMiddleware(s.secret))
	}
	g.GET("/images", s.listImagesHandler)
	g.GET("/images/:name/extract", s.extractHandler)
	g.GET("/images/:name/preview.png", s.previewHandler)
	g.GET("/images/:name/regions/:region", s.regionHandler)
}

func jwtAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		token, err := jwt.Parse(authHeader[7:], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrInvalidKeyType
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			c.Set("subject", sub)
		}
		c.Next()
	}
}

func (s *server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engine": s.proc.Recognizer().Name()})
}

// listImagesHandler returns the inventory of the sheet folder.
func (s *server) listImagesHandler(c *gin.Context) {
	recs, err := inventory.Scan(s.dir)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dir": s.dir, "count": len(recs), "images": recs})
}

// extractHandler recognizes every region of one sheet.
func (s *server) extractHandler(c *gin.Context) {
	path, ok := s.sheetPath(c)
	if !ok {
		return
	}
	s.mu.Lock()
	res, err := s.proc.ProcessFile(c.Request.Context(), path)
	s.mu.Unlock()
	if err != nil {
		s.fail(c, err)
		return
	}
	ex := res.Extraction()
	c.JSON(http.StatusOK, gin.H{
		"file":    res.File,
		"width":   res.Width,
		"height":  res.Height,
		"regions": res.Regions,
		"name":    ex.Name,
		"id":      ex.ID,
		"grade":   ex.Grade,
	})
}

// previewHandler renders the full image and captioned crops as one PNG.
func (s *server) previewHandler(c *gin.Context) {
	path, ok := s.sheetPath(c)
	if !ok {
		return
	}
	img, err := sheet.Load(path)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.mu.Lock()
	res, err := s.proc.Process(c.Request.Context(), img)
	s.mu.Unlock()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Type", "image/png")
	if err := imaging.Encode(c.Writer, sheet.Preview(img, res), imaging.PNG); err != nil {
		s.log.Warnw("preview encode failed", "file", filepath.Base(path), "err", err)
	}
}

// regionHandler returns one crop, e.g. /images/s01.png/regions/grade.png.
func (s *server) regionHandler(c *gin.Context) {
	path, ok := s.sheetPath(c)
	if !ok {
		return
	}
	name := strings.TrimSuffix(c.Param("region"), ".png")
	img, err := sheet.Load(path)
	if err != nil {
		s.fail(c, err)
		return
	}
	b := img.Bounds()
	r, found := s.proc.Template().Region(name, b.Dx(), b.Dy())
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown region", "regions": s.proc.Template().Names()})
		return
	}
	crop := regions.Crop(img, r)
	if regions.IsEmptyImage(crop) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "region is empty for this image", "region": r})
		return
	}
	c.Header("Content-Type", "image/png")
	if err := imaging.Encode(c.Writer, crop, imaging.PNG); err != nil {
		s.log.Warnw("crop encode failed", "file", filepath.Base(path), "region", name, "err", err)
	}
}

// sheetPath validates the :name parameter and resolves it inside the folder.
func (s *server) sheetPath(c *gin.Context) (string, bool) {
	name := c.Param("name")
	if name == "" || filepath.Base(name) != name || strings.Contains(name, "..") || !inventory.IsSupported(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image name"})
		return "", false
	}
	if err := inventory.CheckDir(s.dir); err != nil {
		s.fail(c, err)
		return "", false
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
		return "", false
	}
	return path, true
}

func (s *server) fail(c *gin.Context, err error) {
	var re *sheet.RegionError
	switch {
	case errors.Is(err, inventory.ErrImageDirNotFound):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &re), errors.Is(err, ocr.ErrInference):
		s.log.Errorw("inference failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.log.Errorw("request failed", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
