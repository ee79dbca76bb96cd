package middleware

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"

	"github.com/vibast-solutions/ms-go-commerce/app/dto"
	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ImagePathKey is the context key under which StageImage stores the staged
// file path for the handler.
const ImagePathKey = "image_path"

type UploadMiddleware struct {
	cfg *config.Config
}

func NewUploadMiddleware(cfg *config.Config) *UploadMiddleware {
	return &UploadMiddleware{cfg: cfg}
}

// StageImage accepts an optional multipart "image" part, enforces the size
// and MIME type limits, and writes it to the staging directory. The handler
// finds the staged path in the context; requests without an image pass
// through untouched.
func (m *UploadMiddleware) StageImage(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			// Not multipart or no image part.
			return next(c)
		}

		if fileHeader.Size > m.cfg.MaxUploadBytes {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("image file is too large, it must be less than %d bytes", m.cfg.MaxUploadBytes),
			})
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if !slices.Contains(m.cfg.AllowedMIMETypes, contentType) {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				StatusCode: http.StatusBadRequest,
				Message:    "image file type is not allowed",
			})
		}

		src, err := fileHeader.Open()
		if err != nil {
			return err
		}
		defer src.Close()

		stagedPath := filepath.Join(m.cfg.UploadDir, uuid.New().String()+filepath.Ext(fileHeader.Filename))
		dst, err := os.Create(stagedPath)
		if err != nil {
			return err
		}
		defer dst.Close()

		if _, err = io.Copy(dst, src); err != nil {
			if removeErr := os.Remove(stagedPath); removeErr != nil {
				logrus.WithError(removeErr).WithField("path", stagedPath).Warn("Failed to remove partial staged image")
			}
			return err
		}

		c.Set(ImagePathKey, stagedPath)
		return next(c)
	}
}
