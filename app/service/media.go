package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// MediaHost is the image host client. Uploads return a permanent URL; the
// public id embedded in that URL is what identifies the asset on delete.
type MediaHost struct {
	client     *resty.Client
	rootFolder string
	apiKey     string
	apiSecret  string
}

type uploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

type destroyResult struct {
	Result string `json:"result"`
}

func NewMediaHost(cfg *config.Config) *MediaHost {
	client := resty.New().SetBaseURL(cfg.MediaBaseURL)
	return &MediaHost{
		client:     client,
		rootFolder: cfg.MediaRootFolder,
		apiKey:     cfg.MediaAPIKey,
		apiSecret:  cfg.MediaAPISecret,
	}
}

func (m *MediaHost) Upload(ctx context.Context, filePath, folder string) (string, error) {
	var result uploadResult
	resp, err := m.client.R().
		SetContext(ctx).
		SetFile("file", filePath).
		SetFormData(map[string]string{
			"folder":     fmt.Sprintf("%s/%s", m.rootFolder, folder),
			"public_id":  uuid.New().String(),
			"api_key":    m.apiKey,
			"api_secret": m.apiSecret,
		}).
		SetResult(&result).
		Post("/image/upload")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("media host upload failed: %s", resp.Status())
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("media host upload returned no url")
	}
	return result.SecureURL, nil
}

func (m *MediaHost) Delete(ctx context.Context, url string) error {
	folder, publicID := publicIDFromURL(url)

	var result destroyResult
	resp, err := m.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"public_id":  fmt.Sprintf("%s/%s/%s", m.rootFolder, folder, publicID),
			"api_key":    m.apiKey,
			"api_secret": m.apiSecret,
		}).
		SetResult(&result).
		Post("/image/destroy")
	if err != nil {
		return err
	}
	if resp.IsError() || result.Result != "ok" {
		return fmt.Errorf("media host did not delete %s", url)
	}
	return nil
}

// publicIDFromURL extracts the containing folder and the file name without
// extension from a permanent URL.
func publicIDFromURL(url string) (folder, publicID string) {
	dir, file := path.Split(url)
	publicID = strings.TrimSuffix(file, path.Ext(file))
	folder = path.Base(strings.TrimSuffix(dir, "/"))
	return folder, publicID
}
