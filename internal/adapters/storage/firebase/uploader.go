package firebase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotConfigured = errors.New("firebase storage not configured")
	ErrUpstream      = errors.New("firebase storage upstream error")
)

const defaultBaseURL = "https://firebasestorage.googleapis.com/v0"

// Config del uploader de Firebase Storage.
type Config struct {
	Bucket  string
	BaseURL string // override para tests
	Timeout time.Duration
}

// Uploader implementa storage.Uploader subiendo bytes crudos al bucket
// y devolviendo la URL pública (alt=media).
type Uploader struct {
	bucket  string
	baseURL string
	http    *http.Client
}

func NewUploader(cfg Config) *Uploader {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Uploader{
		bucket:  strings.TrimSpace(cfg.Bucket),
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (u *Uploader) IsConfigured() bool {
	return u != nil && u.bucket != ""
}

func (u *Uploader) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if !u.IsConfigured() {
		return "", ErrNotConfigured
	}
	if path == "" || len(data) == 0 {
		return "", errors.New("empty path or data")
	}

	encoded := url.QueryEscape(path)
	uploadURL := fmt.Sprintf("%s/b/%s/o?uploadType=media&name=%s", u.baseURL, u.bucket, encoded)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("firebase storage: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status=%d body=%s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return fmt.Sprintf("%s/b/%s/o/%s?alt=media", u.baseURL, u.bucket, encoded), nil
}
