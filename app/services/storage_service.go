package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTTPObjectStorage stores assets in an S3-compatible object store over its
// HTTP API. Objects are written with public-read ACLs and served from the
// configured public base URL.
type HTTPObjectStorage struct {
	endpoint      string
	bucket        string
	accessKey     string
	publicBaseURL string
	client        *http.Client
}

func NewHTTPObjectStorage(endpoint, bucket, accessKey, publicBaseURL string, timeout time.Duration) *HTTPObjectStorage {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPObjectStorage{
		endpoint:      strings.TrimSuffix(endpoint, "/"),
		bucket:        bucket,
		accessKey:     accessKey,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		client:        &http.Client{Timeout: timeout},
	}
}

func (s *HTTPObjectStorage) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
}

// Upload writes the object and returns its public URL
func (s *HTTPObjectStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Amz-Acl", "public-read")
	if s.accessKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key), nil
}

// keyFromURL recovers the object key from a public URL previously returned
// by Upload. URLs outside this store's public prefix are rejected.
func (s *HTTPObjectStorage) keyFromURL(rawURL string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/", s.publicBaseURL, s.bucket)
	if !strings.HasPrefix(rawURL, prefix) {
		return "", fmt.Errorf("url %q is not managed by this store", rawURL)
	}
	return strings.TrimPrefix(rawURL, prefix), nil
}

// Delete removes the object behind a public URL
func (s *HTTPObjectStorage) Delete(ctx context.Context, rawURL string) error {
	key, err := s.keyFromURL(rawURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("failed to build delete request: %w", err)
	}
	if s.accessKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete failed with status %d", resp.StatusCode)
	}
	return nil
}

// LocalDiskStorage keeps assets on the local filesystem. Used in development
// and tests where no object store is available.
type LocalDiskStorage struct {
	baseDir       string
	publicBaseURL string
}

func NewLocalDiskStorage(baseDir, publicBaseURL string) *LocalDiskStorage {
	return &LocalDiskStorage{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

func (s *LocalDiskStorage) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	return s.publicBaseURL + "/" + key, nil
}

func (s *LocalDiskStorage) Delete(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid asset url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	path := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(path, filepath.Clean(s.baseDir)) {
		return fmt.Errorf("url %q is not managed by this store", rawURL)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove asset: %w", err)
	}
	return nil
}
