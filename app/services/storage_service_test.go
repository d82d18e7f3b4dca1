package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDiskStorage(t *testing.T) {
	dir := t.TempDir()
	storage := NewLocalDiskStorage(dir, "http://localhost:8080")
	ctx := context.Background()

	t.Run("UploadWritesFileAndReturnsURL", func(t *testing.T) {
		url, err := storage.Upload(ctx, "avatars/abc/1.jpg", "image/jpeg", []byte("fake-jpeg"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080/avatars/abc/1.jpg", url)

		data, err := os.ReadFile(filepath.Join(dir, "avatars", "abc", "1.jpg"))
		require.NoError(t, err)
		assert.Equal(t, []byte("fake-jpeg"), data)
	})

	t.Run("DeleteRemovesFile", func(t *testing.T) {
		url, err := storage.Upload(ctx, "backgrounds/abc/2.png", "image/png", []byte("fake-png"))
		require.NoError(t, err)

		require.NoError(t, storage.Delete(ctx, url))
		_, err = os.Stat(filepath.Join(dir, "backgrounds", "abc", "2.png"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("DeleteOfMissingFileIsIdempotent", func(t *testing.T) {
		assert.NoError(t, storage.Delete(ctx, "http://localhost:8080/avatars/never/was.jpg"))
	})
}

func TestHTTPObjectStorage(t *testing.T) {
	type call struct {
		method      string
		path        string
		contentType string
		auth        string
		acl         string
	}
	var calls []call

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			acl:         r.Header.Get("X-Amz-Acl"),
		})
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	storage := NewHTTPObjectStorage(server.URL, "bind-assets", "test-key", "https://cdn.test", 0)
	ctx := context.Background()

	t.Run("UploadPutsObjectWithPublicACL", func(t *testing.T) {
		url, err := storage.Upload(ctx, "avatars/u/1.jpg", "image/jpeg", []byte("payload"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/bind-assets/avatars/u/1.jpg", url)

		require.Len(t, calls, 1)
		assert.Equal(t, http.MethodPut, calls[0].method)
		assert.Equal(t, "/bind-assets/avatars/u/1.jpg", calls[0].path)
		assert.Equal(t, "image/jpeg", calls[0].contentType)
		assert.Equal(t, "Bearer test-key", calls[0].auth)
		assert.Equal(t, "public-read", calls[0].acl)
	})

	t.Run("DeleteResolvesKeyFromPublicURL", func(t *testing.T) {
		err := storage.Delete(ctx, "https://cdn.test/bind-assets/avatars/u/1.jpg")
		require.NoError(t, err)

		last := calls[len(calls)-1]
		assert.Equal(t, http.MethodDelete, last.method)
		assert.Equal(t, "/bind-assets/avatars/u/1.jpg", last.path)
	})

	t.Run("DeleteRejectsForeignURL", func(t *testing.T) {
		err := storage.Delete(ctx, "https://elsewhere.example.com/bucket/key.jpg")
		assert.Error(t, err)
	})
}
