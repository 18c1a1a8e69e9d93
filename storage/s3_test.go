package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxwise/cv-back/config"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		if r.URL.Path != "/photos" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = b
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeBucket(t *testing.T) (*fakeBucket, *httptest.Server) {
	t.Helper()

	f := &fakeBucket{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	return f, srv
}

func s3Config(endpoint, bucket string) config.S3 {
	return config.S3{
		Region:          "auto",
		Bucket:          bucket,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Endpoint:        endpoint,
	}
}

func TestPutUploadsObject(t *testing.T) {
	f, srv := newFakeBucket(t)

	c, err := NewS3(context.Background(), s3Config(srv.URL, "photos"))
	require.NoError(t, err)

	url, err := c.Put(context.Background(), "acc/photo.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/photos/acc/photo.png", url)
	assert.Contains(t, string(f.objects["/photos/acc/photo.png"]), "png-bytes")
	assert.Equal(t, "image/png", f.types["/photos/acc/photo.png"])
}

func TestNewS3MissingBucket(t *testing.T) {
	_, srv := newFakeBucket(t)

	_, err := NewS3(context.Background(), s3Config(srv.URL, "other"))
	assert.Error(t, err)
}

func TestPublicURLOverride(t *testing.T) {
	_, srv := newFakeBucket(t)

	cfg := s3Config(srv.URL, "photos")
	cfg.PublicURL = "https://cdn.example.com"

	c, err := NewS3(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a/b.webp", c.URL("a/b.webp"))
}
