package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/formora_backend/config"
)

func testConfig(endpoint string) config.S3Config {
	return config.S3Config{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
		Bucket:          "formora",
		PresignTTLSec:   120,
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), config.S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestPresignDownload(t *testing.T) {
	c, err := New(context.Background(), testConfig("http://minio.local:9000"))
	require.NoError(t, err)

	raw, err := c.PresignDownload(context.Background(), "uploads/f1/a.pdf")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", u.Host)
	assert.Equal(t, "/formora/uploads/f1/a.pdf", u.Path, "custom endpoints use path-style buckets")
	assert.Equal(t, "120", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestDelete(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := New(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, c.Delete(context.Background(), "uploads/f1/a.pdf"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"DELETE /formora/uploads/f1/a.pdf"}, calls)
}
