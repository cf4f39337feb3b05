package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBucket = "product-images"

// fakeS3 is a minimal path-style S3 endpoint backed by a map.
type fakeS3 struct {
	mu        sync.Mutex
	bucket    bool
	objects   map[string][]byte
	types     map[string]string
	denyPut   bool
	requests  []string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{bucket: true, objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != testBucket {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case key == "" && r.Method == http.MethodHead:
		if !f.bucket {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodPut:
		f.bucket = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		if f.denyPut {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(srv *httptest.Server, cfg Config) *ImageStore {
	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("key", "secret", ""),
		RetryMaxAttempts:           1,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})
	cfg.Bucket = testBucket
	return NewImageStoreWithClient(client, cfg)
}

func TestImageStore_PutAndDelete(t *testing.T) {
	fake, srv := newFakeS3(t)
	store := newTestStore(srv, Config{PublicURL: "https://cdn.example.com/"})

	url, err := store.Put(context.Background(), "products/abc.png", []byte("\x89PNG data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/products/abc.png", url)
	assert.Equal(t, []byte("\x89PNG data"), fake.objects["products/abc.png"])
	assert.Equal(t, "image/png", fake.types["products/abc.png"])

	require.NoError(t, store.Delete(context.Background(), "products/abc.png"))
	assert.NotContains(t, fake.objects, "products/abc.png")
}

func TestImageStore_PutFailure(t *testing.T) {
	fake, srv := newFakeS3(t)
	fake.denyPut = true
	store := newTestStore(srv, Config{})

	_, err := store.Put(context.Background(), "products/x.png", []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestImageStore_PingAndEnsureBucket(t *testing.T) {
	fake, srv := newFakeS3(t)
	store := newTestStore(srv, Config{})

	require.NoError(t, store.Ping(context.Background()))

	fake.bucket = false
	require.Error(t, store.Ping(context.Background()))

	require.NoError(t, store.EnsureBucket(context.Background()))
	assert.True(t, fake.bucket)
	assert.Contains(t, fake.requests, "PUT /"+testBucket)
}

func TestPublicBaseURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{Bucket: "b", PublicURL: "https://cdn.example.com/img/"}, "https://cdn.example.com/img"},
		{"path style endpoint", Config{Bucket: "b", Endpoint: "http://minio:9000", PathStyle: true}, "http://minio:9000/b"},
		{"virtual host endpoint", Config{Bucket: "b", Endpoint: "https://storage.example.com"}, "https://b.storage.example.com"},
		{"aws default", Config{Bucket: "b", Region: "eu-west-1"}, "https://b.s3.eu-west-1.amazonaws.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, publicBaseURL(tc.cfg))
		})
	}
}

func TestImageStore_URLEscapesKey(t *testing.T) {
	store := NewImageStoreWithClient(nil, Config{Bucket: "b", PublicURL: "https://cdn"})
	assert.Equal(t, "https://cdn/products/a%20b.png", store.URL("products/a b.png"))
}
