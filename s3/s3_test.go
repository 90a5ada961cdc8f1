package s3_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	valid := s3.Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "exports"}
	_, err := s3.New(valid)
	require.NoError(t, err)

	for name, mutate := range map[string]func(*s3.Config){
		"endpoint": func(c *s3.Config) { c.Endpoint = " " },
		"keys":     func(c *s3.Config) { c.SecretKey = "" },
		"bucket":   func(c *s3.Config) { c.Bucket = "" },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			mutate(&cfg)
			_, err := s3.New(cfg)
			require.ErrorIs(t, err, builder.ErrValidation)
		})
	}
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p1/my-shop.zip", s3.ObjectKey(builder.Project{ID: "p1", Name: "My Shop"}))
}

// fakeS3 accepts bucket probes and object puts, recording uploaded keys.
type fakeS3 struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && r.URL.Query().Has("location"):
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><LocationConstraint xmlns="http://s3.amazonaws.com/doc/2006-03-01/">us-east-1</LocationConstraint>`)
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.puts[path] = body
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{puts: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	up, err := s3.New(s3.Config{Endpoint: u.Host, AccessKey: "a", SecretKey: "b", Bucket: "exports"})
	require.NoError(t, err)

	p := builder.Project{ID: "p1", Name: "Demo"}
	key, err := up.Upload(context.Background(), p, []builder.Page{{Path: "/", Content: "home"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "p1/demo.zip", key)

	fake.mu.Lock()
	body, ok := fake.puts["exports/p1/demo.zip"]
	fake.mu.Unlock()
	require.True(t, ok, "archive not uploaded")
	assert.NotEmpty(t, body)

	link, err := up.URL(context.Background(), key, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, link, "/exports/p1/demo.zip")
}

func TestUploadRequiresProjectID(t *testing.T) {
	t.Parallel()

	up, err := s3.New(s3.Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "exports"})
	require.NoError(t, err)
	_, err = up.Upload(context.Background(), builder.Project{Name: "x"}, nil, nil)
	require.Error(t, err)
}
