package http_test

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/builder"
	builderhttp "github.com/fwojciec/builder/http"
	"github.com/fwojciec/builder/mock"
	"github.com/fwojciec/builder/preview"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const buttonSource = `export default function Button() {
  return <button className="btn">Go</button>;
}`

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := builderhttp.NewServer(preview.NewChannel())
	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPublishAndLatest(t *testing.T) {
	t.Parallel()

	srv := builderhttp.NewServer(preview.NewChannel())
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/preview", "")
	assert.JSONEq(t, `{"content":""}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/preview", `{"content":"<div>hi</div>"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/preview", "")
	assert.JSONEq(t, `{"content":"<div>hi</div>"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/preview", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublishFailure(t *testing.T) {
	t.Parallel()

	ch := &mock.PreviewChannel{
		PublishFn: func(context.Context, string) error { return fmt.Errorf("down") },
	}
	srv := builderhttp.NewServer(ch)
	rec := do(t, srv.Handler(), http.MethodPost, "/preview", `{"content":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	ch := preview.NewChannel()
	require.NoError(t, ch.Publish(context.Background(), "first"))
	ts := httptest.NewServer(builderhttp.NewServer(ch).Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/preview/events", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				lines <- sc.Text()
			}
		}
		close(lines)
	}()
	next := func() string {
		select {
		case l := <-lines:
			return l
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return ""
		}
	}

	assert.Equal(t, `data: {"content":"first"}`, next())
	require.NoError(t, ch.Publish(context.Background(), "second"))
	assert.Equal(t, `data: {"content":"second"}`, next())
}

func TestWebsocket(t *testing.T) {
	t.Parallel()

	ch := preview.NewChannel()
	require.NoError(t, ch.Publish(context.Background(), "first"))
	ts := httptest.NewServer(builderhttp.NewServer(ch).Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/preview/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg builderhttp.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, builderhttp.Message{Type: "content", Content: "first"}, msg)

	require.NoError(t, ch.Publish(context.Background(), "second"))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "second", msg.Content)
}

func TestWebsocketOrigin(t *testing.T) {
	t.Parallel()

	srv := builderhttp.NewServer(preview.NewChannel(), builderhttp.WithAllowedOrigins("http://allowed.test"))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/preview/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.test"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRender(t *testing.T) {
	t.Parallel()

	ch := preview.NewChannel()
	srv := builderhttp.NewServer(ch)
	require.NoError(t, ch.Publish(context.Background(), buttonSource))

	rec := do(t, srv.Handler(), http.MethodGet, "/preview/render?name=Button", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<button class="btn">Go</button>`)
	assert.Contains(t, rec.Body.String(), "<title>Button - Preview</title>")

	require.NoError(t, ch.Publish(context.Background(), "garbage"))
	rec = do(t, srv.Handler(), http.MethodGet, "/preview/render?name=Button", "")
	assert.Contains(t, rec.Body.String(), "Error rendering component: Button")
}

func projectStore() *mock.Store {
	return &mock.Store{
		ProjectFn: func(_ context.Context, id string) (builder.Project, error) {
			if id != "p1" {
				return builder.Project{}, builder.ErrNotFound
			}
			return builder.Project{ID: "p1", Name: "My Shop"}, nil
		},
		ProjectPagesFn: func(context.Context, string) ([]builder.Page, error) {
			return []builder.Page{{
				Name:    "Home",
				Path:    "/",
				Content: `export default function Home() { return <main><Button /></main>; }`,
			}}, nil
		},
		ProjectComponentsFn: func(context.Context, string) ([]builder.Component, error) {
			return []builder.Component{{Name: "Button", Code: buttonSource}}, nil
		},
	}
}

func TestProjectRoutes(t *testing.T) {
	t.Parallel()

	srv := builderhttp.NewServer(preview.NewChannel(), builderhttp.WithStore(projectStore()))
	h := srv.Handler()

	t.Run("preview", func(t *testing.T) {
		t.Parallel()
		rec := do(t, h, http.MethodGet, "/projects/p1/preview", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `<main><button class="btn">Go</button></main>`)
	})

	t.Run("export", func(t *testing.T) {
		t.Parallel()
		rec := do(t, h, http.MethodGet, "/projects/p1/export", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="my-shop.zip"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
	})

	t.Run("unknown project", func(t *testing.T) {
		t.Parallel()
		rec := do(t, h, http.MethodGet, "/projects/nope/preview", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProjectRoutesRequireStore(t *testing.T) {
	t.Parallel()

	srv := builderhttp.NewServer(preview.NewChannel())
	rec := do(t, srv.Handler(), http.MethodGet, "/projects/p1/preview", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	srv := builderhttp.NewServer(preview.NewChannel())
	h := srv.Handler()
	do(t, h, http.MethodGet, "/healthz", "")
	do(t, h, http.MethodPost, "/preview", `{"content":"x"}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `builder_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
	assert.Contains(t, body, `builder_preview_publishes_total 1`)
}

func TestServe(t *testing.T) {
	t.Parallel()

	srv := builderhttp.NewServer(preview.NewChannel())
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx, "127.0.0.1:0") }()
	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
