// Package http serves the preview render surface: the latest published
// content over polling, server-sent events and websockets, rendered
// component and project previews, project export downloads and metrics.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/html"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Defaults.
const (
	DefaultKeepAlive       = 15 * time.Second
	DefaultShutdownTimeout = 5 * time.Second

	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

// Server is the preview HTTP server.
type Server struct {
	preview  builder.PreviewChannel
	store    builder.ProjectStore
	renderer *html.Renderer
	log      *zap.Logger
	origins  []string

	keepAlive time.Duration
	registry  *prometheus.Registry
	metrics   *metrics
	upgrader  websocket.Upgrader
	engine    *gin.Engine
}

// Option configures a [Server].
type Option func(*Server)

// WithStore enables the project preview and export routes.
func WithStore(s builder.ProjectStore) Option {
	return func(srv *Server) { srv.store = s }
}

// WithRenderer sets the renderer used for HTML previews.
func WithRenderer(r *html.Renderer) Option {
	return func(srv *Server) { srv.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(srv *Server) { srv.log = l }
}

// WithAllowedOrigins restricts cross-origin access. All origins are
// allowed by default.
func WithAllowedOrigins(origins ...string) Option {
	return func(srv *Server) { srv.origins = origins }
}

// WithKeepAlive sets the interval of SSE keep-alive comments.
func WithKeepAlive(d time.Duration) Option {
	return func(srv *Server) { srv.keepAlive = d }
}

// NewServer creates a Server publishing to and reading from preview.
func NewServer(preview builder.PreviewChannel, opts ...Option) *Server {
	s := &Server{
		preview:   preview,
		log:       zap.NewNop(),
		keepAlive: DefaultKeepAlive,
		registry:  prometheus.NewRegistry(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.renderer == nil {
		s.renderer = html.NewRenderer(html.WithLogger(s.log))
	}
	s.metrics = newMetrics(s.registry)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Registry returns the registry backing the metrics route.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	cfg := cors.DefaultConfig()
	if len(s.origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	r.Use(cors.New(cfg))

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	p := r.Group("/preview")
	p.GET("", s.handleLatest)
	p.POST("", s.handlePublish)
	p.GET("/events", s.handleEvents)
	p.GET("/ws", s.handleWebsocket)
	p.GET("/render", s.handleRender)

	if s.store != nil {
		r.GET("/projects/:id/preview", s.handleProjectPreview)
		r.GET("/projects/:id/export", s.handleExport)
	}
	return r
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range s.origins {
		if o == origin {
			return true
		}
	}
	return false
}

// Run listens on addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("preview server listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
