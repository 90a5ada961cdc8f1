package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fwojciec/builder"
	"github.com/fwojciec/builder/export"
	"github.com/fwojciec/builder/html"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Content is the JSON body of preview reads, writes and pushes.
type Content struct {
	Content string `json:"content"`
}

// Message is the frame sent to websocket subscribers.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleLatest(c *gin.Context) {
	content, err := s.preview.Latest(c.Request.Context())
	if err != nil {
		s.log.Error("preview read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read preview"})
		return
	}
	c.JSON(http.StatusOK, Content{Content: content})
}

func (s *Server) handlePublish(c *gin.Context) {
	var body Content
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preview body"})
		return
	}
	if err := s.preview.Publish(c.Request.Context(), body.Content); err != nil {
		s.log.Error("preview publish failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update preview"})
		return
	}
	s.metrics.publishes.Inc()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleEvents streams every preview content as an SSE data frame,
// starting with the current one.
func (s *Server) handleEvents(c *gin.Context) {
	ctx := c.Request.Context()
	updates, err := s.preview.Subscribe(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to subscribe"})
		return
	}
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	gauge := s.metrics.subscribers.WithLabelValues("sse")
	gauge.Inc()
	defer gauge.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()
		case content, ok := <-updates:
			if !ok {
				return
			}
			data, _ := json.Marshal(Content{Content: content})
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleWebsocket pushes every preview content as a JSON [Message].
// Frames from the client are read only to observe pongs and close.
func (s *Server) handleWebsocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		s.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	updates, err := s.preview.Subscribe(ctx)
	if err != nil {
		s.log.Error("preview subscribe failed", zap.Error(err))
		return
	}
	gauge := s.metrics.subscribers.WithLabelValues("websocket")
	gauge.Inc()
	defer gauge.Dec()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case content, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(Message{Type: "content", Content: content}); err != nil {
				s.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
	}
}

// handleRender renders the latest content as a standalone document.
func (s *Server) handleRender(c *gin.Context) {
	content, err := s.preview.Latest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read preview"})
		return
	}
	name := c.DefaultQuery("name", "Preview")
	doc := html.Document(name+" - Preview", s.renderer.Render(name, content), c.Query("ui") == export.MaterialUI)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

func (s *Server) loadProject(c *gin.Context) (builder.Project, []builder.Page, []builder.Component, bool) {
	ctx := c.Request.Context()
	id := c.Param("id")
	p, err := s.store.Project(ctx, id)
	if errors.Is(err, builder.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return builder.Project{}, nil, nil, false
	}
	if err != nil {
		s.log.Error("project lookup failed", zap.String("project", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load project"})
		return builder.Project{}, nil, nil, false
	}
	pages, err := s.store.ProjectPages(ctx, id)
	if err != nil {
		s.log.Error("pages lookup failed", zap.String("project", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load project"})
		return builder.Project{}, nil, nil, false
	}
	components, err := s.store.ProjectComponents(ctx, id)
	if err != nil {
		s.log.Error("components lookup failed", zap.String("project", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load project"})
		return builder.Project{}, nil, nil, false
	}
	return p, pages, components, true
}

func (s *Server) handleProjectPreview(c *gin.Context) {
	p, pages, components, ok := s.loadProject(c)
	if !ok {
		return
	}
	doc := s.renderer.RenderProject(p, pages, components)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

func (s *Server) handleExport(c *gin.Context) {
	p, pages, components, ok := s.loadProject(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Project(&buf, p, pages, components); err != nil {
		s.log.Error("export failed", zap.String("project", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate project files"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.ArchiveName(p)))
	c.DataFromReader(http.StatusOK, int64(buf.Len()), "application/zip", &buf, nil)
}
