package server

import (
	"context"
	"ctchen222/tictactoe/internal/hub"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/internal/sound"
	"ctchen222/tictactoe/internal/telemetry"
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SoundRoute serves the move sound to the browser.
const SoundRoute = "/assets/move"

//go:embed web/index.html
var indexHTML []byte

var tracer = otel.Tracer("server")

type Server struct {
	hub      *hub.Hub
	metrics  *telemetry.Metrics
	session  session.Config
	asset    *sound.Asset
	upgrader websocket.Upgrader
	router   *gin.Engine
}

// NewServer wires the routes. A nil asset disables the sound route and the
// sound messages.
func NewServer(h *hub.Hub, metrics *telemetry.Metrics, cfg session.Config, asset *sound.Asset) *Server {
	cfg.SoundSrc = ""
	if asset != nil {
		cfg.SoundSrc = SoundRoute
	}

	s := &Server{
		hub:     h,
		metrics: metrics,
		session: cfg,
		asset:   asset,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.router = s.routes()
	return s
}

// Engine returns the HTTP handler.
func (s *Server) Engine() *gin.Engine {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/", s.handleIndex)
	r.GET("/ws", s.handleWebSocket)
	r.GET(SoundRoute, s.handleSound)
	r.GET("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) handleSound(c *gin.Context) {
	if s.asset == nil {
		ErrorResponse(c, http.StatusNotFound, "move sound not available")
		return
	}
	c.File(s.asset.Path)
}

func (s *Server) handleHealth(c *gin.Context) {
	SuccessResponse(c, gin.H{"status": "ok", "sessions": s.hub.Active()})
}

// handleWebSocket upgrades the connection and serves one game over it until
// the client goes away.
func (s *Server) handleWebSocket(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
		attribute.String("http.method", c.Request.Method),
	))
	defer span.End()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	sess := session.New(conn, s.session, s.metrics)
	span.SetAttributes(attribute.String("session.id", sess.ID))
	slog.InfoContext(ctx, "session connected", "session.id", sess.ID, "remote.addr", c.ClientIP())

	s.hub.Serve(context.WithoutCancel(ctx), sess)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "http request",
			"http.method", c.Request.Method,
			"http.path", c.Request.URL.Path,
			"http.status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
