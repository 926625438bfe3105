// Package hub keeps track of the live websocket sessions.
package hub

import (
	"context"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/internal/telemetry"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("hub")

// Hub manages all the sessions. The session map is owned by Run.
type Hub struct {
	sessions   map[string]*session.Session
	register   chan *session.Session
	unregister chan *session.Session
	metrics    *telemetry.Metrics
	active     atomic.Int64
	done       chan struct{}
}

// NewHub creates a new hub.
func NewHub(metrics *telemetry.Metrics) *Hub {
	return &Hub{
		sessions:   make(map[string]*session.Session),
		register:   make(chan *session.Session),
		unregister: make(chan *session.Session),
		metrics:    metrics,
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// session still open.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll(context.WithoutCancel(ctx))
			return

		case s := <-h.register:
			h.sessions[s.ID] = s
			h.active.Add(1)
			h.metrics.SessionOpened(ctx)
			slog.InfoContext(ctx, "session registered", "session.id", s.ID, "sessions.active", len(h.sessions))

		case s := <-h.unregister:
			if _, ok := h.sessions[s.ID]; !ok {
				continue
			}
			delete(h.sessions, s.ID)
			h.active.Add(-1)
			h.metrics.SessionClosed(ctx)
			slog.InfoContext(ctx, "session unregistered", "session.id", s.ID, "sessions.active", len(h.sessions))
		}
	}
}

func (h *Hub) closeAll(ctx context.Context) {
	slog.InfoContext(ctx, "closing sessions", "sessions.active", len(h.sessions))
	for id, s := range h.sessions {
		s.Close()
		delete(h.sessions, id)
		h.active.Add(-1)
		h.metrics.SessionClosed(ctx)
	}
}

// Register adds s to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(s *session.Session) bool {
	select {
	case h.register <- s:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes s. Unknown sessions are ignored.
func (h *Hub) Unregister(s *session.Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Serve registers s, runs it until the connection ends and unregisters it.
func (h *Hub) Serve(ctx context.Context, s *session.Session) {
	ctx, span := tracer.Start(ctx, "hub.Serve", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	if !h.Register(s) {
		slog.WarnContext(ctx, "hub stopped, rejecting session", "session.id", s.ID)
		span.SetStatus(codes.Error, "Hub stopped")
		s.Close()
		return
	}
	defer h.Unregister(s)

	s.Run(ctx)
}

// Active returns the number of registered sessions.
func (h *Hub) Active() int {
	return int(h.active.Load())
}

// Done is closed when Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
