// Package session binds one websocket connection to one game engine.
package session

import (
	"cmp"
	"context"
	"ctchen222/tictactoe/internal/engine"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/sound"
	"ctchen222/tictactoe/internal/telemetry"
	"ctchen222/tictactoe/pkg/proto"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	heartbeatInterval = 10 * time.Second
	sendBufferSize    = 32
)

var tracer = otel.Tracer("session")

var (
	ErrClosed         = errors.New("session closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Config holds the per-session game settings.
type Config struct {
	AIDelay     time.Duration
	Player1Name string
	Player2Name string
	// SoundSrc is the URL sent to the browser on every move. Empty means the
	// session never sends sound messages.
	SoundSrc string
}

// Session owns an engine and mirrors its state to the browser. It is the
// engine's observer.
type Session struct {
	ID string

	conn    Connection
	engine  *engine.Engine
	metrics *telemetry.Metrics
	sound   sound.Player

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Only touched from engine notifications, which never overlap.
	moved   bool
	decided bool
}

// New creates a session for conn. Extra engine options are applied after the
// ones derived from cfg.
func New(conn Connection, cfg Config, metrics *telemetry.Metrics, opts ...engine.Option) *Session {
	s := &Session{
		ID:      uuid.New().String(),
		conn:    conn,
		metrics: metrics,
		sound:   sound.Nop{},
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
	}

	if cfg.SoundSrc != "" {
		cue, _ := json.Marshal(proto.SoundMessage{Type: proto.TypeSound, Src: cfg.SoundSrc})
		s.sound = sound.NewSafePlayer("websocket", func() error {
			if err := s.enqueue(cue); errors.Is(err, ErrClosed) {
				return err
			}
			return nil
		})
	}

	engineOpts := []engine.Option{
		engine.WithObserver(s),
		engine.WithPlayerNames(
			cmp.Or(cfg.Player1Name, engine.DefaultPlayer1Name),
			cmp.Or(cfg.Player2Name, engine.DefaultPlayer2Name),
		),
	}
	if cfg.AIDelay > 0 {
		engineOpts = append(engineOpts, engine.WithAIDelay(cfg.AIDelay))
	}
	s.engine = engine.New(append(engineOpts, opts...)...)
	return s
}

// Engine returns the game this session drives.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run sends the initial state and serves the connection until it fails or
// the session is closed.
func (s *Session) Run(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.Run", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	go s.writePump(ctx)
	s.pushState(ctx, s.engine.State())
	s.ReadPump(ctx)
}

// Close stops the engine and the connection. It is safe to call more than
// once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.engine.Close()
		close(s.done)
		if err := s.conn.Close(); err != nil {
			slog.Debug("error closing connection", "session.id", s.ID, "error", err)
		}
	})
}

// ReadPump feeds frames from the connection to HandleMessage. The session is
// closed when it returns.
func (s *Session) ReadPump(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "session.ReadPump", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()
	defer s.Close()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.InfoContext(ctx, "session disconnected", "session.id", s.ID)
				return
			}
			slog.WarnContext(ctx, "session connection error", "session.id", s.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Session connection error")
			return
		}
		s.HandleMessage(ctx, msg)
	}
}

// HandleMessage decodes one client frame and applies it to the engine.
// Invalid frames are logged and dropped.
func (s *Session) HandleMessage(ctx context.Context, raw []byte) {
	ctx, span := tracer.Start(ctx, "session.HandleMessage", trace.WithAttributes(
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	msg, err := proto.DecodeClientMessage(raw)
	if err != nil {
		slog.WarnContext(ctx, "invalid message from client", "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		return
	}
	span.SetAttributes(attribute.String("message.type", msg.Type))

	switch msg.Type {
	case proto.TypeMove:
		applied := s.engine.SubmitMove(*msg.Index)
		span.SetAttributes(
			attribute.Int("cell.index", *msg.Index),
			attribute.Bool("move.valid", applied),
		)
		if !applied {
			slog.DebugContext(ctx, "move ignored", "session.id", s.ID, "cell.index", *msg.Index)
		}
	case proto.TypeReset:
		s.engine.Reset()
	case proto.TypeMode:
		s.engine.SetMode(game.Mode(msg.Mode))
	case proto.TypeName:
		s.engine.SetPlayerName(msg.Slot, *msg.Name)
	}
}

// MoveSound implements engine.Observer.
func (s *Session) MoveSound() {
	s.moved = true
	s.sound.Play()
}

// StateChanged implements engine.Observer.
func (s *Session) StateChanged(state engine.State) {
	ctx := context.Background()

	if s.moved {
		s.moved = false
		s.metrics.RecordMove(ctx, state.Mode, state.ActiveMark.Opponent())
	}
	decided := state.Result.Decided()
	if decided && !s.decided {
		s.metrics.RecordFinished(ctx, state.Mode, state.Result)
	}
	s.decided = decided

	s.pushState(ctx, state)
}

// NewStateMessage converts an engine snapshot to its wire form.
func NewStateMessage(state engine.State) proto.StateMessage {
	return proto.StateMessage{
		Type:    proto.TypeState,
		Board:   state.Board,
		Next:    state.ActiveMark,
		Winner:  state.Winner,
		Status:  state.Status,
		Mode:    state.Mode,
		Player1: state.Player1Name,
		Player2: state.Player2Name,
		Result:  state.Result,
		Line:    state.WinningLine,
	}
}

func (s *Session) pushState(ctx context.Context, state engine.State) {
	data, err := json.Marshal(NewStateMessage(state))
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling state", "session.id", s.ID, "error", err)
		return
	}
	if err := s.enqueue(data); err != nil && !errors.Is(err, ErrClosed) {
		slog.WarnContext(ctx, "dropping state update", "session.id", s.ID, "error", err)
	}
}

// enqueue never blocks; engine notifications must not wait on the network.
func (s *Session) enqueue(data []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.send <- data:
		return nil
	case <-s.done:
		return ErrClosed
	default:
		return ErrSendBufferFull
	}
}

// writePump is the only writer of data frames on the connection.
func (s *Session) writePump(ctx context.Context) {
	pingTicker := time.NewTicker(heartbeatInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-s.done:
			return

		case data := <-s.send:
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.WarnContext(ctx, "error writing message to client", "session.id", s.ID, "error", err)
				s.Close()
				return
			}

		case <-pingTicker.C:
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.WarnContext(ctx, "failed to send ping, assuming disconnect", "session.id", s.ID, "error", err)
				s.Close()
				return
			}
		}
	}
}
