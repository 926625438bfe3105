package telemetry

import (
	"context"
	"ctchen222/tictactoe/internal/game"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ctchen222/tictactoe"

// Metrics groups the game instruments.
type Metrics struct {
	movesPlayed    metric.Int64Counter
	gamesFinished  metric.Int64Counter
	activeSessions metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on meter. A nil meter means the global
// meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	moves, err := meter.Int64Counter("tictactoe.moves",
		metric.WithDescription("Moves applied to a board"),
		metric.WithUnit("{move}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create moves counter: %w", err)
	}
	games, err := meter.Int64Counter("tictactoe.games.finished",
		metric.WithDescription("Games that ended in a win or a draw"),
		metric.WithUnit("{game}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create games counter: %w", err)
	}
	sessions, err := meter.Int64UpDownCounter("tictactoe.sessions.active",
		metric.WithDescription("Open websocket sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions counter: %w", err)
	}

	return &Metrics{movesPlayed: moves, gamesFinished: games, activeSessions: sessions}, nil
}

// RecordMove counts one applied move.
func (m *Metrics) RecordMove(ctx context.Context, mode game.Mode, mark game.PlayerMark) {
	m.movesPlayed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("game.mode", string(mode)),
		attribute.String("move.mark", string(mark)),
	))
}

// RecordFinished counts one decided game.
func (m *Metrics) RecordFinished(ctx context.Context, mode game.Mode, result game.GameResult) {
	m.gamesFinished.Add(ctx, 1, metric.WithAttributes(
		attribute.String("game.mode", string(mode)),
		attribute.String("game.result", string(result)),
	))
}

func (m *Metrics) SessionOpened(ctx context.Context) {
	m.activeSessions.Add(ctx, 1)
}

func (m *Metrics) SessionClosed(ctx context.Context) {
	m.activeSessions.Add(ctx, -1)
}
