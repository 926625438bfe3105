// Package engine owns the state of a single tic-tac-toe game: board, turn,
// mode and player names. It derives the status after every mutation and plays
// the AI's move after a fixed delay when the AI is to move.
package engine

import (
	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/game"
	"log/slog"
	"sync"
	"time"
)

// DefaultAIDelay is how long the AI waits before placing its mark.
const DefaultAIDelay = 500 * time.Millisecond

// State is a snapshot of a game.
type State struct {
	Board       game.Board
	ActiveMark  game.PlayerMark
	Mode        game.Mode
	Player1Name string
	Player2Name string
	Winner      game.PlayerMark
	Result      game.GameResult
	Status      string
	// WinningLine holds the completed triple, nil while nobody has won.
	WinningLine []int
	// Generation changes on every board mutation, reset and mode change.
	Generation uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithAIDelay overrides DefaultAIDelay.
func WithAIDelay(d time.Duration) Option {
	return func(e *Engine) { e.aiDelay = d }
}

// WithScheduler replaces the runtime timer, mostly for tests.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithMoveCalculator replaces the uniform random AI.
func WithMoveCalculator(c bot.MoveCalculator) Option {
	return func(e *Engine) { e.calculator = c }
}

// WithObserver registers an observer. It may be given more than once.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithPlayerNames sets the initial names.
func WithPlayerNames(player1, player2 string) Option {
	return func(e *Engine) {
		e.state.Player1Name = player1
		e.state.Player2Name = player2
	}
}

// Engine is safe for concurrent use. All commands are serialised.
type Engine struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	state   State
	pending Timer
	closed  bool

	aiDelay    time.Duration
	scheduler  Scheduler
	calculator bot.MoveCalculator
	observers  []Observer
}

// New creates an engine with an empty board, X to move, multiplayer mode.
func New(opts ...Option) *Engine {
	e := &Engine{
		state: State{
			ActiveMark:  game.PlayerX,
			Mode:        game.Multiplayer,
			Player1Name: DefaultPlayer1Name,
			Player2Name: DefaultPlayer2Name,
		},
		aiDelay:    DefaultAIDelay,
		scheduler:  RealScheduler,
		calculator: bot.NewRandomMoveCalculator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.deriveLocked()
	return e
}

// SubmitMove places the active mark at index. Occupied cells, out of range
// indices and decided games are ignored. It reports whether the move was
// applied.
func (e *Engine) SubmitMove(index int) bool {
	e.mu.Lock()
	if !e.applyMoveLocked(index) {
		e.mu.Unlock()
		return false
	}
	e.publishLocked(true)
	return true
}

// Reset clears the board and gives the turn to X. Any pending AI move is
// cancelled.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.resetLocked()
	e.publishLocked(false)
}

// SetMode switches between multiplayer and AI play and resets the game.
// Unknown modes are ignored.
func (e *Engine) SetMode(mode game.Mode) {
	if !mode.Valid() {
		return
	}
	e.mu.Lock()
	e.state.Mode = mode
	e.resetLocked()
	e.publishLocked(false)
}

// SetPlayerName renames player 1 or 2. The board and turn are untouched;
// other slots are ignored.
func (e *Engine) SetPlayerName(slot int, name string) {
	e.mu.Lock()
	switch slot {
	case 1:
		e.state.Player1Name = name
	case 2:
		e.state.Player2Name = name
	default:
		e.mu.Unlock()
		return
	}
	e.deriveLocked()
	e.publishLocked(false)
}

// Close cancels the pending AI move and stops scheduling new ones.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.cancelPendingLocked()
}

// State returns a snapshot of the current game.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Board returns a copy of the nine cells.
func (e *Engine) Board() game.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Board
}

func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Status
}

// Winner returns the winning mark, or game.None.
func (e *Engine) Winner() game.PlayerMark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Winner
}

func (e *Engine) Mode() game.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Mode
}

func (e *Engine) ActiveMark() game.PlayerMark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ActiveMark
}

func (e *Engine) PlayerNames() (player1, player2 string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Player1Name, e.state.Player2Name
}

func (e *Engine) applyMoveLocked(index int) bool {
	if !game.InBounds(index) || e.state.Board[index] != game.None || e.state.Result.Decided() {
		return false
	}
	e.state.Board[index] = e.state.ActiveMark
	e.state.ActiveMark = e.state.ActiveMark.Opponent()
	e.advanceLocked()
	return true
}

func (e *Engine) resetLocked() {
	e.state.Board = game.Board{}
	e.state.ActiveMark = game.PlayerX
	e.advanceLocked()
}

// advanceLocked starts a new generation: the pending AI move is dropped, the
// status is derived again and a new AI move is scheduled if it is the AI's
// turn.
func (e *Engine) advanceLocked() {
	e.state.Generation++
	e.cancelPendingLocked()
	e.deriveLocked()

	if e.closed || !e.aiTurnLocked() {
		return
	}
	gen := e.state.Generation
	e.pending = e.scheduler.AfterFunc(e.aiDelay, func() { e.playAI(gen) })
}

func (e *Engine) cancelPendingLocked() {
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
}

func (e *Engine) aiTurnLocked() bool {
	return e.state.Mode == game.VsAI &&
		e.state.ActiveMark == game.PlayerO &&
		!e.state.Result.Decided()
}

// playAI runs on the scheduler's goroutine. A timer that lost the race with
// Stop still finds a newer generation and does nothing.
func (e *Engine) playAI(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.state.Generation || !e.aiTurnLocked() {
		e.mu.Unlock()
		return
	}
	e.pending = nil

	index := e.calculator.CalculateNextMove(e.state.Board)
	if !e.applyMoveLocked(index) {
		e.mu.Unlock()
		slog.Warn("AI picked an unplayable cell", "cell.index", index, "generation", gen)
		return
	}
	slog.Debug("AI moved", "cell.index", index, "generation", gen)
	e.publishLocked(true)
}

func (e *Engine) deriveLocked() {
	s := &e.state
	s.Result = game.Evaluate(s.Board)
	s.Winner = game.CheckWinner(s.Board)
	s.Status = DeriveStatus(s.Board, s.ActiveMark, s.Mode, s.Player1Name, s.Player2Name)
}

func (e *Engine) snapshotLocked() State {
	snap := e.state
	if line, ok := game.WinningLine(snap.Board); ok {
		snap.WinningLine = line[:]
	}
	return snap
}

// publishLocked releases e.mu and notifies observers. notifyMu is taken before
// e.mu is released so that notifications keep mutation order.
func (e *Engine) publishLocked(sound bool) {
	snap := e.snapshotLocked()
	e.notifyMu.Lock()
	e.mu.Unlock()
	defer e.notifyMu.Unlock()

	for _, o := range e.observers {
		if sound {
			o.MoveSound()
		}
		o.StateChanged(snap)
	}
}
