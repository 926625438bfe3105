package engine_test

import (
	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/engine"
	"ctchen222/tictactoe/internal/engine/mocks"
	"ctchen222/tictactoe/internal/game"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// fakeScheduler records scheduled calls; tests fire them by hand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) engine.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fireNext fires the single pending timer.
func (s *fakeScheduler) fireNext(t *testing.T) {
	t.Helper()
	p := s.pending()
	require.Len(t, p, 1, "expected exactly one pending AI move")
	p[0].fired = true
	p[0].f()
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

// recorder collects notifications.
type recorder struct {
	mu     sync.Mutex
	states []engine.State
	sounds int
}

func (r *recorder) StateChanged(s engine.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) MoveSound() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sounds++
}

func (r *recorder) soundCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sounds
}

// scripted plays the given cells in order.
func scripted(cells ...int) bot.MoveCalculator {
	var mu sync.Mutex
	return bot.MoveCalculatorFunc(func(game.Board) int {
		mu.Lock()
		defer mu.Unlock()
		next := cells[0]
		cells = cells[1:]
		return next
	})
}

func newTestEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *fakeScheduler, *recorder) {
	t.Helper()
	sched := &fakeScheduler{}
	rec := &recorder{}
	opts = append([]engine.Option{engine.WithScheduler(sched), engine.WithObserver(rec)}, opts...)
	return engine.New(opts...), sched, rec
}

func playAll(t *testing.T, e *engine.Engine, cells ...int) {
	t.Helper()
	for _, c := range cells {
		require.True(t, e.SubmitMove(c), "move %d rejected", c)
	}
}

func TestNew_InitialState(t *testing.T) {
	e, sched, _ := newTestEngine(t)

	s := e.State()
	assert.Equal(t, game.Board{}, s.Board)
	assert.Equal(t, game.PlayerX, s.ActiveMark)
	assert.Equal(t, game.Multiplayer, s.Mode)
	assert.Equal(t, game.None, s.Winner)
	assert.Equal(t, game.InProgress, s.Result)
	assert.Equal(t, "Player 1's Turn", s.Status)
	assert.Nil(t, s.WinningLine)
	assert.Empty(t, sched.pending())

	p1, p2 := e.PlayerNames()
	assert.Equal(t, "Player 1", p1)
	assert.Equal(t, "Player 2", p2)
}

func TestSubmitMove_FirstMove(t *testing.T) {
	// Given: an empty multiplayer board
	e, _, rec := newTestEngine(t)

	// When: X plays the top-left cell
	applied := e.SubmitMove(0)

	// Then: the cell holds X and it is player 2's turn
	require.True(t, applied)
	assert.Equal(t, game.PlayerX, e.Board()[0])
	assert.Equal(t, game.PlayerO, e.ActiveMark())
	assert.Equal(t, "Player 2's Turn", e.Status())
	assert.Equal(t, 1, rec.soundCount())
	require.Len(t, rec.states, 1)
	assert.Equal(t, "Player 2's Turn", rec.states[0].Status)
}

func TestSubmitMove_XWinsTopRow(t *testing.T) {
	e, _, _ := newTestEngine(t)

	playAll(t, e, 0, 3, 1, 4, 2)

	s := e.State()
	assert.Equal(t, game.Board{
		game.PlayerX, game.PlayerX, game.PlayerX,
		game.PlayerO, game.PlayerO, game.None,
		game.None, game.None, game.None,
	}, s.Board)
	assert.Equal(t, game.PlayerX, s.Winner)
	assert.Equal(t, game.XWins, s.Result)
	assert.Equal(t, "Player 1 wins!", s.Status)
	assert.Equal(t, []int{0, 1, 2}, s.WinningLine)
}

func TestSubmitMove_OWinsMultiplayer(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetPlayerName(2, "Bob")

	playAll(t, e, 0, 2, 1, 4, 8, 6)

	assert.Equal(t, game.PlayerO, e.Winner())
	assert.Equal(t, "Bob wins!", e.Status())
}

func TestSubmitMove_Draw(t *testing.T) {
	e, _, _ := newTestEngine(t)

	playAll(t, e, 0, 1, 2, 4, 3, 5, 7, 6, 8)

	s := e.State()
	assert.Equal(t, game.Draw, s.Result)
	assert.Equal(t, game.None, s.Winner)
	assert.Equal(t, "It's a draw!", s.Status)
	assert.Nil(t, s.WinningLine)
}

func TestSubmitMove_IgnoredMovesHaveNoSideEffects(t *testing.T) {
	tests := []struct {
		name  string
		setup []int
		move  int
	}{
		{"occupied cell", []int{4}, 4},
		{"negative index", nil, -1},
		{"index past the board", nil, 9},
		{"game already won", []int{0, 3, 1, 4, 2}, 8},
		{"game drawn", []int{0, 1, 2, 4, 3, 5, 7, 6, 8}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			obs := mocks.NewMockObserver(ctrl)
			// Notifications are expected only for the setup moves.
			obs.EXPECT().MoveSound().Times(len(tt.setup))
			obs.EXPECT().StateChanged(gomock.Any()).Times(len(tt.setup))

			e := engine.New(engine.WithScheduler(&fakeScheduler{}), engine.WithObserver(obs))
			playAll(t, e, tt.setup...)
			before := e.State()

			assert.False(t, e.SubmitMove(tt.move))
			assert.Equal(t, before, e.State())
		})
	}
}

func TestSubmitMove_SoundThenState(t *testing.T) {
	ctrl := gomock.NewController(t)
	obs := mocks.NewMockObserver(ctrl)
	gomock.InOrder(
		obs.EXPECT().MoveSound(),
		obs.EXPECT().StateChanged(gomock.Cond(func(x any) bool {
			s, ok := x.(engine.State)
			return ok && s.Board[4] == game.PlayerX && s.ActiveMark == game.PlayerO
		})),
	)

	e := engine.New(engine.WithScheduler(&fakeScheduler{}), engine.WithObserver(obs))
	e.SubmitMove(4)
}

func TestSubmitMove_ExactlyOneCellChanges(t *testing.T) {
	e, _, _ := newTestEngine(t)
	moves := []int{4, 0, 8, 2, 6}
	for _, m := range moves {
		before := e.Board()
		require.True(t, e.SubmitMove(m))
		after := e.Board()

		changed := 0
		for i := range before {
			if before[i] != after[i] {
				changed++
				assert.Equal(t, m, i)
				assert.Equal(t, game.None, before[i])
			}
		}
		assert.Equal(t, 1, changed)
	}
}

func TestTurnAlternation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	// No three-in-a-row appears before the ninth move of this sequence.
	moves := []int{0, 1, 2, 4, 3, 5, 7, 6, 8}
	for n, m := range moves {
		require.True(t, e.SubmitMove(m))
		wantX := (n+1)%2 == 0
		assert.Equal(t, wantX, e.ActiveMark() == game.PlayerX, "after %d moves", n+1)
	}
}

func TestReset(t *testing.T) {
	tests := []struct {
		name  string
		moves []int
	}{
		{"fresh game", nil},
		{"mid game", []int{0, 4, 8}},
		{"won game", []int{0, 3, 1, 4, 2}},
		{"drawn game", []int{0, 1, 2, 4, 3, 5, 7, 6, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, rec := newTestEngine(t)
			playAll(t, e, tt.moves...)
			sounds := rec.soundCount()

			e.Reset()

			s := e.State()
			assert.Equal(t, game.Board{}, s.Board)
			assert.Equal(t, game.PlayerX, s.ActiveMark)
			assert.Equal(t, game.None, s.Winner)
			assert.Equal(t, game.InProgress, s.Result)
			assert.Equal(t, "Player 1's Turn", s.Status)
			assert.Equal(t, sounds, rec.soundCount(), "reset must not play a sound")
		})
	}
}

func TestReset_UsesCurrentPlayer1Name(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetPlayerName(1, "Alice")
	playAll(t, e, 0)

	e.Reset()

	assert.Equal(t, "Alice's Turn", e.Status())
}

func TestSetPlayerName(t *testing.T) {
	// Given: a renamed player 1
	e, _, _ := newTestEngine(t)
	e.SetPlayerName(1, "Alice")
	board := e.Board()
	assert.Equal(t, board, e.Board())

	// When: X and then O move without a winner
	playAll(t, e, 0)
	assert.Equal(t, "Player 2's Turn", e.Status())
	playAll(t, e, 4)

	// Then: the status uses the updated name
	assert.Equal(t, "Alice's Turn", e.Status())

	e.SetPlayerName(2, "")
	playAll(t, e, 8)
	assert.Equal(t, "'s Turn", e.Status(), "empty names are allowed")

	e.SetPlayerName(3, "Nobody")
	p1, p2 := e.PlayerNames()
	assert.Equal(t, "Alice", p1)
	assert.Equal(t, "", p2)
}

func TestSetPlayerName_DoesNotTouchBoardOrTurn(t *testing.T) {
	e, _, rec := newTestEngine(t)
	playAll(t, e, 0)
	before := e.State()

	e.SetPlayerName(2, "Bob")

	after := e.State()
	assert.Equal(t, before.Board, after.Board)
	assert.Equal(t, before.ActiveMark, after.ActiveMark)
	assert.Equal(t, before.Generation, after.Generation)
	assert.Equal(t, "Bob's Turn", after.Status)
	assert.Equal(t, 1, rec.soundCount())
}

func TestSetMode(t *testing.T) {
	e, _, _ := newTestEngine(t)
	playAll(t, e, 0, 4)

	e.SetMode(game.VsAI)

	s := e.State()
	assert.Equal(t, game.VsAI, s.Mode)
	assert.Equal(t, game.Board{}, s.Board)
	assert.Equal(t, game.PlayerX, s.ActiveMark)
	assert.Equal(t, "Player 1's Turn", s.Status)

	e.SetMode(game.Mode("bot"))
	assert.Equal(t, game.VsAI, e.Mode(), "unknown modes are ignored")
}

func TestVsAI_StatusIgnoresPlayer2Name(t *testing.T) {
	e, sched, _ := newTestEngine(t, engine.WithMoveCalculator(scripted(3, 4, 5)))
	e.SetPlayerName(2, "Bob")
	e.SetMode(game.VsAI)

	playAll(t, e, 0)
	assert.Equal(t, "AI's Turn", e.Status())

	sched.fireNext(t)
	assert.Equal(t, "Player 1's Turn", e.Status())

	playAll(t, e, 1)
	sched.fireNext(t)
	playAll(t, e, 8)
	sched.fireNext(t)

	assert.Equal(t, game.PlayerO, e.Winner())
	assert.Equal(t, "AI wins!", e.Status())
}

func TestAIMove_AfterDelay(t *testing.T) {
	e, sched, rec := newTestEngine(t, engine.WithAIDelay(750*time.Millisecond))
	e.SetMode(game.VsAI)

	playAll(t, e, 4)
	require.Len(t, sched.pending(), 1)
	assert.Equal(t, 750*time.Millisecond, sched.last().delay)
	assert.Equal(t, game.PlayerO, e.ActiveMark(), "the AI has not moved before the delay")

	sched.fireNext(t)

	board := e.Board()
	marksO := 0
	for i, c := range board {
		if c == game.PlayerO {
			marksO++
			assert.NotEqual(t, 4, i)
		}
	}
	assert.Equal(t, 1, marksO)
	assert.Equal(t, game.PlayerX, e.ActiveMark())
	assert.Equal(t, 2, rec.soundCount(), "the AI move plays a sound too")
	assert.Empty(t, sched.pending())
}

func TestAIMove_DefaultDelay(t *testing.T) {
	e, sched, _ := newTestEngine(t)
	e.SetMode(game.VsAI)
	playAll(t, e, 0)

	assert.Equal(t, engine.DefaultAIDelay, sched.last().delay)
	assert.Equal(t, 500*time.Millisecond, engine.DefaultAIDelay)
}

func TestAIMove_NotScheduledInMultiplayer(t *testing.T) {
	e, sched, _ := newTestEngine(t)
	playAll(t, e, 0)
	assert.Empty(t, sched.timers)
}

func TestAIMove_CancelledByReset(t *testing.T) {
	e, sched, _ := newTestEngine(t)
	e.SetMode(game.VsAI)
	playAll(t, e, 0)
	stale := sched.last()

	e.Reset()

	assert.True(t, stale.stopped)
	assert.Empty(t, sched.pending())

	// A timer that already fired when Stop was called must not apply a move
	// to the new board.
	stale.f()
	assert.Equal(t, game.Board{}, e.Board())
	assert.Equal(t, game.PlayerX, e.ActiveMark())
}

func TestAIMove_CancelledBySetMode(t *testing.T) {
	e, sched, _ := newTestEngine(t)
	e.SetMode(game.VsAI)
	playAll(t, e, 0)
	stale := sched.last()

	e.SetMode(game.Multiplayer)

	assert.True(t, stale.stopped)
	stale.f()
	assert.Equal(t, game.Board{}, e.Board())
}

func TestAIMove_CancelledBySetModeSameMode(t *testing.T) {
	e, sched, _ := newTestEngine(t)
	e.SetMode(game.VsAI)
	playAll(t, e, 0)
	stale := sched.last()

	e.SetMode(game.VsAI)

	stale.f()
	assert.Equal(t, game.Board{}, e.Board())
	assert.Empty(t, sched.pending())
}

func TestAIMove_PreemptedByHumanMove(t *testing.T) {
	e, sched, _ := newTestEngine(t, engine.WithMoveCalculator(scripted(1)))
	e.SetMode(game.VsAI)
	playAll(t, e, 0)
	stale := sched.last()

	// The human plays O before the AI does.
	playAll(t, e, 8)

	assert.True(t, stale.stopped)
	stale.f()
	assert.Equal(t, game.None, e.Board()[1])
	assert.Equal(t, game.PlayerX, e.ActiveMark())
}

func TestAIMove_SurvivesNameChange(t *testing.T) {
	e, sched, _ := newTestEngine(t, engine.WithMoveCalculator(scripted(2)))
	e.SetMode(game.VsAI)
	playAll(t, e, 0)

	e.SetPlayerName(1, "Alice")

	sched.fireNext(t)
	assert.Equal(t, game.PlayerO, e.Board()[2])
	assert.Equal(t, "Alice's Turn", e.Status())
}

func TestAIMove_NotScheduledAfterDecidingMove(t *testing.T) {
	// X wins on move five; the AI must not be scheduled.
	e, sched, _ := newTestEngine(t, engine.WithMoveCalculator(scripted(3, 4)))
	e.SetMode(game.VsAI)

	playAll(t, e, 0)
	sched.fireNext(t)
	playAll(t, e, 1)
	sched.fireNext(t)
	playAll(t, e, 2)

	assert.Equal(t, game.PlayerX, e.Winner())
	assert.Equal(t, game.PlayerO, e.ActiveMark())
	assert.Empty(t, sched.pending())
}

func TestAIMove_UnplayableCellIsDropped(t *testing.T) {
	e, sched, rec := newTestEngine(t, engine.WithMoveCalculator(scripted(0)))
	e.SetMode(game.VsAI)
	playAll(t, e, 0)
	sounds := rec.soundCount()

	sched.fireNext(t)

	assert.Equal(t, game.PlayerO, e.ActiveMark())
	assert.Equal(t, sounds, rec.soundCount())
}

func TestClose_CancelsPendingAIMove(t *testing.T) {
	e, sched, _ := newTestEngine(t)
	e.SetMode(game.VsAI)
	playAll(t, e, 0)
	pending := sched.last()

	e.Close()

	assert.True(t, pending.stopped)
	pending.f()
	assert.Equal(t, game.PlayerO, e.ActiveMark())

	// Still playable by hand, but no AI is scheduled any more.
	playAll(t, e, 4)
	playAll(t, e, 1)
	assert.Empty(t, sched.pending())
}

func TestAIMove_RealTimer(t *testing.T) {
	rec := &recorder{}
	e := engine.New(engine.WithAIDelay(10*time.Millisecond), engine.WithObserver(rec))
	defer e.Close()
	e.SetMode(game.VsAI)

	playAll(t, e, 4)

	require.Eventually(t, func() bool {
		return rec.soundCount() == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, game.PlayerX, e.ActiveMark())
	assert.Len(t, game.EmptyCells(e.Board()), 7)
}

func TestAIMove_RealTimerCancelledByReset(t *testing.T) {
	e := engine.New(engine.WithAIDelay(50 * time.Millisecond))
	defer e.Close()
	e.SetMode(game.VsAI)

	playAll(t, e, 4)
	e.Reset()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, game.Board{}, e.Board())
	assert.Equal(t, game.PlayerX, e.ActiveMark())
}

func TestGeneration(t *testing.T) {
	e, _, _ := newTestEngine(t)
	g0 := e.State().Generation

	playAll(t, e, 0)
	g1 := e.State().Generation
	assert.Greater(t, g1, g0)

	e.SubmitMove(0)
	assert.Equal(t, g1, e.State().Generation, "ignored moves keep the generation")

	e.Reset()
	assert.Greater(t, e.State().Generation, g1)
}
