package bot

import (
	"ctchen222/tictactoe/internal/game"
	"math/rand/v2"
	"sync"
)

// MoveCalculator picks the cell the AI plays next. It returns -1 when the
// board has no empty cell.
type MoveCalculator interface {
	CalculateNextMove(board game.Board) int
}

// RandomMoveCalculator chooses uniformly among the empty cells.
type RandomMoveCalculator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomMoveCalculator creates a calculator backed by the global source.
func NewRandomMoveCalculator() *RandomMoveCalculator {
	return &RandomMoveCalculator{}
}

// NewSeededMoveCalculator creates a calculator with a reproducible sequence.
func NewSeededMoveCalculator(seed1, seed2 uint64) *RandomMoveCalculator {
	return &RandomMoveCalculator{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// CalculateNextMove satisfies MoveCalculator.
func (c *RandomMoveCalculator) CalculateNextMove(board game.Board) int {
	available := game.EmptyCells(board)
	if len(available) == 0 {
		return -1 // No moves left
	}
	return available[c.intN(len(available))]
}

func (c *RandomMoveCalculator) intN(n int) int {
	if c.rng == nil {
		return rand.IntN(n)
	}
	// *rand.Rand is not safe for concurrent use.
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

// MoveCalculatorFunc adapts a plain function to MoveCalculator.
type MoveCalculatorFunc func(board game.Board) int

// CalculateNextMove calls f.
func (f MoveCalculatorFunc) CalculateNextMove(board game.Board) int {
	return f(board)
}
