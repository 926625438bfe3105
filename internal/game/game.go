package game

// PlayerMark represents the mark of a player (X, O) or an empty cell.
type PlayerMark string

// GameResult is the outcome derived from a board.
type GameResult string

// Mode selects who plays the O mark.
type Mode string

const (
	// Player marks
	None    PlayerMark = ""
	PlayerX PlayerMark = "X"
	PlayerO PlayerMark = "O"

	// Game results
	InProgress GameResult = "in_progress"
	XWins      GameResult = "x_wins"
	OWins      GameResult = "o_wins"
	Draw       GameResult = "draw"

	// Modes
	Multiplayer Mode = "multiplayer"
	VsAI        Mode = "ai"

	// Board boundaries
	CellMin   = 0
	CellMax   = 8
	CellCount = 9
)

// Board is the 3x3 grid in row-major order.
type Board [CellCount]PlayerMark

// Lines lists the winning triples in the order they are checked:
// rows, then columns, then the two diagonals.
var Lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Opponent returns the other mark. None maps to None.
func (m PlayerMark) Opponent() PlayerMark {
	switch m {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return None
	}
}

// Valid reports whether the mode is one of the known modes.
func (m Mode) Valid() bool {
	return m == Multiplayer || m == VsAI
}

// InBounds reports whether index addresses a cell of the board.
func InBounds(index int) bool {
	return index >= CellMin && index <= CellMax
}

// WinningLine returns the first completed triple, if any.
func WinningLine(b Board) ([3]int, bool) {
	for _, line := range Lines {
		a := b[line[0]]
		if a != None && a == b[line[1]] && a == b[line[2]] {
			return line, true
		}
	}
	return [3]int{}, false
}

// CheckWinner returns the mark that completed a line, or None.
func CheckWinner(b Board) PlayerMark {
	line, ok := WinningLine(b)
	if !ok {
		return None
	}
	return b[line[0]]
}

// IsBoardFull reports whether every cell holds a mark.
func IsBoardFull(b Board) bool {
	for _, cell := range b {
		if cell == None {
			return false
		}
	}
	return true
}

// EmptyCells returns the indices of the empty cells in ascending order.
func EmptyCells(b Board) []int {
	cells := make([]int, 0, CellCount)
	for i, cell := range b {
		if cell == None {
			cells = append(cells, i)
		}
	}
	return cells
}

// Evaluate derives the result of a board. A completed line wins even on a
// full board.
func Evaluate(b Board) GameResult {
	switch CheckWinner(b) {
	case PlayerX:
		return XWins
	case PlayerO:
		return OWins
	}
	if IsBoardFull(b) {
		return Draw
	}
	return InProgress
}

// Decided reports whether the result ends the game.
func (r GameResult) Decided() bool {
	return r != InProgress
}
