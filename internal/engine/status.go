package engine

import (
	"ctchen222/tictactoe/internal/game"
	"fmt"
)

const (
	DefaultPlayer1Name = "Player 1"
	DefaultPlayer2Name = "Player 2"

	aiName     = "AI"
	drawStatus = "It's a draw!"
)

// DeriveStatus computes the status line for a board. It is a pure function of
// its arguments; the engine calls it after every mutation.
func DeriveStatus(board game.Board, active game.PlayerMark, mode game.Mode, player1, player2 string) string {
	switch game.Evaluate(board) {
	case game.XWins:
		return fmt.Sprintf("%s wins!", player1)
	case game.OWins:
		return fmt.Sprintf("%s wins!", nameForO(mode, player2))
	case game.Draw:
		return drawStatus
	}

	if active == game.PlayerO {
		return fmt.Sprintf("%s's Turn", nameForO(mode, player2))
	}
	return fmt.Sprintf("%s's Turn", player1)
}

func nameForO(mode game.Mode, player2 string) string {
	if mode == game.VsAI {
		return aiName
	}
	return player2
}
