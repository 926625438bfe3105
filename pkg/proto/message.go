// Package proto defines the JSON messages exchanged with the browser over the
// websocket.
package proto

import "ctchen222/tictactoe/internal/game"

const (
	TypeMove  = "move"
	TypeReset = "reset"
	TypeMode  = "mode"
	TypeName  = "name"

	TypeState = "state"
	TypeSound = "sound"
)

// ClientToServerMessage is a command from the browser. Which of the optional
// fields must be present depends on Type.
type ClientToServerMessage struct {
	Type  string  `json:"type" validate:"required,oneof=move reset mode name"`
	Index *int    `json:"index,omitempty"`
	Mode  string  `json:"mode,omitempty"`
	Slot  int     `json:"slot,omitempty"`
	Name  *string `json:"name,omitempty"`
}

// StateMessage carries the full game state after every change.
type StateMessage struct {
	Type    string             `json:"type"`
	Board   [9]game.PlayerMark `json:"board"`
	Next    game.PlayerMark    `json:"next"`
	Winner  game.PlayerMark    `json:"winner"`
	Status  string             `json:"status"`
	Mode    game.Mode          `json:"mode"`
	Player1 string             `json:"player1"`
	Player2 string             `json:"player2"`
	Result  game.GameResult    `json:"result"`
	Line    []int              `json:"line,omitempty"`
}

// SoundMessage asks the browser to play the move sound found at Src.
type SoundMessage struct {
	Type string `json:"type"`
	Src  string `json:"src"`
}
