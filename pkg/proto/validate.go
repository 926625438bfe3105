package proto

import (
	"ctchen222/tictactoe/internal/game"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidMessage = errors.New("invalid message")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(clientMessageRules, ClientToServerMessage{})
	return v
}

// GetValidator returns the shared validator.
func GetValidator() *validator.Validate {
	return validate
}

// clientMessageRules checks the fields that belong to each message type.
func clientMessageRules(sl validator.StructLevel) {
	m := sl.Current().Interface().(ClientToServerMessage)

	switch m.Type {
	case TypeMove:
		if m.Index == nil || !game.InBounds(*m.Index) {
			sl.ReportError(m.Index, "Index", "index", "cell", "")
		}
	case TypeMode:
		if !game.Mode(m.Mode).Valid() {
			sl.ReportError(m.Mode, "Mode", "mode", "mode", "")
		}
	case TypeName:
		if m.Slot != 1 && m.Slot != 2 {
			sl.ReportError(m.Slot, "Slot", "slot", "oneof", "1 2")
		}
		if m.Name == nil {
			sl.ReportError(m.Name, "Name", "name", "required", "")
		}
	}
}

// DecodeClientMessage parses and validates a raw websocket frame.
func DecodeClientMessage(data []byte) (*ClientToServerMessage, error) {
	var msg ClientToServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if err := validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return &msg, nil
}
