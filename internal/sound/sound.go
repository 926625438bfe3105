// Package sound resolves the move sound asset and wraps playback so that a
// broken output never reaches the game.
package sound

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/adrg/xdg"
)

// DefaultAssetName is searched for in the XDG data directories when no path
// is configured.
const DefaultAssetName = "tictactoe/move_sound.mp3"

var ErrAssetUnavailable = errors.New("sound asset unavailable")

// Asset is a playable file on disk.
type Asset struct {
	Path string
	Size int64
}

// Resolve finds the asset at path, or in the XDG data directories when path
// is empty.
func Resolve(path string) (*Asset, error) {
	if path == "" {
		found, err := xdg.SearchDataFile(DefaultAssetName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not in XDG data dirs", ErrAssetUnavailable, DefaultAssetName)
		}
		path = found
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetUnavailable, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrAssetUnavailable, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetUnavailable, err)
	}
	f.Close()

	return &Asset{Path: path, Size: info.Size()}, nil
}

// Player plays the move sound. Play is fire-and-forget.
type Player interface {
	Play()
}

// Nop is the silent player.
type Nop struct{}

func (Nop) Play() {}

// SafePlayer calls play until it fails once, then stays silent. Errors and
// panics are logged a single time.
type SafePlayer struct {
	name     string
	play     func() error
	disabled atomic.Bool
}

// NewSafePlayer wraps play. name identifies the output in logs.
func NewSafePlayer(name string, play func() error) *SafePlayer {
	return &SafePlayer{name: name, play: play}
}

func (p *SafePlayer) Play() {
	if p.disabled.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.disable(fmt.Errorf("panic: %v", r))
		}
	}()
	if err := p.play(); err != nil {
		p.disable(err)
	}
}

// Disabled reports whether the player has gone silent.
func (p *SafePlayer) Disabled() bool {
	return p.disabled.Load()
}

func (p *SafePlayer) disable(err error) {
	if p.disabled.CompareAndSwap(false, true) {
		slog.Warn("move sound disabled", "sound.output", p.name, "error", err)
	}
}
