// Package tui renders a game in the terminal with tview.
package tui

import (
	"ctchen222/tictactoe/internal/engine"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/sound"
	"fmt"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Board geometry: three runes per cell, one rune separators.
const (
	cellWidth  = 3
	boardWidth = 3*cellWidth + 2
	boardRows  = 5
)

var (
	styleGrid  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleEmpty = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleX     = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleO     = tcell.StyleDefault.Foreground(tcell.ColorOrange).Bold(true)
)

// BoardUI draws the board and translates key presses into engine commands.
// It is the engine's observer.
type BoardUI struct {
	Box  *tview.Box
	hint *tview.TextView
	app  *tview.Application
	eng  *engine.Engine
	beep sound.Player

	mu    sync.Mutex
	state engine.State
	sel   int
}

// NewBoard creates the board and its engine. app may be nil, in which case
// redraws are not queued.
func NewBoard(app *tview.Application, hint *tview.TextView, beep sound.Player, opts ...engine.Option) *BoardUI {
	if beep == nil {
		beep = sound.Nop{}
	}
	b := &BoardUI{
		Box:  tview.NewBox(),
		hint: hint,
		app:  app,
		beep: beep,
		sel:  4,
	}
	b.eng = engine.New(append([]engine.Option{engine.WithObserver(b)}, opts...)...)
	b.state = b.eng.State()
	b.refreshHint()

	b.Box.SetDrawFunc(b.draw)
	b.Box.SetInputCapture(b.HandleKey)
	return b
}

// Engine returns the game the board drives.
func (b *BoardUI) Engine() *engine.Engine {
	return b.eng
}

// Close stops the pending AI move.
func (b *BoardUI) Close() {
	b.eng.Close()
}

// StateChanged implements engine.Observer.
func (b *BoardUI) StateChanged(state engine.State) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()

	b.refreshHint()
	if b.app != nil {
		// Notifications may arrive from the event loop itself.
		go b.app.QueueUpdateDraw(func() {})
	}
}

// MoveSound implements engine.Observer.
func (b *BoardUI) MoveSound() {
	b.beep.Play()
}

func (b *BoardUI) snapshot() (engine.State, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.sel
}

// Selected returns the highlighted cell.
func (b *BoardUI) Selected() int {
	_, sel := b.snapshot()
	return sel
}

// MoveSelection moves the cursor by dx columns and dy rows, staying on the
// board.
func (b *BoardUI) MoveSelection(dx, dy int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	col, row := b.sel%3+dx, b.sel/3+dy
	if col < 0 || col > 2 || row < 0 || row > 2 {
		return
	}
	b.sel = row*3 + col
}

// HandleKey is the board's input capture. Handled keys are consumed.
func (b *BoardUI) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		b.MoveSelection(0, -1)
	case tcell.KeyDown:
		b.MoveSelection(0, 1)
	case tcell.KeyLeft:
		b.MoveSelection(-1, 0)
	case tcell.KeyRight:
		b.MoveSelection(1, 0)
	case tcell.KeyEnter:
		b.eng.SubmitMove(b.Selected())
	case tcell.KeyRune:
		return b.handleRune(event)
	default:
		return event
	}
	return nil
}

func (b *BoardUI) handleRune(event *tcell.EventKey) *tcell.EventKey {
	r := event.Rune()
	switch {
	case r >= '1' && r <= '9':
		cell := int(r - '1')
		b.mu.Lock()
		b.sel = cell
		b.mu.Unlock()
		b.eng.SubmitMove(cell)
	case r == 'r':
		b.eng.Reset()
	case r == 'm':
		state, _ := b.snapshot()
		if state.Mode == game.VsAI {
			b.eng.SetMode(game.Multiplayer)
		} else {
			b.eng.SetMode(game.VsAI)
		}
	case r == 'q':
		if b.app != nil {
			b.app.Stop()
		}
	default:
		return event
	}
	return nil
}

func (b *BoardUI) refreshHint() {
	if b.hint == nil {
		return
	}
	state, _ := b.snapshot()
	b.hint.SetText(HintText(state))
}

// HintText is the status panel content for state.
func HintText(state engine.State) string {
	mode := "Multiplayer"
	if state.Mode == game.VsAI {
		mode = "vs AI"
	}
	next := "1-9 or arrows+enter: play"
	if state.Result.Decided() {
		next = "r: play again"
	}
	return fmt.Sprintf("%s\n\nMode: %s\n%s  r: reset  m: mode  q: quit", state.Status, mode, next)
}

// CellText is what a cell shows: its mark, or its key while empty.
func CellText(board game.Board, i int) string {
	if board[i] == game.None {
		return fmt.Sprintf("%d", i+1)
	}
	return string(board[i])
}

func (b *BoardUI) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	state, sel := b.snapshot()
	ox := x + max(0, (width-boardWidth)/2)
	oy := y + max(0, (height-boardRows)/2)

	for row := range 3 {
		for col := range 3 {
			i := row*3 + col
			style := styleEmpty
			switch state.Board[i] {
			case game.PlayerX:
				style = styleX
			case game.PlayerO:
				style = styleO
			}
			if slices.Contains(state.WinningLine, i) {
				style = style.Background(tcell.ColorOlive)
			}
			if i == sel && !state.Result.Decided() {
				style = style.Reverse(true)
			}
			cx := ox + col*(cellWidth+1)
			cy := oy + row*2
			drawText(screen, cx, cy, " "+CellText(state.Board, i)+" ", style)
			if col < 2 {
				screen.SetContent(cx+cellWidth, cy, '│', nil, styleGrid)
			}
		}
		if row < 2 {
			drawText(screen, ox, oy+row*2+1, "───┼───┼───", styleGrid)
		}
	}
	return x, y, width, height
}

func drawText(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

// Layout puts the board above the status panel.
func Layout(board *BoardUI, hint *tview.TextView) *tview.Flex {
	main := tview.NewFlex().SetDirection(tview.FlexRow)
	main.AddItem(board.Box, 0, 1, true)
	main.AddItem(hint, 6, 0, false)
	return main
}
