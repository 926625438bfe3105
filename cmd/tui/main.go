// tui plays tic-tac-toe in the terminal.
package main

import (
	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/engine"
	"ctchen222/tictactoe/internal/logger"
	"ctchen222/tictactoe/internal/sound"
	"ctchen222/tictactoe/internal/tui"
	"fmt"
	"log/slog"
	"os"

	"github.com/adrg/xdg"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const logFile = "tictactoe/tui.log"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The terminal belongs to the UI, so logs go to a file.
	logPath, err := xdg.CacheFile(logFile)
	if err != nil {
		return fmt.Errorf("failed to resolve log file: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()
	level, _ := cfg.SlogLevel()
	logger.Init(f, level)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	app := tview.NewApplication().SetScreen(screen)

	hint := tview.NewTextView()
	hint.SetBorder(true)
	hint.SetBorderPadding(0, 0, 1, 1)
	hint.SetTitle(" Tic Tac Toe ")
	hint.SetTitleAlign(tview.AlignLeft)

	bell := sound.NewSafePlayer("terminal bell", screen.Beep)
	board := tui.NewBoard(app, hint, bell,
		engine.WithAIDelay(cfg.AIMoveDelay),
		engine.WithPlayerNames(cfg.Player1Name, cfg.Player2Name),
	)
	defer board.Close()

	slog.Info("tui started", "log.path", logPath)
	if err := app.SetRoot(tui.Layout(board, hint), true).SetFocus(board.Box).Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
