// checkers-local is a terminal application to play checkers against a local engine.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"checkers-local/config"
	"checkers-local/engine"
	"checkers-local/session"
	"checkers-local/types"
	"checkers-local/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagEngine        = flag.String("engine", "", "Path to the checkers engine executable")
	flagAutoplayRed   = flag.Bool("autoplay-red", false, "Let the engine play red")
	flagAutoplayBlack = flag.Bool("autoplay-black", false, "Let the engine play black")
	flagDelay         = flag.Int("delay", 0, "Autoplay delay in milliseconds")
	flagLogLevel      = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	flagQuickStart    = flag.Bool("play", false, "Start game immediately with defaults")
	flagVersion       = flag.Bool("version", false, "Print version and exit")
)

var app *tview.Application
var rootPage *tview.Pages
var gameBoard *ui.BoardUI
var gameFrame *tview.Flex
var gameHint *tview.TextView
var cfg *config.Config
var logger *slog.Logger
var current *session.Session

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("checkers-local %s\n", Version)
		return
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	logFile, err := openLog(cfg)
	if err != nil {
		fmt.Printf("Error: cannot open log file: %s\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	level, _ := config.ParseLevel(cfg.Log.Level)
	logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if _, err := exec.LookPath(cfg.Engine.Path); err != nil {
		fmt.Printf("Error: checkers engine %q not found.\n", cfg.Engine.Path)
		fmt.Println("Set the engine path with -engine or in the config file.")
		return
	}

	quickStart := *flagQuickStart || *flagAutoplayRed || *flagAutoplayBlack

	app = tview.NewApplication()
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ⛀ checkers ")

	gameHint = tview.NewTextView()
	gameHint.SetBorder(true)
	gameHint.SetBorderPadding(0, 0, 1, 1)
	gameHint.SetTitle(" Status ")
	gameHint.SetTitleAlign(tview.AlignLeft)
	gameBoard = ui.NewBoard(app, cfg, gameHint)

	gameFrame = ui.CreateGameLayout(gameBoard, gameHint)

	gameBoard.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune && event.Rune() == 'q' {
			if gameBoard.SelectedTile() != nil {
				gameBoard.ResetSelection()
			} else {
				stopGame()
				rootPage.SwitchToPage("setup")
			}
			return nil
		}
		switch event.Key() {
		case tcell.KeyUp:
			gameBoard.MoveSelection(-1, 0)
		case tcell.KeyDown:
			gameBoard.MoveSelection(1, 0)
		case tcell.KeyLeft:
			gameBoard.MoveSelection(0, -1)
		case tcell.KeyRight:
			gameBoard.MoveSelection(0, 1)
		case tcell.KeyEnter:
			gameBoard.Click()
		case tcell.KeyRune:
			switch event.Rune() {
			case 'h':
				gameBoard.MoveSelection(0, -1)
			case 'j':
				gameBoard.MoveSelection(1, 0)
			case 'k':
				gameBoard.MoveSelection(-1, 0)
			case 'l':
				gameBoard.MoveSelection(0, 1)
			case ' ':
				gameBoard.Click()
			case 'm':
				gameBoard.EngineMove()
			case 'r':
				gameBoard.ToggleAutoplay(types.Red)
			case 'b':
				gameBoard.ToggleAutoplay(types.Black)
			}
		}
		return event
	})

	setupUI := ui.NewGameSetup(
		defaultSettings(),
		func(settings ui.GameSettings) {
			startGame(settings)
		},
		func() {
			app.Stop()
		},
		func() {
			rootPage.SwitchToPage("colors")
		},
	)

	colorConfig := ui.NewColorConfig(cfg, func() {
		gameBoard.SetConfig(cfg)
		rootPage.SwitchToPage("setup")
	})
	colorConfig.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			rootPage.SwitchToPage("setup")
			return nil
		}
		if event.Key() == tcell.KeyTab {
			colorConfig.ToggleMode()
			return nil
		}
		return event
	})

	rootPage.AddPage("setup", setupUI.Form(), true, !quickStart)
	rootPage.AddPage("gameview", gameFrame, true, quickStart)
	rootPage.AddPage("colors", colorConfig.Flex(), true, false)

	if quickStart {
		startGame(defaultSettings())
	}

	err = app.SetRoot(rootPage, true).Run()
	stopGame()
	if err != nil {
		panic(err)
	}
}

// applyFlags overrides config values with command-line flags.
func applyFlags(c *config.Config) {
	if *flagEngine != "" {
		c.Engine.Path = *flagEngine
	}
	if *flagAutoplayRed {
		c.Autoplay.Red = true
	}
	if *flagAutoplayBlack {
		c.Autoplay.Black = true
	}
	if *flagDelay > 0 {
		c.Autoplay.DelayMs = *flagDelay
	}
	if *flagLogLevel != "" {
		c.Log.Level = *flagLogLevel
	}
}

func openLog(c *config.Config) (*os.File, error) {
	path, err := c.LogPath()
	if err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func defaultSettings() ui.GameSettings {
	return ui.GameSettings{
		AutoplayRed:   cfg.Autoplay.Red,
		AutoplayBlack: cfg.Autoplay.Black,
		AutoplayDelay: time.Duration(cfg.Autoplay.DelayMs) * time.Millisecond,
	}
}

// sessionOptions builds session options from the config and setup choices.
func sessionOptions(settings ui.GameSettings) session.Options {
	h := cfg.Engine.Handshake
	return session.Options{
		Engine: engine.Config{
			EnginePath:  cfg.Engine.Path,
			EngineArgs:  cfg.Engine.Args,
			CallTimeout: time.Duration(cfg.Engine.CallTimeoutMs) * time.Millisecond,
			Handshake: engine.HandshakeConfig{
				Interval:    time.Duration(h.IntervalMs) * time.Millisecond,
				MaxAttempts: h.MaxAttempts,
				Backoff:     h.Backoff,
				MaxInterval: time.Duration(h.MaxIntervalMs) * time.Millisecond,
			},
		},
		AutoplayDelay: settings.AutoplayDelay,
		AutoplayRed:   settings.AutoplayRed,
		AutoplayBlack: settings.AutoplayBlack,
	}
}

// startGame starts an engine and connects the board to it.
func startGame(settings ui.GameSettings) {
	stopGame()

	sess, err := session.StartProcess(sessionOptions(settings), logger)
	if err != nil {
		showError(err)
		return
	}
	current = sess
	gameBoard.ConnectSession(sess)
	ready := sess.Start()
	go func() {
		if err := <-ready; err != nil {
			logger.Error("game failed to start", "error", err)
			app.QueueUpdateDraw(func() {
				if current == sess {
					showError(err)
				}
			})
		}
	}()
	gameBoard.ResetSelection()
	rootPage.SwitchToPage("gameview")
	app.SetFocus(gameBoard.Box)
}

func stopGame() {
	if current == nil {
		return
	}
	gameBoard.Close()
	if err := current.Close(); err != nil {
		logger.Debug("engine exited", "error", err)
	}
	current = nil
}

func showError(err error) {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Failed to start game:\n%s", err.Error())).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			rootPage.RemovePage("error")
		})
	rootPage.AddPage("error", modal, true, true)
}
