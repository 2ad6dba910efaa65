package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// GameSettings are the choices made on the setup screen.
type GameSettings struct {
	AutoplayRed   bool
	AutoplayBlack bool
	AutoplayDelay time.Duration
}

// GameSetupUI provides a form for configuring a new game.
type GameSetupUI struct {
	form     *tview.Form
	flex     *tview.Flex
	settings GameSettings
}

var playerModes = []string{"Human", "Engine"}

// NewGameSetup creates a new game setup form starting from defaults.
func NewGameSetup(defaults GameSettings, onStart func(GameSettings), onCancel func(), onColors func()) *GameSetupUI {
	setup := &GameSetupUI{settings: defaults}

	form := tview.NewForm()

	form.AddDropDown("Red", playerModes, modeIndex(defaults.AutoplayRed), func(option string, index int) {
		setup.settings.AutoplayRed = index == 1
	})

	form.AddDropDown("Black", playerModes, modeIndex(defaults.AutoplayBlack), func(option string, index int) {
		setup.settings.AutoplayBlack = index == 1
	})

	delayMs := strconv.FormatInt(defaults.AutoplayDelay.Milliseconds(), 10)
	form.AddInputField("Engine delay (ms)", delayMs, 8, tview.InputFieldInteger, func(text string) {
		setup.settings.AutoplayDelay = parseDelay(text, setup.settings.AutoplayDelay)
	})

	form.AddButton("Start Game", func() {
		onStart(setup.settings)
	})

	form.AddButton("Board Color", func() {
		if onColors != nil {
			onColors()
		}
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Game ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(tcell.ColorDarkCyan)
	form.SetButtonTextColor(tcell.ColorWhite)

	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(tcell.ColorGray)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	setup.form = form
	setup.flex = flex
	return setup
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// Settings returns the current choices.
func (s *GameSetupUI) Settings() GameSettings {
	return s.settings
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}

func modeIndex(engine bool) int {
	if engine {
		return 1
	}
	return 0
}

// parseDelay reads a positive millisecond count, keeping prev on bad input.
func parseDelay(text string, prev time.Duration) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || ms <= 0 {
		return prev
	}
	return time.Duration(ms) * time.Millisecond
}
