package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"checkers-local/store"
	"checkers-local/types"
)

// GameInfoPanel displays game information alongside the board.
type GameInfoPanel struct {
	box *tview.TextView
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetState updates the panel with the current game state.
func (p *GameInfoPanel) SetState(st store.State, autoRed, autoBlack bool) {
	p.box.SetText(infoText(st, autoRed, autoBlack))
}

func infoText(st store.State, autoRed, autoBlack bool) string {
	if !st.HasBoard() {
		return ""
	}
	red, black := countPieces(st.Board)

	var text string
	text += "[white::b]Game Info[-:-:-]\n"
	text += "[dimgray]──────────────────────[-:-:-]\n"
	text += fmt.Sprintf("[white]Turn:[-:-:-] %s\n", sideName(st.Turn))
	text += fmt.Sprintf("[white]Red:[-:-:-] %d pieces\n", red)
	text += fmt.Sprintf("[white]Black:[-:-:-] %d pieces\n", black)

	text += "\n[white::b]Autoplay[-:-:-]\n"
	text += "[dimgray]──────────────────────[-:-:-]\n"
	text += fmt.Sprintf("[white]Red:[-:-:-] %s\n", onOff(autoRed))
	text += fmt.Sprintf("[white]Black:[-:-:-] %s\n", onOff(autoBlack))

	if len(st.PossibleMoves) > 0 {
		text += "\n[white::b]Moves[-:-:-]\n"
		text += "[dimgray]──────────────────────[-:-:-]\n"
		for _, m := range st.PossibleMoves {
			if m.Kills != nil {
				text += fmt.Sprintf("  %s [red]x %s[-]\n", m.Destination, m.Kills)
			} else {
				text += fmt.Sprintf("  %s\n", m.Destination)
			}
		}
	}
	return text
}

// countPieces returns the number of red and black pieces on b.
func countPieces(b types.Board) (red, black int) {
	for _, row := range b {
		for _, t := range row {
			switch t.Side() {
			case types.Red:
				red++
			case types.Black:
				black++
			}
		}
	}
	return red, black
}

func onOff(b bool) string {
	if b {
		return "[green]on[-]"
	}
	return "[dimgray]off[-]"
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *BoardUI, hint *tview.TextView) *tview.Flex {
	infoPanel := NewGameInfoPanel()
	board.SetInfoPanel(infoPanel)

	// Create horizontal flex: board | info panel
	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)
	boardRow.AddItem(infoPanel.Box(), 26, 0, false)

	// Main vertical flex: board area on top, compact status bar at bottom
	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow)
	mainFlex.AddItem(boardRow, 0, 1, true)
	mainFlex.AddItem(hint, 4, 0, false)

	return mainFlex
}
