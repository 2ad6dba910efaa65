// Package ui specifies custom controls for tview to play checkers in the terminal.
package ui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"checkers-local/config"
	"checkers-local/session"
	"checkers-local/store"
	"checkers-local/types"
)

// Style slots.
const (
	styleLight = iota
	styleDark
	styleRed
	styleBlack
	styleCursor
	styleOrigin
	styleMove
	styleKill
)

type BoardUI struct {
	Box       *tview.Box
	hint      *tview.TextView
	cfg       *config.Config
	app       *tview.Application
	sess      *session.Session
	selector  *Selector
	styles    []tcell.Color
	infoPanel *GameInfoPanel

	mu          sync.Mutex
	state       store.State
	selRow      int
	selCol      int
	unsubscribe func()
}

func NewBoard(app *tview.Application, c *config.Config, hint *tview.TextView) *BoardUI {
	board := &BoardUI{
		Box:    tview.NewBox(),
		hint:   hint,
		app:    app,
		selRow: -1,
		selCol: -1,
	}
	board.SetConfig(c)
	board.Box.SetDrawFunc(func(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
		board.mu.Lock()
		st := board.state
		selRow, selCol := board.selRow, board.selCol
		board.mu.Unlock()
		if !st.HasBoard() {
			msg := "Waiting for engine..."
			if st.LastError != nil {
				msg = "Engine unavailable"
			}
			tview.Print(screen, msg, x, y, width, tview.AlignLeft, tcell.ColorGray)
			return x, y, width, height
		}

		origin := types.TileCoordinate{Row: -1, Col: -1}
		if board.selector != nil && len(st.PossibleMoves) > 0 {
			origin = board.selector.Origin()
		}
		offset := 0
		if board.cfg.Theme.DrawCoordinates {
			offset = 3
		}

		for row := 0; row < types.BoardSize; row++ {
			for col := 0; col < types.BoardSize; col++ {
				c := types.TileCoordinate{Row: row, Col: col}
				bg := board.styles[styleLight]
				if (row+col)%2 == 1 {
					bg = board.styles[styleDark]
				}
				if m, ok := st.IsDestination(c); ok {
					bg = board.styles[styleMove]
					if m.Kills != nil {
						bg = board.styles[styleKill]
					}
				} else if c == origin {
					bg = board.styles[styleOrigin]
				}
				if row == selRow && col == selCol {
					bg = board.styles[styleCursor]
				}

				tile := st.Board[row][col]
				drawRune := board.cfg.Theme.Symbols.Empty
				fg := tcell.ColorDefault
				switch tile.Side() {
				case types.Red:
					fg = board.styles[styleRed]
				case types.Black:
					fg = board.styles[styleBlack]
				}
				if tile != types.Empty {
					drawRune = board.cfg.Theme.Symbols.Pawn
					if tile.IsQueen() {
						drawRune = board.cfg.Theme.Symbols.Queen
					}
				}
				drawTileCell(screen, tcell.StyleDefault.Background(bg).Foreground(fg), drawRune, col, row, x+offset, y)
			}
		}
		if board.cfg.Theme.DrawCoordinates {
			drawCoordinates(screen, x, y, selRow, selCol, board.styles[styleCursor])
		}
		return x, y, types.BoardSize*3 + offset, types.BoardSize + 1
	})
	return board
}

// ConnectSession attaches the board to a running game session.
func (g *BoardUI) ConnectSession(s *session.Session) {
	g.Close()
	g.sess = s
	g.selector = NewSelector(s.Store)
	g.unsubscribe = s.Store.Subscribe(func(st store.State) {
		g.selector.Observe(st)
		g.mu.Lock()
		g.state = st
		g.mu.Unlock()
		g.refreshHint()
		// Spawn goroutine to avoid deadlock when called from main thread
		go func() {
			g.app.QueueUpdateDraw(func() {})
		}()
	})
}

// SelectedTile returns the square under the cursor, or nil if there is none.
func (g *BoardUI) SelectedTile() *types.TileCoordinate {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.selRow == -1 && g.selCol == -1 {
		return nil
	}
	return &types.TileCoordinate{Row: g.selRow, Col: g.selCol}
}

// MoveSelection moves the cursor by the given number of rows and columns.
func (g *BoardUI) MoveSelection(dRow, dCol int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.selRow == -1 && g.selCol == -1 {
		// Start next to the side to move.
		g.selRow, g.selCol = types.BoardSize-3, 0
		if g.state.Turn == types.Black {
			g.selRow, g.selCol = 2, 1
		}
		return
	}
	c := types.TileCoordinate{Row: g.selRow + dRow, Col: g.selCol + dCol}
	if !c.Valid() {
		return
	}
	g.selRow, g.selCol = c.Row, c.Col
}

// ResetSelection hides the cursor and drops any highlighted moves.
func (g *BoardUI) ResetSelection() {
	g.mu.Lock()
	g.selRow = -1
	g.selCol = -1
	g.mu.Unlock()
	if g.sess != nil {
		g.sess.Store.ClearPossibleMoves()
	}
}

// Click runs the selection protocol on the square under the cursor.
func (g *BoardUI) Click() {
	sel := g.SelectedTile()
	if sel == nil || g.sess == nil {
		return
	}
	g.report(g.selector.Click(g.sess.Context(), *sel))
}

// EngineMove asks the engine to move for the side to move.
func (g *BoardUI) EngineMove() {
	if g.sess == nil {
		return
	}
	g.report(g.sess.Store.MakeAMove(g.sess.Context()))
}

// ToggleAutoplay flips autoplay for side and returns the new setting.
func (g *BoardUI) ToggleAutoplay(side types.Turn) bool {
	if g.sess == nil {
		return false
	}
	c := g.sess.Autoplay(side)
	if c == nil {
		return false
	}
	enabled := c.Toggle()
	g.refreshHint()
	return enabled
}

// report waits for a request in the background and redraws when it is done.
// Failures themselves land in the store's LastError.
func (g *BoardUI) report(done <-chan error) {
	go func() {
		<-done
		g.app.QueueUpdateDraw(func() {})
	}()
}

// Close detaches the board from its session.
func (g *BoardUI) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
}

func (g *BoardUI) SetConfig(c *config.Config) {
	g.styles = []tcell.Color{
		tcell.PaletteColor(c.Theme.Colors.LightSquare), // styleLight
		tcell.PaletteColor(c.Theme.Colors.DarkSquare),  // styleDark
		tcell.PaletteColor(c.Theme.Colors.RedPiece),    // styleRed
		tcell.PaletteColor(c.Theme.Colors.BlackPiece),  // styleBlack
		tcell.PaletteColor(c.Theme.Colors.CursorBG),    // styleCursor
		tcell.PaletteColor(c.Theme.Colors.OriginBG),    // styleOrigin
		tcell.PaletteColor(c.Theme.Colors.MoveBG),      // styleMove
		tcell.PaletteColor(c.Theme.Colors.KillBG),      // styleKill
	}
	g.cfg = c
}

// SetInfoPanel registers the side panel kept in sync with the board.
func (g *BoardUI) SetInfoPanel(p *GameInfoPanel) {
	g.infoPanel = p
	g.refreshHint()
}

func (g *BoardUI) refreshHint() {
	g.mu.Lock()
	st := g.state
	g.mu.Unlock()

	var red, black bool
	if g.sess != nil {
		red, black = g.sess.Red.Enabled(), g.sess.Black.Enabled()
	}
	if g.infoPanel != nil {
		g.infoPanel.SetState(st, red, black)
	}
	if g.hint == nil {
		return
	}
	g.hint.SetText(hintText(st))
}

// hintText renders the status line for st.
func hintText(st store.State) string {
	var statusLine string
	switch {
	case !st.Ready() && st.LastError != nil:
		statusLine = fmt.Sprintf("  ✗ %s", st.LastError)
	case !st.Ready():
		statusLine = "  ◌ Starting engine..."
	case st.Turn == types.GameOver:
		statusLine = "  ───── Game Complete ─────"
	case st.Working:
		statusLine = "  ◌ Thinking..."
	default:
		statusLine = fmt.Sprintf("  ● %s to move", sideName(st.Turn))
	}
	if st.Ready() && st.LastError != nil {
		statusLine += fmt.Sprintf("   ✗ %s", st.LastError)
	}
	controlsLine := "\n  hjkl/↑↓←→ move  ⏎ select  m engine move  r/b autoplay  q quit"
	return statusLine + controlsLine
}

func sideName(t types.Turn) string {
	switch t {
	case types.Red:
		return "Red"
	case types.Black:
		return "Black"
	}
	return "Nobody"
}

// drawTileCell draws a square 3 characters wide with the piece in the middle.
func drawTileCell(s tcell.Screen, c tcell.Style, r rune, col, row, l, t int) {
	s.SetContent(l+col*3, t+row, ' ', nil, c)
	s.SetContent(l+col*3+1, t+row, r, nil, c)
	s.SetContent(l+col*3+2, t+row, ' ', nil, c)
}

func drawCoordinates(s tcell.Screen, x, y, selRow, selCol int, cursor tcell.Color) {
	style := tcell.StyleDefault
	highlight := tcell.StyleDefault.Background(cursor)

	for col := 0; col < types.BoardSize; col++ {
		_style := style
		if col == selCol {
			_style = highlight
		}
		s.SetContent(x+3+col*3+1, y+types.BoardSize, rune('0'+col), nil, _style)
	}
	for row := 0; row < types.BoardSize; row++ {
		_style := style
		if row == selRow {
			_style = highlight
		}
		s.SetContent(x+1, y+row, rune('0'+row), nil, _style)
	}
}
