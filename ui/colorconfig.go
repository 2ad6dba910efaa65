package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"checkers-local/config"
)

// ColorConfigUI provides a square color configuration screen with live preview.
type ColorConfigUI struct {
	flex      *tview.Flex
	colorList *tview.List
	preview   *tview.Box
	cfg       *config.Config
	onDone    func()

	selectedLight int
	selectedDark  int
	editingDark   bool
}

type paletteEntry struct {
	code int
	name string
}

var lightSquareColors = []paletteEntry{
	{230, "Light Cream"},
	{229, "Pale Yellow"},
	{223, "Peach"},
	{222, "Gold"},
	{188, "Light Beige"},
	{252, "Light Gray"},
	{250, "Gray"},
	{195, "Ice Blue"},
	{194, "Mint"},
}

var darkSquareColors = []paletteEntry{
	{137, "Walnut"},
	{136, "Dark Brown"},
	{94, "Saddle Brown"},
	{130, "Dark Orange"},
	{22, "Dark Green"},
	{23, "Teal"},
	{24, "Dark Cyan"},
	{17, "Navy Blue"},
	{54, "Purple"},
	{240, "Gray"},
}

// NewColorConfig creates a new color configuration screen.
func NewColorConfig(cfg *config.Config, onDone func()) *ColorConfigUI {
	cc := &ColorConfigUI{
		cfg:           cfg,
		onDone:        onDone,
		selectedLight: cfg.Theme.Colors.LightSquare,
		selectedDark:  cfg.Theme.Colors.DarkSquare,
	}

	cc.colorList = tview.NewList()
	cc.colorList.SetBorder(true)
	cc.colorList.ShowSecondaryText(false)
	cc.populateColorList()

	cc.colorList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		entries := cc.entries()
		if index < 0 || index >= len(entries) {
			return
		}
		if cc.editingDark {
			cc.selectedDark = entries[index].code
		} else {
			cc.selectedLight = entries[index].code
		}
	})

	cc.colorList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if index < 0 || index >= len(cc.entries()) {
			return
		}
		cc.cfg.Theme.Colors.LightSquare = cc.selectedLight
		cc.cfg.Theme.Colors.DarkSquare = cc.selectedDark
		cc.cfg.Save()
		if !cc.editingDark {
			// Move on to the dark squares.
			cc.editingDark = true
			cc.populateColorList()
			return
		}
		cc.editingDark = false
		cc.populateColorList()
		onDone()
	})

	cc.preview = tview.NewBox()
	cc.preview.SetBorder(true)
	cc.preview.SetTitle(" Board Preview ")
	cc.preview.SetDrawFunc(cc.drawPreview)

	cc.flex = tview.NewFlex().
		AddItem(cc.colorList, 30, 0, true).
		AddItem(cc.preview, 0, 1, false)

	return cc
}

func (cc *ColorConfigUI) entries() []paletteEntry {
	if cc.editingDark {
		return darkSquareColors
	}
	return lightSquareColors
}

func (cc *ColorConfigUI) populateColorList() {
	cc.colorList.Clear()

	current := cc.selectedLight
	cc.colorList.SetTitle(" Light Squares (Tab: dark) ")
	if cc.editingDark {
		current = cc.selectedDark
		cc.colorList.SetTitle(" Dark Squares (Tab: light) ")
	}
	for i, c := range cc.entries() {
		cc.colorList.AddItem(fmt.Sprintf("[#%06x]████[-] %s (%d)",
			tcell.PaletteColor(c.code).Hex(), c.name, c.code),
			"", rune('a'+i), nil)
		if c.code == current {
			cc.colorList.SetCurrentItem(i)
		}
	}
}

func (cc *ColorConfigUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	light := tcell.PaletteColor(cc.selectedLight)
	dark := tcell.PaletteColor(cc.selectedDark)
	red := tcell.PaletteColor(cc.cfg.Theme.Colors.RedPiece)
	black := tcell.PaletteColor(cc.cfg.Theme.Colors.BlackPiece)

	const size = 6
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			style := tcell.StyleDefault.Background(light)
			r := ' '
			if (row+col)%2 == 1 {
				style = tcell.StyleDefault.Background(dark)
				switch {
				case row < 2:
					style = style.Foreground(black)
					r = cc.cfg.Theme.Symbols.Pawn
				case row >= size-2:
					style = style.Foreground(red)
					r = cc.cfg.Theme.Symbols.Pawn
				}
			}
			drawTileCell(screen, style, r, col, row, x+2, y+1)
		}
	}
	return x, y, width, height
}

// Flex returns the main container for this screen.
func (cc *ColorConfigUI) Flex() *tview.Flex {
	return cc.flex
}

// SetInputCapture sets the input capture function.
func (cc *ColorConfigUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	cc.flex.SetInputCapture(capture)
}

// ToggleMode switches between light and dark square editing.
func (cc *ColorConfigUI) ToggleMode() {
	cc.editingDark = !cc.editingDark
	cc.populateColorList()
}
