// Package types contains shared data structures for checkers-local.
package types

import (
	"encoding/json"
	"fmt"
)

// BoardSize is the number of rows and columns on a checkers board.
const BoardSize = 8

// Tile is the content of a single square. The numeric values are the engine's wire codes.
type Tile int

const (
	Empty      Tile = 0
	RedPawn    Tile = 1
	RedQueen   Tile = 2
	BlackPawn  Tile = 3
	BlackQueen Tile = 4
)

// Valid returns true if t is one of the known tile codes.
func (t Tile) Valid() bool {
	return t >= Empty && t <= BlackQueen
}

// Side returns the side owning the piece on t, or GameOver for an empty tile.
func (t Tile) Side() Turn {
	switch t {
	case RedPawn, RedQueen:
		return Red
	case BlackPawn, BlackQueen:
		return Black
	}
	return GameOver
}

// IsQueen returns true for promoted pieces.
func (t Tile) IsQueen() bool {
	return t == RedQueen || t == BlackQueen
}

func (t Tile) String() string {
	switch t {
	case Empty:
		return "empty"
	case RedPawn:
		return "red-pawn"
	case RedQueen:
		return "red-queen"
	case BlackPawn:
		return "black-pawn"
	case BlackQueen:
		return "black-queen"
	}
	return fmt.Sprintf("tile(%d)", int(t))
}

// Board is indexed as Board[row][col].
type Board [BoardSize][BoardSize]Tile

// BoardFromTiles builds a board from the engine's flat tile sequence.
// The engine lists tiles column by column, so tiles[i] lands on row i%8, col i/8.
func BoardFromTiles(tiles []Tile) (Board, error) {
	var b Board
	if len(tiles) != BoardSize*BoardSize {
		return b, fmt.Errorf("expected %d tiles, got %d", BoardSize*BoardSize, len(tiles))
	}
	for i, t := range tiles {
		if !t.Valid() {
			return b, fmt.Errorf("invalid tile code %d at index %d", int(t), i)
		}
		b[i%BoardSize][i/BoardSize] = t
	}
	return b, nil
}

// At returns the tile at the given coordinate.
func (b *Board) At(c TileCoordinate) Tile {
	return b[c.Row][c.Col]
}

// TileCoordinate identifies a square on the board.
type TileCoordinate struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Valid returns true if the coordinate lies on the board.
func (c TileCoordinate) Valid() bool {
	return c.Row >= 0 && c.Row < BoardSize && c.Col >= 0 && c.Col < BoardSize
}

func (c TileCoordinate) String() string {
	return fmt.Sprintf("{%d,%d}", c.Row, c.Col)
}

// PossibleMove is a legal destination from a previously selected origin.
// Kills is nil when taking the destination captures nothing.
type PossibleMove struct {
	Destination TileCoordinate  `json:"destination"`
	Kills       *TileCoordinate `json:"kills"`
}

// Turn is the side to move, or GameOver.
type Turn int

const (
	Red Turn = iota
	Black
	GameOver
)

func (t Turn) String() string {
	switch t {
	case Red:
		return "red"
	case Black:
		return "black"
	case GameOver:
		return "game_over"
	}
	return fmt.Sprintf("turn(%d)", int(t))
}

// Opponent returns the other side. GameOver has no opponent.
func (t Turn) Opponent() Turn {
	switch t {
	case Red:
		return Black
	case Black:
		return Red
	}
	return GameOver
}

// ParseTurn converts the engine's turn text into a Turn.
func ParseTurn(s string) (Turn, error) {
	switch s {
	case "red":
		return Red, nil
	case "black":
		return Black, nil
	case "game_over", "gameover", "game-over":
		return GameOver, nil
	}
	return GameOver, fmt.Errorf("unknown turn %q", s)
}

// MarshalJSON encodes a Turn as its wire text.
func (t Turn) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON allows Turn to be decoded from the engine's wire text.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseTurn(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
