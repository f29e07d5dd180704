// Package board holds the premium square grid and the tiles placed on it.
package board

import (
	"fmt"

	"tilegame/internal/game/tile"
)

// Premium is a cell's score multiplier.
type Premium uint8

const (
	None Premium = iota
	DoubleLetter
	TripleLetter
	DoubleWord
	TripleWord
)

// LetterMultiplier returns the factor applied to a letter placed on the cell.
func (p Premium) LetterMultiplier() int {
	switch p {
	case DoubleLetter:
		return 2
	case TripleLetter:
		return 3
	}
	return 1
}

// WordMultiplier returns the factor applied to a word covering the cell.
func (p Premium) WordMultiplier() int {
	switch p {
	case DoubleWord:
		return 2
	case TripleWord:
		return 3
	}
	return 1
}

func (p Premium) String() string {
	switch p {
	case DoubleLetter:
		return "dl"
	case TripleLetter:
		return "tl"
	case DoubleWord:
		return "dw"
	case TripleWord:
		return "tw"
	}
	return ""
}

// Position is a cell coordinate, 0-indexed from the top left.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell is one square of the board.
type Cell struct {
	Premium         Premium
	Tile            *tile.Tile
	PremiumConsumed bool
}

// Board is a square grid of cells. It is not safe for concurrent use.
type Board struct {
	cells [][]Cell
}

// New builds an empty board from a layout.
func New(layout Layout) *Board {
	size := len(layout)
	cells := make([][]Cell, size)
	for r, row := range layout {
		if len(row) != size {
			panic(fmt.Sprintf("layout row %d has %d cells, want %d", r, len(row), size))
		}
		cells[r] = make([]Cell, size)
		for c, ch := range row {
			cells[r][c] = Cell{Premium: premiumFor(ch)}
		}
	}
	return &Board{cells: cells}
}

// Size returns the grid dimension.
func (b *Board) Size() int {
	return len(b.cells)
}

// Center returns the designated starting cell.
func (b *Board) Center() Position {
	c := b.Size() / 2
	return Position{Row: c, Col: c}
}

// InBounds reports whether pos is on the board.
func (b *Board) InBounds(pos Position) bool {
	return pos.Row >= 0 && pos.Row < b.Size() && pos.Col >= 0 && pos.Col < b.Size()
}

// At returns the cell at pos. pos must be in bounds.
func (b *Board) At(pos Position) Cell {
	return b.cells[pos.Row][pos.Col]
}

// Occupied reports whether pos is on the board and holds a tile.
func (b *Board) Occupied(pos Position) bool {
	return b.InBounds(pos) && b.cells[pos.Row][pos.Col].Tile != nil
}

// IsEmpty reports whether no tile has been placed yet.
func (b *Board) IsEmpty() bool {
	return b.OccupiedCount() == 0
}

// OccupiedCount returns the number of cells holding a tile.
func (b *Board) OccupiedCount() int {
	n := 0
	for _, row := range b.cells {
		for _, c := range row {
			if c.Tile != nil {
				n++
			}
		}
	}
	return n
}

// Place puts t on the cell at pos. Tiles are never moved or replaced, so
// placing onto an occupied or off-board cell is a programming error.
func (b *Board) Place(pos Position, t tile.Tile) {
	if !b.InBounds(pos) {
		panic(fmt.Sprintf("board: place off board at %v", pos))
	}
	cell := &b.cells[pos.Row][pos.Col]
	if cell.Tile != nil {
		panic(fmt.Sprintf("board: cell %v already occupied", pos))
	}
	cell.Tile = &t
}

// ConsumePremium marks the multiplier at pos as used.
func (b *Board) ConsumePremium(pos Position) {
	b.cells[pos.Row][pos.Col].PremiumConsumed = true
}

// CellView is the JSON projection of a cell.
type CellView struct {
	Premium string `json:"premium,omitempty"`
	Letter  string `json:"letter,omitempty"`
	Value   int    `json:"value,omitempty"`
	Blank   bool   `json:"blank,omitempty"`
	Used    bool   `json:"used,omitempty"`
}

// Rows projects the board for clients.
func (b *Board) Rows() [][]CellView {
	rows := make([][]CellView, len(b.cells))
	for r, row := range b.cells {
		rows[r] = make([]CellView, len(row))
		for c, cell := range row {
			v := CellView{Premium: cell.Premium.String(), Used: cell.PremiumConsumed}
			if cell.Tile != nil {
				v.Letter = cell.Tile.String()
				v.Value = cell.Tile.Value
				v.Blank = cell.Tile.Blank
			}
			rows[r][c] = v
		}
	}
	return rows
}
