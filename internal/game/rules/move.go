package rules

import (
	"strings"

	"tilegame/internal/game"
	"tilegame/internal/game/board"
	"tilegame/internal/game/tile"
)

// direction is a unit step along a row or column.
type direction struct{ dr, dc int }

var (
	across = direction{0, 1}
	down   = direction{1, 0}
)

func (d direction) perpendicular() direction {
	return direction{d.dc, d.dr}
}

func step(p board.Position, d direction, n int) board.Position {
	return board.Position{Row: p.Row + d.dr*n, Col: p.Col + d.dc*n}
}

// move overlays the proposed tiles on a read-only board.
type move struct {
	b          *board.Board
	placements []Placement // reading order
	placed     map[board.Position]tile.Tile
	dir        direction
}

func newMove(b *board.Board, placements []Placement, fromRack []tile.Tile) *move {
	m := &move{
		b:          b,
		placements: placements,
		placed:     make(map[board.Position]tile.Tile, len(placements)),
	}
	for i, p := range placements {
		t := fromRack[i]
		if p.Blank {
			t = tile.Tile{Letter: p.Letter, Blank: true}
		}
		m.placed[p.Pos()] = t
	}
	return m
}

func (m *move) filled(p board.Position) bool {
	_, ok := m.placed[p]
	return ok || m.b.Occupied(p)
}

func (m *move) tileAt(p board.Position) tile.Tile {
	if t, ok := m.placed[p]; ok {
		return t
	}
	return *m.b.At(p).Tile
}

// geometryOK checks the targets are free board cells on one line with no
// empty cell between the first and last, and picks the line of play.
func (m *move) geometryOK() bool {
	for _, p := range m.placements {
		if !m.b.InBounds(p.Pos()) || m.b.Occupied(p.Pos()) {
			return false
		}
	}

	first, last := m.placements[0].Pos(), m.placements[len(m.placements)-1].Pos()
	switch {
	case len(m.placements) == 1:
		m.dir = across
		if !m.filled(step(first, across, -1)) && !m.filled(step(first, across, 1)) &&
			(m.filled(step(first, down, -1)) || m.filled(step(first, down, 1))) {
			m.dir = down
		}
		return true
	case m.sameLine(func(p Placement) int { return p.Row }):
		m.dir = across
	case m.sameLine(func(p Placement) int { return p.Col }):
		m.dir = down
	default:
		return false
	}

	for p := first; p != last; p = step(p, m.dir, 1) {
		if !m.filled(p) {
			return false
		}
	}
	return true
}

func (m *move) sameLine(coord func(Placement) int) bool {
	c := coord(m.placements[0])
	for _, p := range m.placements[1:] {
		if coord(p) != c {
			return false
		}
	}
	return true
}

func (m *move) connected() error {
	if m.b.IsEmpty() {
		if _, ok := m.placed[m.b.Center()]; !ok {
			return game.ErrMustStartAtCenter
		}
		return nil
	}
	// A run through an existing tile always has a placed neighbour of it,
	// so adjacency covers the gap-filling case too.
	for pos := range m.placed {
		for _, d := range []direction{across, down} {
			if m.b.Occupied(step(pos, d, -1)) || m.b.Occupied(step(pos, d, 1)) {
				return nil
			}
		}
	}
	return game.ErrNotConnected
}

// run returns the maximal filled run through p along d.
func (m *move) run(p board.Position, d direction) []board.Position {
	start := p
	for m.filled(step(start, d, -1)) {
		start = step(start, d, -1)
	}
	var cells []board.Position
	for c := start; m.filled(c); c = step(c, d, 1) {
		cells = append(cells, c)
	}
	return cells
}

// words extracts the main word and every cross word of two or more letters.
func (m *move) words() []Word {
	var out []Word
	add := func(cells []board.Position) {
		if len(cells) < 2 {
			return
		}
		var sb strings.Builder
		for _, c := range cells {
			sb.WriteRune(m.tileAt(c).Letter)
		}
		out = append(out, Word{Text: sb.String(), Cells: cells})
	}

	add(m.run(m.placements[0].Pos(), m.dir))
	for _, p := range m.placements {
		add(m.run(p.Pos(), m.dir.perpendicular()))
	}
	return out
}

// score prices one word. Only tiles placed this turn see their cell's
// premium, and only while it is unconsumed; counted premiums go in consumed.
func (m *move) score(cells []board.Position, consumed map[board.Position]bool) int {
	sum, mult := 0, 1
	for _, c := range cells {
		t, placedNow := m.placed[c]
		if !placedNow {
			sum += m.b.At(c).Tile.Value
			continue
		}
		cell := m.b.At(c)
		v := t.Value
		if !cell.PremiumConsumed && cell.Premium != board.None {
			v *= cell.Premium.LetterMultiplier()
			mult *= cell.Premium.WordMultiplier()
			consumed[c] = true
		}
		sum += v
	}
	return sum * mult
}
