// Package rules validates a proposed move against a board and rack and
// scores it. Evaluation never mutates its input; the caller applies the
// returned Play.
package rules

import (
	"sort"
	"unicode"

	"tilegame/internal/game"
	"tilegame/internal/game/board"
	"tilegame/internal/game/tile"
)

// BingoBonus is awarded for placing a full rack in one turn.
const BingoBonus = 50

// WordChecker reports whether a word is in the dictionary.
type WordChecker interface {
	IsValidWord(word string) bool
}

// Placement proposes putting a tile on a cell. Blank placements take a
// blank from the rack and show Letter.
type Placement struct {
	Letter rune
	Blank  bool
	Row    int
	Col    int
}

// Pos returns the target cell.
func (p Placement) Pos() board.Position {
	return board.Position{Row: p.Row, Col: p.Col}
}

// Input is everything needed to judge one move.
type Input struct {
	Board      *board.Board
	Rack       []tile.Tile
	Playing    bool
	HasTurn    bool
	Placements []Placement
}

// Word is a run of two or more tiles formed by the move.
type Word struct {
	Text  string           `json:"text"`
	Cells []board.Position `json:"cells"`
	Score int              `json:"score"`
}

// PlacedTile is a tile as it will sit on the board.
type PlacedTile struct {
	Pos  board.Position
	Tile tile.Tile
}

// Play is an accepted move.
type Play struct {
	Words    []Word
	Total    int
	Bingo    bool
	Placed   []PlacedTile
	Rest     []tile.Tile      // rack left after the placed tiles are removed
	Consumed []board.Position // premium cells whose multiplier was counted
}

// Evaluate checks a move in a fixed order and returns the first failure as a
// *game.Rejection: turn, shape, rack, geometry, connectivity, words.
func Evaluate(in Input, words WordChecker) (*Play, error) {
	if !in.Playing || !in.HasTurn {
		return nil, game.ErrNotYourTurn
	}

	placements, ok := normalize(in.Placements)
	if !ok {
		return nil, game.ErrInvalidPlacement
	}

	want := make([]tile.Want, len(placements))
	for i, p := range placements {
		want[i] = tile.Want{Letter: p.Letter, Blank: p.Blank}
	}
	rest, removed, ok := tile.RemoveFromRack(in.Rack, want)
	if !ok {
		return nil, game.ErrTileNotInRack
	}

	m := newMove(in.Board, placements, removed)
	if !m.geometryOK() {
		return nil, game.ErrInvalidPlacement
	}
	if err := m.connected(); err != nil {
		return nil, err
	}

	formed := m.words()
	if len(formed) == 0 {
		return nil, game.ErrInvalidPlacement
	}
	for _, w := range formed {
		if !words.IsValidWord(w.Text) {
			return nil, &game.Rejection{Code: game.CodeInvalidWord, Word: w.Text}
		}
	}

	play := &Play{Rest: rest}
	consumed := map[board.Position]bool{}
	for i := range formed {
		formed[i].Score = m.score(formed[i].Cells, consumed)
		play.Total += formed[i].Score
	}
	if len(placements) == tile.RackSize {
		play.Bingo = true
		play.Total += BingoBonus
	}
	play.Words = formed
	for _, p := range placements {
		play.Placed = append(play.Placed, PlacedTile{Pos: p.Pos(), Tile: m.placed[p.Pos()]})
	}
	for pos := range consumed {
		play.Consumed = append(play.Consumed, pos)
	}
	sortPositions(play.Consumed)
	return play, nil
}

// normalize upper-cases letters, rejects malformed placements, and sorts
// them in reading order.
func normalize(in []Placement) ([]Placement, bool) {
	if len(in) == 0 {
		return nil, false
	}
	out := make([]Placement, len(in))
	seen := make(map[board.Position]bool, len(in))
	for i, p := range in {
		p.Letter = unicode.ToUpper(p.Letter)
		if !tile.IsLetter(p.Letter) || seen[p.Pos()] {
			return nil, false
		}
		seen[p.Pos()] = true
		out[i] = p
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out, true
}

func sortPositions(ps []board.Position) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Row != ps[j].Row {
			return ps[i].Row < ps[j].Row
		}
		return ps[i].Col < ps[j].Col
	})
}
