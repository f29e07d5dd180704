// Package tile contains the letter tiles, their point distribution, and the
// bag tiles are drawn from.
package tile

// BlankLetter marks a blank tile that has not been assigned a letter.
const BlankLetter = '_'

// RackSize is the number of tiles a player holds when the bag allows it.
const RackSize = 7

// Tile is a single game piece. A blank keeps Blank set once placed, when
// Letter holds the letter chosen for it; it always scores zero.
type Tile struct {
	Letter rune `json:"letter"`
	Value  int  `json:"value"`
	Blank  bool `json:"blank,omitempty"`
}

// String returns the letter shown for the tile.
func (t Tile) String() string {
	return string(t.Letter)
}

// LetterSpec is the count and point value of one letter in a Distribution.
type LetterSpec struct {
	Count int
	Value int
}

// Distribution describes the full set of tiles a bag starts with.
type Distribution struct {
	Letters map[rune]LetterSpec
	Blanks  int
}

// English is the standard 100 tile English set.
var English = Distribution{
	Letters: map[rune]LetterSpec{
		'A': {9, 1}, 'B': {2, 3}, 'C': {2, 3}, 'D': {4, 2}, 'E': {12, 1},
		'F': {2, 4}, 'G': {3, 2}, 'H': {2, 4}, 'I': {9, 1}, 'J': {1, 8},
		'K': {1, 5}, 'L': {4, 1}, 'M': {2, 3}, 'N': {6, 1}, 'O': {8, 1},
		'P': {2, 3}, 'Q': {1, 10}, 'R': {6, 1}, 'S': {4, 1}, 'T': {6, 1},
		'U': {4, 1}, 'V': {2, 4}, 'W': {2, 4}, 'X': {1, 8}, 'Y': {2, 4},
		'Z': {1, 10},
	},
	Blanks: 2,
}

// Total returns the number of tiles in the distribution.
func (d Distribution) Total() int {
	n := d.Blanks
	for _, spec := range d.Letters {
		n += spec.Count
	}
	return n
}

// Tiles returns every tile of the distribution in letter order.
func (d Distribution) Tiles() []Tile {
	tiles := make([]Tile, 0, d.Total())
	for r := 'A'; r <= 'Z'; r++ {
		spec, ok := d.Letters[r]
		if !ok {
			continue
		}
		for range spec.Count {
			tiles = append(tiles, Tile{Letter: r, Value: spec.Value})
		}
	}
	for range d.Blanks {
		tiles = append(tiles, Tile{Letter: BlankLetter, Blank: true})
	}
	return tiles
}

// IsLetter reports whether r is an uppercase A-Z letter.
func IsLetter(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
