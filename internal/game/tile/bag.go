package tile

import "math/rand"

// Bag holds the undrawn tiles of one session. It is not safe for concurrent
// use; the owning session serializes access.
type Bag struct {
	tiles []Tile
	rng   *rand.Rand
}

// NewBag fills a bag from the distribution and shuffles it.
func NewBag(d Distribution, rng *rand.Rand) *Bag {
	b := &Bag{tiles: d.Tiles(), rng: rng}
	b.shuffle()
	return b
}

// Len returns the number of tiles left.
func (b *Bag) Len() int {
	return len(b.tiles)
}

// Draw removes up to n tiles from the bag. Fewer are returned when the bag
// runs short.
func (b *Bag) Draw(n int) []Tile {
	n = max(0, min(n, len(b.tiles)))
	drawn := make([]Tile, n)
	copy(drawn, b.tiles[:n])
	b.tiles = b.tiles[n:]
	return drawn
}

// ReturnAndReshuffle puts tiles back and reshuffles the whole bag.
func (b *Bag) ReturnAndReshuffle(tiles []Tile) {
	for _, t := range tiles {
		if t.Blank {
			t = Tile{Letter: BlankLetter, Blank: true}
		}
		b.tiles = append(b.tiles, t)
	}
	b.shuffle()
}

func (b *Bag) shuffle() {
	b.rng.Shuffle(len(b.tiles), func(i, j int) { b.tiles[i], b.tiles[j] = b.tiles[j], b.tiles[i] })
}
