package tile

// RackValue sums the point values of tiles.
func RackValue(tiles []Tile) int {
	sum := 0
	for _, t := range tiles {
		sum += t.Value
	}
	return sum
}

// Want names a tile to take from a rack: a letter, or any blank.
type Want struct {
	Letter rune
	Blank  bool
}

// RemoveFromRack takes the wanted tiles out of rack. It returns the
// remaining rack, the removed tiles in want order, and false if any wanted
// tile is missing, in which case rack is returned unchanged.
func RemoveFromRack(rack []Tile, want []Want) (rest []Tile, removed []Tile, ok bool) {
	taken := make([]bool, len(rack))
	removed = make([]Tile, 0, len(want))
	for _, w := range want {
		found := -1
		for i, t := range rack {
			if taken[i] || t.Blank != w.Blank {
				continue
			}
			if w.Blank || t.Letter == w.Letter {
				found = i
				break
			}
		}
		if found < 0 {
			return rack, nil, false
		}
		taken[found] = true
		removed = append(removed, rack[found])
	}
	rest = make([]Tile, 0, len(rack)-len(removed))
	for i, t := range rack {
		if !taken[i] {
			rest = append(rest, t)
		}
	}
	return rest, removed, true
}
