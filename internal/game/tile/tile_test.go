package tile

import (
	"math/rand"
	"testing"
)

func TestEnglishDistribution(t *testing.T) {
	if got := English.Total(); got != 100 {
		t.Fatalf("expected 100 tiles, got %d", got)
	}
	tiles := English.Tiles()
	if len(tiles) != 100 {
		t.Fatalf("expected 100 tiles from Tiles(), got %d", len(tiles))
	}
	blanks := 0
	for _, tl := range tiles {
		if tl.Blank {
			blanks++
			if tl.Value != 0 || tl.Letter != BlankLetter {
				t.Fatalf("unexpected blank tile %+v", tl)
			}
		}
	}
	if blanks != 2 {
		t.Fatalf("expected 2 blanks, got %d", blanks)
	}

	values := map[rune]int{'A': 1, 'C': 3, 'K': 5, 'Q': 10, 'Z': 10, 'X': 8}
	for r, want := range values {
		if got := English.Letters[r].Value; got != want {
			t.Fatalf("value of %c: expected %d, got %d", r, want, got)
		}
	}
}

func TestBagDraw(t *testing.T) {
	b := NewBag(English, rand.New(rand.NewSource(1)))
	if b.Len() != 100 {
		t.Fatalf("expected 100 tiles, got %d", b.Len())
	}

	drawn := b.Draw(7)
	if len(drawn) != 7 || b.Len() != 93 {
		t.Fatalf("expected 7 drawn and 93 left, got %d and %d", len(drawn), b.Len())
	}

	rest := b.Draw(200)
	if len(rest) != 93 || b.Len() != 0 {
		t.Fatalf("expected remaining 93 drawn, got %d (left %d)", len(rest), b.Len())
	}
	if got := b.Draw(3); len(got) != 0 {
		t.Fatalf("expected empty draw from empty bag, got %d", len(got))
	}
}

func TestBagReturnAndReshuffle(t *testing.T) {
	b := NewBag(English, rand.New(rand.NewSource(2)))
	drawn := b.Draw(10)
	// a placed blank carries its chosen letter; it must come back unassigned
	drawn = append(drawn, Tile{Letter: 'E', Blank: true})

	b.ReturnAndReshuffle(drawn)
	if b.Len() != 101 {
		t.Fatalf("expected 101 tiles, got %d", b.Len())
	}
	for _, tl := range b.Draw(b.Len()) {
		if tl.Blank && tl.Letter != BlankLetter {
			t.Fatalf("returned blank kept letter %c", tl.Letter)
		}
	}
}

func TestBagShuffleUniform(t *testing.T) {
	d := Distribution{Letters: map[rune]LetterSpec{
		'A': {1, 1}, 'B': {1, 1}, 'C': {1, 1}, 'D': {1, 1},
	}}
	rng := rand.New(rand.NewSource(42))
	const rounds = 24000
	counts := map[string]int{}
	for range rounds {
		b := NewBag(d, rng)
		s := ""
		for _, tl := range b.Draw(4) {
			s += tl.String()
		}
		counts[s]++
	}
	if len(counts) != 24 {
		t.Fatalf("expected all 24 permutations, saw %d", len(counts))
	}
	// expected 1000 each, sigma ~31
	for perm, n := range counts {
		if n < 850 || n > 1150 {
			t.Fatalf("permutation %s drawn %d times, outside uniform bounds", perm, n)
		}
	}
}

func TestRemoveFromRack(t *testing.T) {
	rack := []Tile{
		{Letter: 'C', Value: 3},
		{Letter: 'A', Value: 1},
		{Letter: BlankLetter, Blank: true},
		{Letter: 'A', Value: 1},
	}

	tests := []struct {
		name     string
		want     []Want
		ok       bool
		restSize int
	}{
		{"single letter", []Want{{Letter: 'C'}}, true, 3},
		{"duplicate letters", []Want{{Letter: 'A'}, {Letter: 'A'}}, true, 2},
		{"too many of a letter", []Want{{Letter: 'C'}, {Letter: 'C'}}, false, 4},
		{"blank as wildcard", []Want{{Letter: 'Z', Blank: true}}, true, 3},
		{"letter does not use blank", []Want{{Letter: 'Z'}}, false, 4},
		{"two blanks with one held", []Want{{Blank: true}, {Blank: true}}, false, 4},
		{"everything", []Want{{Letter: 'A'}, {Letter: 'C'}, {Blank: true}, {Letter: 'A'}}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest, removed, ok := RemoveFromRack(rack, tt.want)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if len(rest) != tt.restSize {
				t.Fatalf("expected %d left, got %d", tt.restSize, len(rest))
			}
			if ok && len(removed) != len(tt.want) {
				t.Fatalf("expected %d removed, got %d", len(tt.want), len(removed))
			}
		})
	}
	if len(rack) != 4 {
		t.Fatal("input rack must not be modified")
	}
}

func TestRackValue(t *testing.T) {
	rack := []Tile{{Letter: 'Q', Value: 10}, {Letter: 'A', Value: 1}, {Letter: BlankLetter, Blank: true}}
	if got := RackValue(rack); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}
}
