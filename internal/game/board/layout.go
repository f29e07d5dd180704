package board

// Layout is a static premium table, one string per row:
// T triple word, D double word, t triple letter, d double letter, . none.
type Layout []string

// Standard is the 15x15 layout. The center square is a double word.
var Standard = Layout{
	"T..d...T...d..T",
	".D...t...t...D.",
	"..D...d.d...D..",
	"d..D...d...D..d",
	"....D.....D....",
	".t...t...t...t.",
	"..d...d.d...d..",
	"T..d...D...d..T",
	"..d...d.d...d..",
	".t...t...t...t.",
	"....D.....D....",
	"d..D...d...D..d",
	"..D...d.d...D..",
	".D...t...t...D.",
	"T..d...T...d..T",
}

func premiumFor(ch rune) Premium {
	switch ch {
	case 'd':
		return DoubleLetter
	case 't':
		return TripleLetter
	case 'D':
		return DoubleWord
	case 'T':
		return TripleWord
	}
	return None
}
