// Package dictionary answers whether a word may be played.
//
// A Dictionary is an in-memory set built once at startup, from a word list
// file or the embedded default list. Lookups are case-insensitive and safe
// for concurrent use since the set is never modified after loading.
package dictionary

import (
	"bufio"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed words.txt
var embeddedWords string

// ErrEmpty is returned when a word list yields no playable words.
var ErrEmpty = errors.New("dictionary: word list is empty")

// Dictionary is a set of uppercase words.
type Dictionary struct {
	words map[string]struct{}
}

// New builds a dictionary from words.
func New(words ...string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		d.add(w)
	}
	return d
}

// Load reads one word per line. Blank lines and lines starting with '#' are
// skipped, as are entries containing anything but letters.
func Load(r io.Reader) (*Dictionary, error) {
	d := New()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d.add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	if d.Len() == 0 {
		return nil, ErrEmpty
	}
	return d, nil
}

// LoadFile loads a word list from path.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded word list.
func Default() (*Dictionary, error) {
	return Load(strings.NewReader(embeddedWords))
}

// IsValidWord reports whether word is in the dictionary, ignoring case.
func (d *Dictionary) IsValidWord(word string) bool {
	_, ok := d.words[strings.ToUpper(word)]
	return ok
}

// Len returns the number of words.
func (d *Dictionary) Len() int {
	return len(d.words)
}

func (d *Dictionary) add(w string) {
	w = strings.ToUpper(strings.TrimSpace(w))
	if len(w) < 2 || !isAlpha(w) {
		return
	}
	d.words[w] = struct{}{}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
