package game

import (
	"errors"
	"fmt"
	"testing"
)

func TestRejectionIs(t *testing.T) {
	err := fmt.Errorf("play: %w", &Rejection{Code: CodeInvalidWord, Word: "QZX"})

	if !errors.Is(err, ErrInvalidWord) {
		t.Fatal("expected wrapped rejection to match ErrInvalidWord")
	}
	if errors.Is(err, ErrNotYourTurn) {
		t.Fatal("expected rejection not to match a different code")
	}

	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatal("expected errors.As to find the rejection")
	}
	if rej.Word != "QZX" {
		t.Fatalf("expected word QZX, got %q", rej.Word)
	}
}

func TestRejectionError(t *testing.T) {
	tests := []struct {
		name string
		r    *Rejection
		want string
	}{
		{"code only", ErrBagEmpty, "bag_empty"},
		{"with word", &Rejection{Code: CodeInvalidWord, Word: "XYZZY"}, "invalid_word: XYZZY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Error(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
