package deck

import (
	"errors"
	"testing"

	"github.com/lox/holdem-odds/internal/randutil"
)

func TestNewDeck(t *testing.T) {
	d := New()
	if d.Size() != 52 {
		t.Fatalf("Size() = %d, want 52", d.Size())
	}

	seen := make(map[Card]bool)
	for _, card := range d.Cards() {
		if seen[card] {
			t.Errorf("duplicate card %s", card.Code())
		}
		seen[card] = true
	}
}

func TestExcluding(t *testing.T) {
	used := MustParseCards("AsAhKsKh7d6d5d")
	d, err := New().Excluding(used)
	if err != nil {
		t.Fatal(err)
	}
	if d.Size() != 52-len(used) {
		t.Errorf("Size() = %d, want %d", d.Size(), 52-len(used))
	}
	for _, card := range used {
		if d.Contains(card) {
			t.Errorf("deck still contains excluded card %s", card.Code())
		}
	}
}

func TestExcludingSizeInvariant(t *testing.T) {
	// 52 minus two full hands minus the board, for every street.
	hands := MustParseCards("AsAhKsKh")
	for _, board := range []string{"", "2d7c9h", "2d7c9hJs", "2d7c9hJsQc"} {
		boardCards := MustParseCards(board)
		d, err := New().Excluding(append(append([]Card{}, hands...), boardCards...))
		if err != nil {
			t.Fatal(err)
		}
		want := 52 - len(hands) - len(boardCards)
		if d.Size() != want {
			t.Errorf("board %q: Size() = %d, want %d", board, d.Size(), want)
		}
	}
}

func TestExcludingDuplicate(t *testing.T) {
	// The same card twice across fixed inputs must be rejected.
	if _, err := New().Excluding(MustParseCards("AsKhAs")); !errors.Is(err, ErrDuplicateCard) {
		t.Errorf("error = %v, want ErrDuplicateCard", err)
	}

	// Removing a card from a deck that no longer holds it is the same
	// defect seen across two Excluding calls.
	d, err := New().Excluding(MustParseCards("As"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Excluding(MustParseCards("As")); !errors.Is(err, ErrDuplicateCard) {
		t.Errorf("error = %v, want ErrDuplicateCard", err)
	}
}

func TestSampleN(t *testing.T) {
	d := New()
	rng := randutil.New(12345)

	cards, err := d.SampleN(5, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 5 {
		t.Fatalf("got %d cards, want 5", len(cards))
	}

	seen := make(map[Card]bool)
	for _, card := range cards {
		if seen[card] {
			t.Errorf("sampled card %s twice", card.Code())
		}
		seen[card] = true
		if !d.Contains(card) {
			t.Errorf("sampled card %s not in deck", card.Code())
		}
	}

	// Sampling must not consume the deck.
	if d.Size() != 52 {
		t.Errorf("Size() = %d after sampling, want 52", d.Size())
	}
}

func TestSampleNDeterministic(t *testing.T) {
	d := New()
	a, err := d.SampleN(10, randutil.New(99))
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.SampleN(10, randutil.New(99))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different samples: %v vs %v", a, b)
		}
	}
}

func TestSampleNInsufficient(t *testing.T) {
	d, err := New().Excluding(MustParseCards("AsAhKsKh"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.SampleN(49, randutil.New(1)); !errors.Is(err, ErrInsufficientCards) {
		t.Errorf("error = %v, want ErrInsufficientCards", err)
	}
	if _, err := d.SampleN(48, randutil.New(1)); err != nil {
		t.Errorf("sampling exactly the deck size should succeed, got %v", err)
	}
}
