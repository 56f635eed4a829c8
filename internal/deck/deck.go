package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

var (
	// ErrDuplicateCard is returned when a card is removed from a deck it
	// is no longer part of, i.e. the same card appears twice across the
	// fixed inputs of a calculation.
	ErrDuplicateCard = errors.New("duplicate card")

	// ErrInsufficientCards is returned when a sample asks for more cards
	// than the deck holds.
	ErrInsufficientCards = errors.New("insufficient cards in deck")
)

// CardSet is a 52-bit membership mask over cards.
// Each card maps to a bit: index = (rank-2)*4 + suit.
type CardSet uint64

func cardIndex(card Card) int {
	return int(card.Rank-Two)*4 + int(card.Suit)
}

// Add adds a card to the set
func (cs *CardSet) Add(card Card) {
	*cs |= 1 << cardIndex(card)
}

// Contains checks if a card is in the set
func (cs CardSet) Contains(card Card) bool {
	return cs&(1<<cardIndex(card)) != 0
}

// NewCardSet creates a CardSet from a slice of cards
func NewCardSet(cards []Card) CardSet {
	var cs CardSet
	for _, card := range cards {
		cs.Add(card)
	}
	return cs
}

// Deck is a set of unique cards. Construction order is stable but carries
// no meaning; all draws go through SampleN.
type Deck struct {
	cards []Card
	mask  CardSet
}

// New returns the full 52-card deck.
func New() Deck {
	d := Deck{cards: make([]Card, 0, 52)}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			card := Card{Rank: rank, Suit: suit}
			d.cards = append(d.cards, card)
			d.mask.Add(card)
		}
	}
	return d
}

// Size returns the number of cards in the deck
func (d Deck) Size() int {
	return len(d.cards)
}

// Contains reports whether the deck holds the card
func (d Deck) Contains(card Card) bool {
	return d.mask.Contains(card)
}

// Cards returns a copy of the deck's cards
func (d Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Excluding returns a new deck with every card in used removed. It fails
// with ErrDuplicateCard if a used card is not present, which means the
// caller supplied the same card twice across its fixed inputs.
func (d Deck) Excluding(used []Card) (Deck, error) {
	removed := d.mask
	for _, card := range used {
		if !removed.Contains(card) {
			return Deck{}, fmt.Errorf("%w: %s", ErrDuplicateCard, card.Code())
		}
		removed &^= 1 << cardIndex(card)
	}

	usedSet := NewCardSet(used)
	out := Deck{cards: make([]Card, 0, len(d.cards)-len(used)), mask: removed}
	for _, card := range d.cards {
		if !usedSet.Contains(card) {
			out.cards = append(out.cards, card)
		}
	}
	return out, nil
}

// SampleN draws n distinct cards uniformly at random without modifying
// the deck. It fails with ErrInsufficientCards if n exceeds the deck size.
func (d Deck) SampleN(n int, rng *rand.Rand) ([]Card, error) {
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrInsufficientCards, n, len(d.cards))
	}

	scratch := make([]Card, len(d.cards))
	copy(scratch, d.cards)

	// Partial Fisher-Yates: swap each pick to the tail so it cannot be
	// drawn again.
	out := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		idx := rng.IntN(len(scratch) - i)
		out = append(out, scratch[idx])
		scratch[idx], scratch[len(scratch)-1-i] = scratch[len(scratch)-1-i], scratch[idx]
	}
	return out, nil
}
