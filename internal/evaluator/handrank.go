package evaluator

import (
	"strings"

	"github.com/lox/holdem-odds/internal/deck"
)

// Category is the hand category tier. Higher is stronger.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the readable name of the category
func (c Category) String() string {
	switch c {
	case RoyalFlush:
		return "Royal Flush"
	case StraightFlush:
		return "Straight Flush"
	case FourOfAKind:
		return "Four of a Kind"
	case FullHouse:
		return "Full House"
	case Flush:
		return "Flush"
	case Straight:
		return "Straight"
	case ThreeOfAKind:
		return "Three of a Kind"
	case TwoPair:
		return "Two Pair"
	case OnePair:
		return "One Pair"
	case HighCard:
		return "High Card"
	default:
		return "Unknown"
	}
}

// HandRank is the comparable strength of a 5-card hand: the category tier
// plus a tie-break vector of rank values, most significant first. Two
// hands in the same category always carry tie-break vectors of the same
// length.
type HandRank struct {
	Category  Category
	TieBreaks []deck.Rank
}

// Compare returns 1 if h is stronger than other, -1 if weaker, 0 if the
// hands are exactly equal in strength.
func (h HandRank) Compare(other HandRank) int {
	if h.Category != other.Category {
		if h.Category > other.Category {
			return 1
		}
		return -1
	}
	for i := 0; i < len(h.TieBreaks) && i < len(other.TieBreaks); i++ {
		if h.TieBreaks[i] != other.TieBreaks[i] {
			if h.TieBreaks[i] > other.TieBreaks[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// String returns the category name with its tie-break ranks, e.g.
// "Full House (K 7)".
func (h HandRank) String() string {
	if len(h.TieBreaks) == 0 {
		return h.Category.String()
	}
	parts := make([]string, len(h.TieBreaks))
	for i, r := range h.TieBreaks {
		parts[i] = r.String()
	}
	return h.Category.String() + " (" + strings.Join(parts, " ") + ")"
}
