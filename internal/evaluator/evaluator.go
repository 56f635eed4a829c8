// Package evaluator ranks poker hands. Evaluate5 scores an exact 5-card
// hand into a HandRank; BestOf searches every 5-card subset of a 5-7
// card union for the strongest one.
package evaluator

import (
	"errors"
	"fmt"

	"github.com/lox/holdem-odds/internal/deck"
)

// ErrInvalidHandSize is returned when the evaluator is given the wrong
// number of cards.
var ErrInvalidHandSize = errors.New("invalid hand size")

// Evaluate5 ranks an exact 5-card hand.
func Evaluate5(cards []deck.Card) (HandRank, error) {
	if len(cards) != 5 {
		return HandRank{}, fmt.Errorf("%w: need 5 cards, got %d", ErrInvalidHandSize, len(cards))
	}
	return evaluateFive(cards), nil
}

// BestOf returns the strongest HandRank among all 5-card subsets of a
// 5-7 card set. For exactly 5 cards it degenerates to a single
// evaluation; for 7 cards it scans all 21 subsets.
func BestOf(cards []deck.Card) (HandRank, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return HandRank{}, fmt.Errorf("%w: need 5-7 cards, got %d", ErrInvalidHandSize, len(cards))
	}
	if len(cards) == 5 {
		return evaluateFive(cards), nil
	}

	var best HandRank
	var subset [5]deck.Card
	idx := []int{0, 1, 2, 3, 4}
	for {
		for i, j := range idx {
			subset[i] = cards[j]
		}
		rank := evaluateFive(subset[:])
		if best.Category == 0 || rank.Compare(best) > 0 {
			best = rank
		}
		if !nextCombination(idx, len(cards)) {
			break
		}
	}
	return best, nil
}

// nextCombination advances idx to the next k-subset of [0,n) in
// lexicographic order, returning false once every subset has been seen.
func nextCombination(idx []int, n int) bool {
	k := len(idx)
	for i := k - 1; i >= 0; i-- {
		if idx[i] < n-k+i {
			idx[i]++
			for j := i + 1; j < k; j++ {
				idx[j] = idx[j-1] + 1
			}
			return true
		}
	}
	return false
}

func evaluateFive(cards []deck.Card) HandRank {
	var rankCount [int(deck.Ace) + 1]int
	var suitCount [4]int
	for _, c := range cards {
		rankCount[c.Rank]++
		suitCount[c.Suit]++
	}

	flush := false
	for _, n := range suitCount {
		if n == 5 {
			flush = true
			break
		}
	}

	// Distinct ranks ascending
	distinct := make([]deck.Rank, 0, 5)
	for r := deck.Two; r <= deck.Ace; r++ {
		if rankCount[r] > 0 {
			distinct = append(distinct, r)
		}
	}

	straight := false
	var straightHigh deck.Rank
	if len(distinct) == 5 {
		switch {
		case distinct[4]-distinct[0] == 4:
			straight = true
			straightHigh = distinct[4]
		case distinct[4] == deck.Ace && distinct[3] == deck.Five:
			// The wheel: ace plays low, high card is the five.
			straight = true
			straightHigh = deck.Five
		}
	}

	// Group ranks by multiplicity, highest rank first within each group.
	var quad, trip deck.Rank
	var pairs, singles []deck.Rank
	for r := deck.Ace; r >= deck.Two; r-- {
		switch rankCount[r] {
		case 4:
			quad = r
		case 3:
			trip = r
		case 2:
			pairs = append(pairs, r)
		case 1:
			singles = append(singles, r)
		}
	}

	switch {
	case flush && straight:
		if straightHigh == deck.Ace {
			return HandRank{Category: RoyalFlush, TieBreaks: []deck.Rank{deck.Ace}}
		}
		return HandRank{Category: StraightFlush, TieBreaks: []deck.Rank{straightHigh}}
	case quad != 0:
		return HandRank{Category: FourOfAKind, TieBreaks: []deck.Rank{quad, singles[0]}}
	case trip != 0 && len(pairs) == 1:
		return HandRank{Category: FullHouse, TieBreaks: []deck.Rank{trip, pairs[0]}}
	case flush:
		return HandRank{Category: Flush, TieBreaks: ranksDescending(cards)}
	case straight:
		return HandRank{Category: Straight, TieBreaks: []deck.Rank{straightHigh}}
	case trip != 0:
		return HandRank{Category: ThreeOfAKind, TieBreaks: append([]deck.Rank{trip}, singles...)}
	case len(pairs) == 2:
		return HandRank{Category: TwoPair, TieBreaks: []deck.Rank{pairs[0], pairs[1], singles[0]}}
	case len(pairs) == 1:
		return HandRank{Category: OnePair, TieBreaks: append([]deck.Rank{pairs[0]}, singles...)}
	default:
		return HandRank{Category: HighCard, TieBreaks: singles}
	}
}

// ranksDescending returns all five ranks sorted high to low, duplicates
// included.
func ranksDescending(cards []deck.Card) []deck.Rank {
	var rankCount [int(deck.Ace) + 1]int
	for _, c := range cards {
		rankCount[c.Rank]++
	}
	out := make([]deck.Rank, 0, len(cards))
	for r := deck.Ace; r >= deck.Two; r-- {
		for i := 0; i < rankCount[r]; i++ {
			out = append(out, r)
		}
	}
	return out
}
