package evaluator

import (
	"testing"

	"github.com/lox/holdem-odds/internal/deck"
)

func TestCompareCategoryOrder(t *testing.T) {
	// One representative hand per category, weakest first. Each must
	// beat all the ones before it.
	ladder := []string{
		"AsJd9h6c2s", // high card
		"TsThAd7s3c", // one pair
		"JsJh4d4cAs", // two pair
		"QsQhQd9s4h", // three of a kind
		"Td9s8h7c6d", // straight
		"AhJh8h5h2h", // flush
		"KsKhKd7s7h", // full house
		"7s7h7d7cKs", // four of a kind
		"9h8h7h6h5h", // straight flush
		"AsKsQsJsTs", // royal flush
	}

	ranks := make([]HandRank, len(ladder))
	for i, cards := range ladder {
		rank, err := Evaluate5(deck.MustParseCards(cards))
		if err != nil {
			t.Fatal(err)
		}
		if rank.Category != Category(i+1) {
			t.Fatalf("ladder[%d] %q: category = %v, want %v", i, cards, rank.Category, Category(i+1))
		}
		ranks[i] = rank
	}

	for i := range ranks {
		for j := range ranks {
			want := 0
			if i > j {
				want = 1
			} else if i < j {
				want = -1
			}
			if got := ranks[i].Compare(ranks[j]); got != want {
				t.Errorf("Compare(%v, %v) = %d, want %d", ranks[i], ranks[j], got, want)
			}
		}
	}
}

func TestCompareTieBreaks(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"kicker decides pair", "TsThAd7s3c", "TdTcKd7h3d", 1},
		{"top pair decides two pair", "JsJh4d4cAs", "TsTh9d9cAd", 1},
		{"equal strength", "AsKd9h6c2s", "AdKc9s6h2d", 0},
		{"flush second card", "AhJh8h5h2h", "AsTs9s5s2s", 1},
		{"full house trips first", "QsQhQd2s2h", "JsJhJdAsAh", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Evaluate5(deck.MustParseCards(tt.a))
			if err != nil {
				t.Fatal(err)
			}
			b, err := Evaluate5(deck.MustParseCards(tt.b))
			if err != nil {
				t.Fatal(err)
			}
			if got := a.Compare(b); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
			if got := b.Compare(a); got != -tt.want {
				t.Errorf("reverse Compare = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestHandRankString(t *testing.T) {
	rank, err := Evaluate5(deck.MustParseCards("KsKhKd7s7h"))
	if err != nil {
		t.Fatal(err)
	}
	if rank.String() != "Full House (K 7)" {
		t.Errorf("String() = %q, want %q", rank.String(), "Full House (K 7)")
	}

	bare := HandRank{Category: RoyalFlush}
	if bare.String() != "Royal Flush" {
		t.Errorf("String() = %q, want %q", bare.String(), "Royal Flush")
	}
}

func TestCategoryString(t *testing.T) {
	if HighCard.String() != "High Card" {
		t.Errorf("HighCard.String() = %q", HighCard.String())
	}
	if Category(0).String() != "Unknown" {
		t.Errorf("Category(0).String() = %q", Category(0).String())
	}
}
