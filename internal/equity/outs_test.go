package equity

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdem-odds/internal/deck"
)

func TestAnalyzeOutsOpenEndedDraw(t *testing.T) {
	// 9h8h on 7s6c2dKh against aces: any ten or five completes the
	// straight and wins outright, nothing else comes close. With every
	// hand known the per-river simulations are deterministic.
	player := hand(t, "9h8h")
	board := deck.MustParseCards("7s6c2dKh")
	opponents := []Hand{hand(t, "AsAc")}
	cfg := Config{Trials: 4400, Seed: 11, Workers: 2}

	report, err := AnalyzeOuts(context.Background(), player, board, opponents, cfg)
	require.NoError(t, err)

	assert.Equal(t, 44, report.DeckRemaining)
	require.Equal(t, 8, report.OutsCount())
	assert.InDelta(t, float64(8)/44*100, report.OutsPercentage, 0.01)

	byRank := map[deck.Rank]int{}
	for _, out := range report.Outs {
		byRank[out.Card.Rank]++
		assert.Equal(t, 100.0, out.NewEquity, "out %s", out.Card.Code())
		assert.Greater(t, out.EquityGain, OutGainThreshold, "out %s", out.Card.Code())
		assert.Equal(t, report.BaselineEquity, out.CurrentEquity)
	}
	assert.Equal(t, 4, byRank[deck.Ten])
	assert.Equal(t, 4, byRank[deck.Five])

	// Straight-completing rivers are 8 of 44, so the baseline sits near
	// 18% before any of them land.
	assert.InDelta(t, 18.2, report.BaselineEquity, 3)
}

func TestAnalyzeOutsSortedByGain(t *testing.T) {
	player := hand(t, "AhKh")
	board := deck.MustParseCards("Qh7h2s9c")
	cfg := Config{Trials: 2000, Seed: 5, Workers: 2}

	report, err := AnalyzeOuts(context.Background(), player, board, nil, cfg)
	require.NoError(t, err)

	gains := make([]float64, len(report.Outs))
	for i, out := range report.Outs {
		gains[i] = out.EquityGain
	}
	assert.True(t, sort.SliceIsSorted(gains, func(i, j int) bool {
		return gains[i] > gains[j]
	}), "outs not sorted by descending gain: %v", gains)

	codes := report.OutsCards()
	require.Len(t, codes, len(report.Outs))
	for i, out := range report.Outs {
		assert.Equal(t, out.Card.Code(), codes[i])
	}
}

func TestAnalyzeOutsNoOpponents(t *testing.T) {
	// With no known opponents a single random one is assumed, and only
	// the player's cards and the board leave the deck.
	player := hand(t, "JcJd")
	board := deck.MustParseCards("Ts4h8d2c")
	cfg := Config{Trials: 1000, Seed: 9, Workers: 2}

	report, err := AnalyzeOuts(context.Background(), player, board, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, 46, report.DeckRemaining)
}

func TestAnalyzeOutsDeterministic(t *testing.T) {
	player := hand(t, "9h8h")
	board := deck.MustParseCards("7s6c2dKh")
	cfg := Config{Trials: 1000, Seed: 21, Workers: 2}

	first, err := AnalyzeOuts(context.Background(), player, board, nil, cfg)
	require.NoError(t, err)
	second, err := AnalyzeOuts(context.Background(), player, board, nil, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeOutsValidation(t *testing.T) {
	ctx := context.Background()
	board := deck.MustParseCards("7s6c2dKh")
	cfg := Config{Trials: 100, Seed: 1}

	_, err := AnalyzeOuts(ctx, hand(t, "9h"), board, nil, cfg)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AnalyzeOuts(ctx, hand(t, "9h8h"), deck.MustParseCards("7s6c2d"), nil, cfg)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AnalyzeOuts(ctx, hand(t, "9h8h"), board, []Hand{hand(t, "As")}, cfg)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AnalyzeOuts(ctx, hand(t, "9h8h"), board, nil, Config{Trials: 0, Seed: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = AnalyzeOuts(ctx, hand(t, "9h8h"), board, []Hand{hand(t, "9hTh")}, cfg)
	assert.ErrorIs(t, err, deck.ErrDuplicateCard)
}
