package equity

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-odds/internal/deck"
	"github.com/lox/holdem-odds/internal/randutil"
)

// OutGainThreshold is the equity improvement, in percentage points, a
// candidate river card must produce to be flagged as an out. This is a
// heuristic for "this card meaningfully helps", not the showdown
// definition of an out.
const OutGainThreshold = 20.0

// OutDetail describes one candidate river card flagged as an out.
type OutDetail struct {
	Card          deck.Card
	CurrentEquity float64
	NewEquity     float64
	EquityGain    float64
}

// OutsReport is the result of scanning a turn board for outs.
type OutsReport struct {
	// BaselineEquity is the player's equity with the river still unknown.
	BaselineEquity float64
	// Outs lists flagged river cards, sorted by descending equity gain.
	Outs []OutDetail
	// DeckRemaining is the number of candidate river cards scanned, the
	// denominator for OutsPercentage.
	DeckRemaining  int
	OutsPercentage float64
}

// OutsCount returns the number of flagged outs
func (r *OutsReport) OutsCount() int {
	return len(r.Outs)
}

// OutsCards returns the flagged cards as canonical codes, strongest
// gain first.
func (r *OutsReport) OutsCards() []string {
	codes := make([]string, len(r.Outs))
	for i, o := range r.Outs {
		codes[i] = o.Card.Code()
	}
	return codes
}

// AnalyzeOuts measures, for a fixed 4-card turn board, how much each
// remaining card would shift the player's equity if it came on the
// river. The baseline runs at cfg.Trials; each candidate river runs a
// reduced simulation at a tenth of that (minimum 1 trial). When no
// opponent hand is known, a single random opponent is assumed.
func AnalyzeOuts(ctx context.Context, player Hand, turnBoard []deck.Card, opponents []Hand, cfg Config) (*OutsReport, error) {
	if !player.Known() {
		return nil, fmt.Errorf("%w: player hand must have exactly 2 cards, got %d", ErrValidation, len(player))
	}
	if len(turnBoard) != 4 {
		return nil, fmt.Errorf("%w: turn board must have exactly 4 cards, got %d", ErrValidation, len(turnBoard))
	}
	for i, h := range opponents {
		if !h.Known() {
			return nil, fmt.Errorf("%w: opponent hand %d has %d cards, want 2", ErrValidation, i+1, len(h))
		}
	}
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", ErrValidation, cfg.Trials)
	}

	hands := make([]Hand, 0, len(opponents)+2)
	hands = append(hands, player)
	for _, h := range opponents {
		hands = append(hands, h)
	}
	if len(opponents) == 0 {
		hands = append(hands, Hand{})
	}

	fixed := make([]deck.Card, 0, 2+4+2*len(opponents))
	fixed = append(fixed, player...)
	fixed = append(fixed, turnBoard...)
	for _, h := range opponents {
		fixed = append(fixed, h...)
	}
	avail, err := deck.New().Excluding(fixed)
	if err != nil {
		return nil, err
	}

	baseline, err := Simulate(ctx, hands, turnBoard, cfg)
	if err != nil {
		return nil, err
	}
	baselineEquity := baseline[0].Equity

	riverTrials := cfg.Trials / 10
	if riverTrials < 1 {
		riverTrials = 1
	}

	// Candidate rivers are independent of each other: scan them in
	// parallel with single-worker simulations so we don't oversubscribe
	// the CPU with nested fan-out.
	candidates := avail.Cards()
	seeds := randutil.Seeds(cfg.Seed, len(candidates))
	equities := make([]float64, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workerCount())
	for i, card := range candidates {
		g.Go(func() error {
			river := make([]deck.Card, 0, 5)
			river = append(river, turnBoard...)
			river = append(river, card)
			res, err := Simulate(gctx, hands, river, Config{
				Trials:  riverTrials,
				Seed:    seeds[i],
				Workers: 1,
			})
			if err != nil {
				return err
			}
			equities[i] = res[0].Equity
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &OutsReport{
		BaselineEquity: baselineEquity,
		DeckRemaining:  len(candidates),
	}
	for i, card := range candidates {
		if equities[i] > baselineEquity+OutGainThreshold {
			report.Outs = append(report.Outs, OutDetail{
				Card:          card,
				CurrentEquity: baselineEquity,
				NewEquity:     equities[i],
				EquityGain:    equities[i] - baselineEquity,
			})
		}
	}
	sort.SliceStable(report.Outs, func(i, j int) bool {
		return report.Outs[i].EquityGain > report.Outs[j].EquityGain
	})
	if report.DeckRemaining > 0 {
		report.OutsPercentage = float64(len(report.Outs)) / float64(report.DeckRemaining) * 100
	}
	return report, nil
}
