// Package equity estimates win/tie/equity probabilities for Texas
// Hold'em players by Monte Carlo simulation, and scans turn boards for
// river cards that meaningfully improve a player's equity ("outs").
//
// A single trial routine serves both the plain odds path and the outs
// path: fixed board cards stay fixed, missing board cards and unknown
// hole cards are drawn fresh from the remaining deck each trial.
package equity

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lox/holdem-odds/internal/deck"
	"github.com/lox/holdem-odds/internal/evaluator"
	"github.com/lox/holdem-odds/internal/randutil"
)

// ErrValidation is returned when hands, board, or trial counts do not
// satisfy the operation's preconditions. All validation happens before
// any trial runs; a simulation never fails midway.
var ErrValidation = errors.New("invalid input")

// Hand is one player's hole cards: exactly 2 known cards, or empty
// meaning "unknown, dealt randomly each trial".
type Hand []deck.Card

// Known reports whether the hand is fully known
func (h Hand) Known() bool {
	return len(h) == 2
}

// Result holds one player's aggregated simulation outcome, in
// percentages of total trials. Equity is Win + Tie: a tie counter
// already represents a full trial-tie event for that player and is
// credited at full value, not renormalized by the number of tied
// winners.
type Result struct {
	Win    float64
	Tie    float64
	Equity float64
}

// Config controls a simulation run.
type Config struct {
	// Trials is the number of Monte Carlo trials. Must be positive.
	Trials int
	// Seed is the root seed; worker streams derive from it, so a fixed
	// seed and worker count reproduce results exactly.
	Seed int64
	// Workers is the number of parallel workers. Zero or negative picks
	// min(NumCPU, 8).
	Workers int
}

func (c Config) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	w := runtime.NumCPU()
	if w > 8 {
		w = 8
	}
	return w
}

// counters accumulates per-player win/tie tallies within one worker.
// Workers never share counters; merging happens after the join.
type counters struct {
	wins []int
	ties []int
}

func newCounters(players int) counters {
	return counters{wins: make([]int, players), ties: make([]int, players)}
}

func (c *counters) merge(o counters) {
	for i := range c.wins {
		c.wins[i] += o.wins[i]
		c.ties[i] += o.ties[i]
	}
}

// Simulate runs cfg.Trials Monte Carlo trials and returns one Result per
// hand. Each trial deals 2 cards to every unknown hand and completes the
// board to 5 cards, all from the same shrinking deck, then awards the
// trial to every player holding the strongest 7-card hand.
func Simulate(ctx context.Context, hands []Hand, board []deck.Card, cfg Config) ([]Result, error) {
	if len(hands) == 0 {
		return nil, fmt.Errorf("%w: no hands", ErrValidation)
	}
	for i, h := range hands {
		if len(h) != 0 && len(h) != 2 {
			return nil, fmt.Errorf("%w: hand %d has %d cards, want 0 or 2", ErrValidation, i+1, len(h))
		}
	}
	if len(board) > 5 {
		return nil, fmt.Errorf("%w: board has %d cards, want at most 5", ErrValidation, len(board))
	}
	if cfg.Trials < 1 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", ErrValidation, cfg.Trials)
	}

	// Remove every fixed card up front; Excluding also catches the same
	// card appearing twice across hands and board.
	fixed := make([]deck.Card, 0, 2*len(hands)+len(board))
	for _, h := range hands {
		fixed = append(fixed, h...)
	}
	fixed = append(fixed, board...)
	avail, err := deck.New().Excluding(fixed)
	if err != nil {
		return nil, err
	}

	workers := cfg.workerCount()
	if workers > cfg.Trials {
		workers = cfg.Trials
	}
	seeds := randutil.Seeds(cfg.Seed, workers)

	perTrials := cfg.Trials / workers
	remainder := cfg.Trials % workers

	results := make([]counters, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		trials := perTrials
		if w < remainder {
			trials++
		}
		seed := seeds[w]
		g.Go(func() error {
			c, err := runTrials(gctx, hands, board, avail.Cards(), trials, seed)
			if err != nil {
				return err
			}
			results[w] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newCounters(len(hands))
	for _, c := range results {
		total.merge(c)
	}

	out := make([]Result, len(hands))
	for i := range hands {
		win := float64(total.wins[i]) / float64(cfg.Trials) * 100
		tie := float64(total.ties[i]) / float64(cfg.Trials) * 100
		out[i] = Result{Win: win, Tie: tie, Equity: win + tie}
	}
	return out, nil
}

// runTrials executes one worker's share of trials with its own RNG
// stream. Cancellation is checked between trials, never inside one.
func runTrials(ctx context.Context, hands []Hand, board []deck.Card, avail []deck.Card, trials int, seed int64) (counters, error) {
	rng := randutil.New(seed)
	c := newCounters(len(hands))

	scratch := make([]deck.Card, len(avail))
	finalBoard := make([]deck.Card, 5)
	seven := make([]deck.Card, 7)
	holes := make([][2]deck.Card, len(hands))
	ranks := make([]evaluator.HandRank, len(hands))

	for t := 0; t < trials; t++ {
		if t%256 == 0 {
			select {
			case <-ctx.Done():
				return c, ctx.Err()
			default:
			}
		}

		copy(scratch, avail)
		dealt := 0
		deal := func() deck.Card {
			idx := rng.IntN(len(scratch) - dealt)
			last := len(scratch) - 1 - dealt
			card := scratch[idx]
			scratch[idx], scratch[last] = scratch[last], scratch[idx]
			dealt++
			return card
		}

		for i, h := range hands {
			if h.Known() {
				holes[i] = [2]deck.Card{h[0], h[1]}
			} else {
				holes[i] = [2]deck.Card{deal(), deal()}
			}
		}

		copy(finalBoard[:len(board)], board)
		for j := len(board); j < 5; j++ {
			finalBoard[j] = deal()
		}

		for i := range hands {
			seven[0], seven[1] = holes[i][0], holes[i][1]
			copy(seven[2:], finalBoard)
			rank, err := evaluator.BestOf(seven)
			if err != nil {
				return c, err
			}
			ranks[i] = rank
		}

		best := ranks[0]
		for i := 1; i < len(ranks); i++ {
			if ranks[i].Compare(best) > 0 {
				best = ranks[i]
			}
		}
		winners := 0
		for i := range ranks {
			if ranks[i].Compare(best) == 0 {
				winners++
			}
		}
		for i := range ranks {
			if ranks[i].Compare(best) != 0 {
				continue
			}
			if winners == 1 {
				c.wins[i]++
			} else {
				c.ties[i]++
			}
		}
	}
	return c, nil
}
