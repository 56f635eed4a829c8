package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-odds/internal/deck"
	"github.com/lox/holdem-odds/internal/equity"
	"github.com/lox/holdem-odds/internal/server"
)

var cli struct {
	Calc  CalcCmd  `cmd:"" help:"Calculate win/tie/equity odds for a set of hands."`
	Outs  OutsCmd  `cmd:"" help:"Find river outs for a player on the turn."`
	Serve ServeCmd `cmd:"" help:"Run the HTTP odds service."`
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	handStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	winStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tieStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12"))
)

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("odds"),
		kong.Description("Texas Hold'em equity and outs calculator."))
	ctx.FatalIfErrorf(ctx.Run())
}

// CalcCmd runs a one-shot equity calculation
type CalcCmd struct {
	Hands      []string `arg:"" help:"Player hands as card codes ('AsAh'), or '?' for unknown." required:""`
	Board      string   `short:"b" help:"Community board cards (e.g. 'Td7s8h')."`
	Iterations int      `short:"i" default:"10000" help:"Number of Monte Carlo trials."`
	Seed       *int64   `help:"Random seed for reproducible results."`
}

func (c *CalcCmd) Run() error {
	hands := make([]equity.Hand, len(c.Hands))
	for i, h := range c.Hands {
		if h == "?" || h == "" {
			continue
		}
		cards, err := deck.ParseCards(h)
		if err != nil {
			return fmt.Errorf("hand %d: %w", i+1, err)
		}
		if len(cards) != 2 {
			return fmt.Errorf("hand %d: must contain exactly 2 cards, got %d", i+1, len(cards))
		}
		hands[i] = equity.Hand(cards)
	}

	board, err := deck.ParseCards(c.Board)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}

	cfg := equity.Config{Trials: c.Iterations, Seed: seedOrNow(c.Seed)}

	start := time.Now()
	results, err := equity.Simulate(context.Background(), hands, board, cfg)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	if len(board) > 0 {
		fmt.Printf("%s\n%s\n\n", headerStyle.Render("board"), formatCards(board))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("hand"),
		headerStyle.Render("win"),
		headerStyle.Render("tie"),
		headerStyle.Render("equity"))
	for i, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			handStyle.Render(formatHand(hands[i])),
			winStyle.Render(fmt.Sprintf("%.2f%%", res.Win)),
			tieStyle.Render(fmt.Sprintf("%.2f%%", res.Tie)),
			winStyle.Render(fmt.Sprintf("%.2f%%", res.Equity)))
	}
	w.Flush()

	fmt.Printf("\n%d trials in %v\n", c.Iterations, duration.Truncate(time.Millisecond))
	return nil
}

// OutsCmd scans a turn board for river outs
type OutsCmd struct {
	Hand       string   `arg:"" help:"Player hand (e.g. 'AsKs')." required:""`
	Board      string   `arg:"" help:"Turn board, exactly 4 cards (e.g. 'AhKdQc2h')." required:""`
	Villains   []string `short:"v" help:"Known opponent hands."`
	Iterations int      `short:"i" default:"5000" help:"Baseline trial count; each river runs a tenth of this."`
	Seed       *int64   `help:"Random seed for reproducible results."`
}

func (c *OutsCmd) Run() error {
	player, err := deck.ParseCards(c.Hand)
	if err != nil {
		return fmt.Errorf("hand: %w", err)
	}
	board, err := deck.ParseCards(c.Board)
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	var opponents []equity.Hand
	for i, v := range c.Villains {
		cards, err := deck.ParseCards(v)
		if err != nil {
			return fmt.Errorf("villain %d: %w", i+1, err)
		}
		opponents = append(opponents, equity.Hand(cards))
	}

	cfg := equity.Config{Trials: c.Iterations, Seed: seedOrNow(c.Seed)}

	start := time.Now()
	report, err := equity.AnalyzeOuts(context.Background(), equity.Hand(player), board, opponents, cfg)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	fmt.Printf("%s %s  %s %s\n",
		headerStyle.Render("hand"), handStyle.Render(formatCards(player)),
		headerStyle.Render("board"), handStyle.Render(formatCards(board)))
	fmt.Printf("%s %.2f%%\n\n", headerStyle.Render("baseline equity"), report.BaselineEquity)

	if len(report.Outs) == 0 {
		fmt.Println("no outs found")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			headerStyle.Render("card"),
			headerStyle.Render("equity"),
			headerStyle.Render("gain"))
		for _, out := range report.Outs {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				handStyle.Render(out.Card.String()),
				winStyle.Render(fmt.Sprintf("%.2f%%", out.NewEquity)),
				gainStyle.Render(fmt.Sprintf("+%.2f", out.EquityGain)))
		}
		w.Flush()
	}

	fmt.Printf("\n%d of %d remaining cards are outs (%.2f%%), %v\n",
		report.OutsCount(), report.DeckRemaining, report.OutsPercentage,
		duration.Truncate(time.Millisecond))
	return nil
}

// ServeCmd runs the HTTP service
type ServeCmd struct {
	Config   string `short:"c" default:"odds-server.hcl" help:"Path to HCL configuration file."`
	Addr     string `short:"a" help:"Bind address (overrides config)."`
	LogLevel string `short:"l" help:"Log level (overrides config)."`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	logger.Info("starting odds service",
		"addr", cfg.ListenAddress(),
		"defaultTrials", cfg.Server.DefaultTrials,
		"maxTrials", cfg.Server.MaxTrials)

	return server.New(cfg, logger, nil).ListenAndServe()
}

func seedOrNow(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return time.Now().UnixNano()
}

func formatHand(h equity.Hand) string {
	if !h.Known() {
		return "random"
	}
	return formatCards(h)
}

func formatCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		parts[i] = card.String()
	}
	return strings.Join(parts, " ")
}
