// Package server exposes the equity engine over HTTP: JSON endpoints
// mirroring the calculator's calculate/calculate_outs/random_hand
// surface, plus a websocket stream for incremental results.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/lox/holdem-odds/internal/deck"
	"github.com/lox/holdem-odds/internal/equity"
	"github.com/lox/holdem-odds/internal/randutil"
)

// stageBoardLen maps a street name to the required board string length
// (two characters per card).
var stageBoardLen = map[string]int{
	"preflop": 0,
	"flop":    6,
	"turn":    8,
	"river":   10,
}

// Server is the HTTP front end for the equity engine. It owns no state
// beyond configuration; every request builds its decks and hands fresh.
type Server struct {
	cfg      *Config
	logger   *log.Logger
	clock    quartz.Clock
	router   *mux.Router
	upgrader websocket.Upgrader
}

// New creates a Server. A nil clock uses the real one; tests inject
// quartz.NewMock to drive deadlines synthetically.
func New(cfg *Config, logger *log.Logger, clock quartz.Clock) *Server {
	if clock == nil {
		clock = quartz.NewReal()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger.WithPrefix("server"),
		clock:  clock,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/calculate", s.handleCalculate).Methods(http.MethodPost)
	r.HandleFunc("/calculate_outs", s.handleCalculateOuts).Methods(http.MethodPost)
	r.HandleFunc("/random_hand", s.handleRandomHand).Methods(http.MethodGet)
	r.HandleFunc("/live", s.handleLive).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router = r
	return s
}

// Router returns the HTTP handler, exposed for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe blocks serving HTTP on the configured address
func (s *Server) ListenAndServe() error {
	addr := s.cfg.ListenAddress()
	s.logger.Info("listening", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// simulationContext derives a request context that the deadline clock
// cancels once the configured timeout elapses. The returned stop func
// releases the timer.
func (s *Server) simulationContext(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	timer := s.clock.AfterFunc(s.cfg.Timeout(), cancel)
	return ctx, func() {
		timer.Stop()
		cancel()
	}
}

type calculateRequest struct {
	NumPlayers  int      `json:"num_players"`
	Stage       string   `json:"stage"`
	Simulations int      `json:"simulations"`
	Seed        *int64   `json:"seed"`
	Hands       []string `json:"hands"`
	Board       string   `json:"board"`
}

type playerOdds struct {
	Win    float64 `json:"win"`
	Tie    float64 `json:"tie"`
	Equity float64 `json:"equity"`
}

type calculateResponse struct {
	Success     bool                  `json:"success"`
	Result      map[string]playerOdds `json:"result"`
	Board       string                `json:"board"`
	Stage       string                `json:"stage"`
	Simulations int                   `json:"simulations"`
}

// parseCalculateRequest validates and converts the wire request into
// engine inputs. The per-street board length contract is enforced here,
// not in the engine.
func (s *Server) parseCalculateRequest(req *calculateRequest) ([]equity.Hand, []deck.Card, error) {
	if req.Stage != "" {
		required, ok := stageBoardLen[req.Stage]
		if !ok {
			return nil, nil, fmt.Errorf("unknown stage %q", req.Stage)
		}
		if req.Board != "" && len(req.Board) != required {
			return nil, nil, fmt.Errorf("%s requires %d board cards", req.Stage, required/2)
		}
	}

	numPlayers := req.NumPlayers
	if numPlayers == 0 {
		numPlayers = len(req.Hands)
	}
	if numPlayers < 1 || numPlayers > 10 {
		return nil, nil, fmt.Errorf("num_players must be between 1 and 10, got %d", numPlayers)
	}
	if len(req.Hands) > numPlayers {
		return nil, nil, fmt.Errorf("got %d hands for %d players", len(req.Hands), numPlayers)
	}

	hands := make([]equity.Hand, numPlayers)
	for i, h := range req.Hands {
		if h == "" {
			continue
		}
		cards, err := deck.ParseCards(h)
		if err != nil {
			return nil, nil, fmt.Errorf("hand %d: %w", i+1, err)
		}
		if len(cards) != 2 {
			return nil, nil, fmt.Errorf("hand %d: must be 2 cards, got %d", i+1, len(cards))
		}
		hands[i] = equity.Hand(cards)
	}

	board, err := deck.ParseCards(req.Board)
	if err != nil {
		return nil, nil, fmt.Errorf("board: %w", err)
	}
	return hands, board, nil
}

func (s *Server) simulationConfig(trials int, seed *int64) equity.Config {
	if trials <= 0 {
		trials = s.cfg.Server.DefaultTrials
	}
	if trials > s.cfg.Server.MaxTrials {
		trials = s.cfg.Server.MaxTrials
	}
	cfg := equity.Config{Trials: trials}
	if seed != nil {
		cfg.Seed = *seed
	} else {
		cfg.Seed = s.clock.Now().UnixNano()
	}
	return cfg
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	hands, board, err := s.parseCalculateRequest(&req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	cfg := s.simulationConfig(req.Simulations, req.Seed)

	ctx, stop := s.simulationContext(r.Context())
	defer stop()

	results, err := equity.Simulate(ctx, hands, board, cfg)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	resp := calculateResponse{
		Success:     true,
		Result:      make(map[string]playerOdds, len(results)),
		Board:       req.Board,
		Stage:       req.Stage,
		Simulations: cfg.Trials,
	}
	for i, res := range results {
		resp.Result[fmt.Sprintf("player%d", i+1)] = playerOdds{
			Win:    round2(res.Win),
			Tie:    round2(res.Tie),
			Equity: round2(res.Equity),
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type outsRequest struct {
	PlayerHand    string   `json:"player_hand"`
	Board         string   `json:"board"`
	OpponentHands []string `json:"opponent_hands"`
	Simulations   int      `json:"simulations"`
	Seed          *int64   `json:"seed"`
}

type outDetailJSON struct {
	Card          string  `json:"card"`
	CurrentEquity float64 `json:"current_equity"`
	NewEquity     float64 `json:"new_equity"`
	EquityGain    float64 `json:"equity_gain"`
}

type outsPayload struct {
	OutsCount      int             `json:"outs_count"`
	OutsCards      []string        `json:"outs_cards"`
	OutsDetails    []outDetailJSON `json:"outs_details"`
	CurrentEquity  float64         `json:"current_equity"`
	DeckRemaining  int             `json:"deck_remaining"`
	OutsPercentage float64         `json:"outs_percentage"`
}

type outsResponse struct {
	Success bool        `json:"success"`
	Outs    outsPayload `json:"outs"`
}

func (s *Server) handleCalculateOuts(w http.ResponseWriter, r *http.Request) {
	var req outsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if len(req.PlayerHand) != 4 {
		s.writeError(w, http.StatusBadRequest, errors.New("player_hand must be 4 characters (e.g. AsKs)"))
		return
	}
	if len(req.Board) != 8 {
		s.writeError(w, http.StatusBadRequest, errors.New("the turn requires 4 board cards (8 characters)"))
		return
	}

	player, err := deck.ParseCards(req.PlayerHand)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("player_hand: %w", err))
		return
	}
	board, err := deck.ParseCards(req.Board)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("board: %w", err))
		return
	}
	var opponents []equity.Hand
	for i, h := range req.OpponentHands {
		if h == "" {
			continue
		}
		cards, err := deck.ParseCards(h)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("opponent_hands[%d]: %w", i, err))
			return
		}
		opponents = append(opponents, equity.Hand(cards))
	}

	cfg := s.simulationConfig(req.Simulations, req.Seed)

	ctx, stop := s.simulationContext(r.Context())
	defer stop()

	report, err := equity.AnalyzeOuts(ctx, equity.Hand(player), board, opponents, cfg)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	payload := outsPayload{
		OutsCount:      report.OutsCount(),
		OutsCards:      report.OutsCards(),
		OutsDetails:    make([]outDetailJSON, 0, len(report.Outs)),
		CurrentEquity:  round2(report.BaselineEquity),
		DeckRemaining:  report.DeckRemaining,
		OutsPercentage: round2(report.OutsPercentage),
	}
	for _, out := range report.Outs {
		payload.OutsDetails = append(payload.OutsDetails, outDetailJSON{
			Card:          out.Card.Code(),
			CurrentEquity: round2(out.CurrentEquity),
			NewEquity:     round2(out.NewEquity),
			EquityGain:    round2(out.EquityGain),
		})
	}
	s.writeJSON(w, http.StatusOK, outsResponse{Success: true, Outs: payload})
}

func (s *Server) handleRandomHand(w http.ResponseWriter, r *http.Request) {
	rng := randutil.New(s.clock.Now().UnixNano())
	cards, err := deck.New().SampleN(2, rng)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"hand": cards[0].Code() + cards[1].Code(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// liveFrame is one websocket progress update. Result carries the odds
// accumulated over all batches completed so far.
type liveFrame struct {
	Completed int                   `json:"completed"`
	Total     int                   `json:"total"`
	Done      bool                  `json:"done"`
	Result    map[string]playerOdds `json:"result"`
}

const liveBatches = 10

// handleLive upgrades to a websocket, reads one calculate request, and
// streams cumulative results as trial batches finish so interactive
// callers can render progress instead of waiting for the full run.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var req calculateRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.writeLiveError(conn, fmt.Errorf("invalid request: %w", err))
		return
	}
	hands, board, err := s.parseCalculateRequest(&req)
	if err != nil {
		s.writeLiveError(conn, err)
		return
	}
	cfg := s.simulationConfig(req.Simulations, req.Seed)

	ctx, stop := s.simulationContext(r.Context())
	defer stop()

	batchTrials := cfg.Trials / liveBatches
	if batchTrials < 1 {
		batchTrials = 1
	}
	seeds := randutil.Seeds(cfg.Seed, liveBatches)

	// Weighted running mean over equal-seed-independent batches.
	wins := make([]float64, len(hands))
	ties := make([]float64, len(hands))
	completed := 0

	for b := 0; b < liveBatches && completed < cfg.Trials; b++ {
		trials := batchTrials
		if remaining := cfg.Trials - completed; trials > remaining {
			trials = remaining
		}
		results, err := equity.Simulate(ctx, hands, board, equity.Config{
			Trials: trials,
			Seed:   seeds[b],
		})
		if err != nil {
			s.writeLiveError(conn, err)
			return
		}
		for i, res := range results {
			wins[i] += res.Win * float64(trials)
			ties[i] += res.Tie * float64(trials)
		}
		completed += trials

		frame := liveFrame{
			Completed: completed,
			Total:     cfg.Trials,
			Done:      b == liveBatches-1 || completed >= cfg.Trials,
			Result:    make(map[string]playerOdds, len(hands)),
		}
		for i := range hands {
			win := wins[i] / float64(completed)
			tie := ties[i] / float64(completed)
			frame.Result[fmt.Sprintf("player%d", i+1)] = playerOdds{
				Win:    round2(win),
				Tie:    round2(tie),
				Equity: round2(win + tie),
			}
		}
		if err := conn.WriteJSON(frame); err != nil {
			s.logger.Debug("live client went away", "error", err)
			return
		}
	}
}

func (s *Server) writeLiveError(conn *websocket.Conn, err error) {
	_ = conn.WriteJSON(map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Debug("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps engine errors to HTTP statuses: bad inputs are the
// caller's fault, cancellation means the deadline fired.
func statusFor(err error) int {
	switch {
	case errors.Is(err, equity.ErrValidation),
		errors.Is(err, deck.ErrInvalidCardCode),
		errors.Is(err, deck.ErrDuplicateCard),
		errors.Is(err, deck.ErrInsufficientCards):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
