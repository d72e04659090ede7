package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/blackhole-game/blackhole/internal/board"
	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/game"
	"github.com/blackhole-game/blackhole/internal/policy"
	"github.com/blackhole-game/blackhole/internal/ports"
)

// DefaultDelay is how long the computer "thinks" before moving.
const DefaultDelay = 500 * time.Millisecond

// Service is the single controller that owns one game. Human moves run
// synchronously in the caller; the computer's move runs from the scheduler
// after Delay. The Renderer is called with the controller lock held and must
// not call back into the Service.
type Service struct {
	Scheduler ports.Scheduler
	Validator ports.Validator
	Hinter    ports.Hinter
	Renderer  ports.Renderer
	Rand      ports.Random
	Logger    *slog.Logger
	Delay     time.Duration
	Clock     func() time.Time
	// NewPolicy builds the opponent for a difficulty; policy.ForDifficulty by default.
	NewPolicy func(domain.Difficulty, ports.Random) ports.Policy

	mu         sync.Mutex
	state      *game.State
	cfg        domain.MatchConfig
	policy     ports.Policy
	pending    ports.Task
	thinking   bool
	gen        uint64
	lastActive time.Time
}

func NewService(sch ports.Scheduler, v ports.Validator, h ports.Hinter, rnd ports.Random, r ports.Renderer) *Service {
	return &Service{
		Scheduler: sch,
		Validator: v,
		Hinter:    h,
		Renderer:  r,
		Rand:      rnd,
		Delay:     DefaultDelay,
		Clock:     time.Now,
		NewPolicy: policy.ForDifficulty,
		state:     game.New(),
	}
}

var errNotConfigured = errors.New("usecase dependency not configured")

func (u *Service) log() *slog.Logger {
	if u.Logger == nil {
		return slog.Default()
	}
	return u.Logger
}

func (u *Service) touch() {
	if u.Clock != nil {
		u.lastActive = u.Clock()
	}
}

// InitGame cancels any pending computer move and starts a fresh game.
func (u *Service) InitGame(ctx context.Context, cfg domain.MatchConfig) domain.Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.initLocked(cfg)
	return u.state.Snapshot()
}

func (u *Service) initLocked(cfg domain.MatchConfig) {
	if u.pending != nil {
		u.pending.Stop()
		u.pending = nil
	}
	u.gen++
	u.thinking = false
	u.cfg = cfg
	u.state.Reset()
	u.policy = nil
	if cfg.Mode == domain.HumanVsComputer && u.NewPolicy != nil && u.Rand != nil {
		u.policy = u.NewPolicy(cfg.Difficulty, u.Rand)
	}
	u.touch()
	u.log().Info("game started", "mode", cfg.Mode, "difficulty", cfg.Difficulty)
	u.render(domain.UpdateInit, nil)
}

// Reset restarts with the last selected mode and difficulty.
func (u *Service) Reset(ctx context.Context) domain.Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.initLocked(u.cfg)
	return u.state.Snapshot()
}

// SetMode switches the mode and restarts.
func (u *Service) SetMode(ctx context.Context, m domain.Mode) domain.Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	cfg := u.cfg
	cfg.Mode = m
	u.initLocked(cfg)
	return u.state.Snapshot()
}

// SetDifficulty switches the difficulty and restarts.
func (u *Service) SetDifficulty(ctx context.Context, d domain.Difficulty) domain.Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	cfg := u.cfg
	cfg.Difficulty = d
	u.initLocked(cfg)
	return u.state.Snapshot()
}

// Config returns the current match configuration.
func (u *Service) Config() domain.MatchConfig {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cfg
}

// AttemptMove applies a human move at cell id. Illegal moves (occupied
// cell, game over, computer's turn or thinking, unknown id) are silent
// no-ops reported through MoveResult.Applied. The returned error is only
// set for invariant violations.
func (u *Service) AttemptMove(ctx context.Context, id int) (domain.MoveResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.touch()
	if u.thinking || u.cfg.ComputerControls(u.state.Current()) || !board.Valid(id) {
		return u.resultLocked(nil), nil
	}
	return u.applyLocked(ctx, id)
}

func (u *Service) applyLocked(ctx context.Context, id int) (domain.MoveResult, error) {
	p := u.state.Current()
	cell, err := u.state.Apply(id)
	if errors.Is(err, game.ErrIllegalMove) {
		u.log().Debug("move ignored", "cell", id, "player", p, "reason", err)
		return u.resultLocked(nil), nil
	}
	if err != nil {
		return u.failLocked(&cell, err)
	}
	u.log().Debug("move", "cell", id, "player", p, "value", cell.Value)

	if u.Validator != nil {
		ok, violations, verr := u.Validator.Validate(ctx, u.state.Snapshot())
		if verr != nil {
			return u.resultLocked(&cell), verr
		}
		if !ok {
			return u.failLocked(&cell, fmt.Errorf("%w: %s", game.ErrInvariantViolation, strings.Join(violations, "; ")))
		}
	}

	if u.state.Over() {
		res := u.resultLocked(&cell)
		u.log().Info("game over", "black_hole", res.Results.BlackHole,
			"score1", res.Results.Score1, "score2", res.Results.Score2, "outcome", res.Results.Outcome)
		u.render(domain.UpdateOver, &cell)
		return res, nil
	}
	u.render(domain.UpdateMove, &cell)
	if u.cfg.ComputerControls(u.state.Current()) {
		if err := u.scheduleLocked(); err != nil {
			return u.resultLocked(&cell), err
		}
	}
	return u.resultLocked(&cell), nil
}

// failLocked reports an invariant violation. There is no recovery; the
// game stays where it is until the next InitGame.
func (u *Service) failLocked(cell *domain.Cell, err error) (domain.MoveResult, error) {
	u.log().Error("invariant violation", "err", err)
	return u.resultLocked(cell), err
}

func (u *Service) scheduleLocked() error {
	if u.Scheduler == nil || u.policy == nil {
		return errNotConfigured
	}
	u.thinking = true
	gen := u.gen
	u.pending = u.Scheduler.After(u.Delay, func() { u.computerMove(gen) })
	u.render(domain.UpdateThinking, nil)
	return nil
}

// computerMove runs from the scheduler. A stale generation means the game
// was re-initialized after scheduling and the move is dropped.
func (u *Service) computerMove(gen uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if gen != u.gen || !u.thinking {
		return
	}
	u.thinking = false
	u.pending = nil
	ctx := context.Background()
	snap := u.state.Snapshot()
	id, err := u.policy.Choose(ctx, snap, snap.CurrentPlayer)
	if err != nil {
		u.log().Error("computer move failed", "err", err)
		return
	}
	if _, err := u.applyLocked(ctx, id); err != nil {
		u.log().Error("computer move rejected", "cell", id, "err", err)
	}
}

// DisplayState returns what the status bar shows.
func (u *Service) DisplayState() domain.DisplayState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.displayLocked()
}

func (u *Service) displayLocked() domain.DisplayState {
	p := u.state.Current()
	d := domain.DisplayState{
		CurrentPlayer: p,
		NextNumber:    u.state.NextNumber(p),
		Thinking:      u.thinking,
		GameOver:      u.state.Over(),
	}
	switch {
	case d.GameOver:
		d.Label = "Game over"
	case u.cfg.ComputerControls(p):
		d.Label = "Computer (Blue)"
	case p == domain.Player1:
		d.Label = "Player 1 (Red)"
	default:
		d.Label = "Player 2 (Blue)"
	}
	return d
}

// FinalResults is available only after the game is over.
func (u *Service) FinalResults() (domain.FinalResults, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.finalLocked()
}

func (u *Service) finalLocked() (domain.FinalResults, bool) {
	r, ok := u.state.Results()
	if !ok {
		return domain.FinalResults{}, false
	}
	return buildResults(r, u.cfg.Mode), true
}

func buildResults(r game.Results, m domain.Mode) domain.FinalResults {
	pvc := m == domain.HumanVsComputer
	out := domain.FinalResults{
		BlackHole:      r.BlackHole,
		BlackHoleLabel: fmt.Sprintf("ID %d", r.BlackHole+1),
		Adjacent:       r.Adjacent,
		Score1:         r.Score1,
		Score2:         r.Score2,
		Outcome:        r.Outcome,
		Player2Label:   "Player 2",
	}
	if pvc {
		out.Player2Label = "Computer"
	}
	switch {
	case r.Outcome == domain.Draw:
		out.Message = "Draw!"
	case r.Outcome == domain.Player1Wins && pvc:
		out.Message = "You win!"
	case r.Outcome == domain.Player1Wins:
		out.Message = "Player 1 (Red) wins!"
	case pvc:
		out.Message = "Computer wins!"
	default:
		out.Message = "Player 2 (Blue) wins!"
	}
	return out
}

// Snapshot returns a copy of the whole board.
func (u *Service) Snapshot() domain.Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Snapshot()
}

// Hint suggests cells for the human on turn. Nothing is suggested while the
// computer is on turn.
func (u *Service) Hint(ctx context.Context) (domain.Hint, bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Hinter == nil {
		return domain.Hint{}, false, errNotConfigured
	}
	p := u.state.Current()
	if u.thinking || u.cfg.ComputerControls(p) {
		return domain.Hint{}, false, nil
	}
	return u.Hinter.Hint(ctx, u.state.Snapshot(), p)
}

// Close cancels any pending computer move.
func (u *Service) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.pending != nil {
		u.pending.Stop()
		u.pending = nil
	}
	u.gen++
	u.thinking = false
}

// LastActive is the time of the last init or move attempt.
func (u *Service) LastActive() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastActive
}

func (u *Service) resultLocked(cell *domain.Cell) domain.MoveResult {
	res := domain.MoveResult{Applied: cell != nil, Cell: cell, Display: u.displayLocked()}
	if fr, ok := u.finalLocked(); ok {
		res.Results = &fr
	}
	return res
}

func (u *Service) render(kind domain.UpdateKind, cell *domain.Cell) {
	if u.Renderer == nil {
		return
	}
	up := domain.Update{Kind: kind, Cell: cell, Display: u.displayLocked(), Snapshot: u.state.Snapshot()}
	if fr, ok := u.finalLocked(); ok {
		up.Results = &fr
	}
	u.Renderer.Render(up)
}
