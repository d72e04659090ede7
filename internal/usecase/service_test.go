package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/game"
	"github.com/blackhole-game/blackhole/internal/hint"
	"github.com/blackhole-game/blackhole/internal/ports"
	"github.com/blackhole-game/blackhole/internal/scheduler"
	"github.com/blackhole-game/blackhole/internal/validator"
)

type recorder struct {
	mu      sync.Mutex
	updates []domain.Update
}

func (r *recorder) Render(u domain.Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *recorder) kinds() []domain.UpdateKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.UpdateKind, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.Kind
	}
	return out
}

func newTestService(seed int64) (*Service, *scheduler.Manual, *recorder) {
	m := scheduler.NewManual()
	rec := &recorder{}
	u := NewService(m, validator.New(), hint.NewRisk(), rand.New(rand.NewSource(seed)), rec)
	return u, m, rec
}

var pvc = domain.MatchConfig{Mode: domain.HumanVsComputer, Difficulty: domain.Medium}

func TestHumanVsHumanRowOrder(t *testing.T) {
	u, m, _ := newTestService(1)
	ctx := context.Background()
	u.InitGame(ctx, domain.MatchConfig{Mode: domain.HumanVsHuman})
	var last domain.MoveResult
	for id := 0; id < 20; id++ {
		res, err := u.AttemptMove(ctx, id)
		if err != nil || !res.Applied {
			t.Fatalf("AttemptMove(%d) = %+v, %v", id, res, err)
		}
		last = res
	}
	if m.Pending() != 0 {
		t.Fatal("no computer move should be scheduled in pvp")
	}
	if last.Results == nil {
		t.Fatal("final move should carry results")
	}
	r, ok := u.FinalResults()
	if !ok {
		t.Fatal("FinalResults not available")
	}
	if r.BlackHole != 20 || r.BlackHoleLabel != "ID 21" {
		t.Fatalf("black hole = %d (%s)", r.BlackHole, r.BlackHoleLabel)
	}
	if r.Score1 != 8 || r.Score2 != 10 || r.Outcome != domain.Player1Wins {
		t.Fatalf("results = %+v", r)
	}
	if r.Player2Label != "Player 2" || r.Message != "Player 1 (Red) wins!" {
		t.Fatalf("labels = %q / %q", r.Player2Label, r.Message)
	}
	d := u.DisplayState()
	if !d.GameOver || d.Label != "Game over" {
		t.Fatalf("display = %+v", d)
	}
}

func TestFinalResultsUnavailableDuringGame(t *testing.T) {
	u, _, _ := newTestService(1)
	u.InitGame(context.Background(), domain.MatchConfig{})
	if _, ok := u.FinalResults(); ok {
		t.Fatal("results available before game over")
	}
}

func TestIllegalMovesAreSilent(t *testing.T) {
	u, _, _ := newTestService(1)
	ctx := context.Background()
	u.InitGame(ctx, domain.MatchConfig{})
	if _, err := u.AttemptMove(ctx, 3); err != nil {
		t.Fatal(err)
	}
	before := u.Snapshot()
	for _, id := range []int{3, -1, 21, 99} {
		res, err := u.AttemptMove(ctx, id)
		if err != nil || res.Applied {
			t.Fatalf("AttemptMove(%d) = %+v, %v", id, res, err)
		}
	}
	after := u.Snapshot()
	if after.Filled != before.Filled || after.CurrentPlayer != before.CurrentPlayer {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}
}

func TestComputerMoveIsDeferred(t *testing.T) {
	u, m, rec := newTestService(4)
	ctx := context.Background()
	u.Delay = 750 * time.Millisecond
	u.InitGame(ctx, pvc)

	res, err := u.AttemptMove(ctx, 0)
	if err != nil || !res.Applied {
		t.Fatalf("AttemptMove = %+v, %v", res, err)
	}
	if !res.Display.Thinking || res.Display.Label != "Computer (Blue)" {
		t.Fatalf("display after human move = %+v", res.Display)
	}
	if m.Pending() != 1 || m.LastDelay() != 750*time.Millisecond {
		t.Fatalf("pending = %d delay = %v", m.Pending(), m.LastDelay())
	}
	// Human clicks during the thinking window are ignored.
	if res, _ := u.AttemptMove(ctx, 1); res.Applied {
		t.Fatal("move accepted while computer is thinking")
	}
	if _, ok, _ := u.Hint(ctx); ok {
		t.Fatal("hint offered on the computer's turn")
	}

	m.RunPending()
	s := u.Snapshot()
	if s.Filled != 2 || s.CurrentPlayer != domain.Player1 {
		t.Fatalf("after computer move: filled=%d current=%v", s.Filled, s.CurrentPlayer)
	}
	if d := u.DisplayState(); d.Thinking || d.Label != "Player 1 (Red)" || d.NextNumber != 2 {
		t.Fatalf("display = %+v", d)
	}
	kinds := rec.kinds()
	want := []domain.UpdateKind{domain.UpdateInit, domain.UpdateMove, domain.UpdateThinking, domain.UpdateMove}
	if len(kinds) != len(want) {
		t.Fatalf("updates = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("updates = %v, want %v", kinds, want)
		}
	}
}

func TestFullGameAgainstComputer(t *testing.T) {
	for _, d := range []domain.Difficulty{domain.Easy, domain.Medium} {
		t.Run(d.String(), func(t *testing.T) {
			u, m, rec := newTestService(8)
			ctx := context.Background()
			u.InitGame(ctx, domain.MatchConfig{Mode: domain.HumanVsComputer, Difficulty: d})
			for !u.DisplayState().GameOver {
				empty := u.Snapshot().EmptyCells()
				res, err := u.AttemptMove(ctx, empty[0])
				if err != nil || !res.Applied {
					t.Fatalf("AttemptMove = %+v, %v", res, err)
				}
				m.RunPending()
			}
			r, ok := u.FinalResults()
			if !ok {
				t.Fatal("no results")
			}
			if r.Player2Label != "Computer" {
				t.Fatalf("Player2Label = %q", r.Player2Label)
			}
			switch r.Outcome {
			case domain.Player1Wins:
				if r.Message != "You win!" {
					t.Fatalf("message = %q", r.Message)
				}
			case domain.Player2Wins:
				if r.Message != "Computer wins!" {
					t.Fatalf("message = %q", r.Message)
				}
			case domain.Draw:
				if r.Message != "Draw!" {
					t.Fatalf("message = %q", r.Message)
				}
			}
			kinds := rec.kinds()
			if kinds[len(kinds)-1] != domain.UpdateOver {
				t.Fatalf("last update = %v", kinds[len(kinds)-1])
			}
		})
	}
}

func TestReinitCancelsPendingComputerMove(t *testing.T) {
	u, m, _ := newTestService(2)
	ctx := context.Background()
	u.InitGame(ctx, pvc)
	if _, err := u.AttemptMove(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if m.Pending() != 1 {
		t.Fatal("computer move should be pending")
	}
	snap := u.Reset(ctx)
	if m.Pending() != 0 {
		t.Fatal("reset left the computer move pending")
	}
	m.RunPending()
	after := u.Snapshot()
	if after.Filled != 0 || snap.Filled != 0 || after.CurrentPlayer != domain.Player1 || after.NextNumber != [2]int{1, 1} {
		t.Fatalf("state after reset = %+v", after)
	}
	for _, c := range after.Cells {
		if !c.Empty() || c.Value != 0 || c.IsBlackHole {
			t.Fatalf("cell not reset: %+v", c)
		}
	}
	if u.DisplayState().Thinking {
		t.Fatal("still thinking after reset")
	}
}

func TestStaleCallbackIgnored(t *testing.T) {
	// A scheduler whose Stop never succeeds models a timer that already
	// fired and is waiting on the lock.
	u, _, _ := newTestService(2)
	stuck := &stubborn{}
	u.Scheduler = stuck
	ctx := context.Background()
	u.InitGame(ctx, pvc)
	if _, err := u.AttemptMove(ctx, 0); err != nil {
		t.Fatal(err)
	}
	u.SetDifficulty(ctx, domain.Easy)
	stuck.fire()
	if s := u.Snapshot(); s.Filled != 0 {
		t.Fatalf("stale computer move applied: filled=%d", s.Filled)
	}
	if u.Config().Difficulty != domain.Easy {
		t.Fatal("difficulty not switched")
	}
}

type stubborn struct{ fns []func() }

type noStop struct{}

func (noStop) Stop() bool { return false }

func (s *stubborn) After(d time.Duration, f func()) ports.Task {
	s.fns = append(s.fns, f)
	return noStop{}
}

func (s *stubborn) fire() {
	for _, f := range s.fns {
		f()
	}
}

func TestSetModeRestarts(t *testing.T) {
	u, _, _ := newTestService(3)
	ctx := context.Background()
	u.InitGame(ctx, domain.MatchConfig{})
	if _, err := u.AttemptMove(ctx, 5); err != nil {
		t.Fatal(err)
	}
	snap := u.SetMode(ctx, domain.HumanVsComputer)
	if snap.Filled != 0 || u.Config().Mode != domain.HumanVsComputer {
		t.Fatalf("SetMode did not restart: %+v", snap)
	}
}

func TestHintForHuman(t *testing.T) {
	u, _, _ := newTestService(3)
	ctx := context.Background()
	u.InitGame(ctx, domain.MatchConfig{})
	h, ok, err := u.Hint(ctx)
	if err != nil || !ok || len(h.Cells) == 0 {
		t.Fatalf("Hint = %+v, %v, %v", h, ok, err)
	}
	u.Hinter = nil
	if _, _, err := u.Hint(ctx); !errors.Is(err, errNotConfigured) {
		t.Fatalf("err = %v, want errNotConfigured", err)
	}
}

type brokenValidator struct{}

func (brokenValidator) Validate(ctx context.Context, s domain.Snapshot) (bool, []string, error) {
	return false, []string{"filled = 1, cells say 0"}, nil
}

func TestInvariantViolationSurfaced(t *testing.T) {
	u, _, _ := newTestService(3)
	u.Validator = brokenValidator{}
	ctx := context.Background()
	u.InitGame(ctx, domain.MatchConfig{})
	_, err := u.AttemptMove(ctx, 0)
	if !errors.Is(err, game.ErrInvariantViolation) {
		t.Fatalf("err = %v, want ErrInvariantViolation", err)
	}
}
