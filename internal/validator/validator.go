package validator

import (
	"context"
	"fmt"

	"github.com/blackhole-game/blackhole/internal/board"
	"github.com/blackhole-game/blackhole/internal/domain"
)

type StateValidator struct{}

func New() *StateValidator { return &StateValidator{} }

// Validate re-derives the counters from the cells and reports every mismatch.
func (v *StateValidator) Validate(ctx context.Context, s domain.Snapshot) (bool, []string, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}
	conf := make([]string, 0, 4)
	if len(s.Cells) != board.Total {
		conf = append(conf, fmt.Sprintf("board has %d cells, want %d", len(s.Cells), board.Total))
		return false, conf, nil
	}

	var moves [3]int
	holes := 0
	for i, c := range s.Cells {
		if c.ID != i || c.Row != board.Row(i) {
			conf = append(conf, fmt.Sprintf("cell %d: id/row = %d/%d", i, c.ID, c.Row))
		}
		switch c.Player {
		case domain.NoPlayer:
			if c.Value != 0 {
				conf = append(conf, fmt.Sprintf("cell %d: empty with value %d", i, c.Value))
			}
		case domain.Player1, domain.Player2:
			if c.Value < 1 || c.Value > board.MaxNumber {
				conf = append(conf, fmt.Sprintf("cell %d: value %d out of range", i, c.Value))
			}
		default:
			conf = append(conf, fmt.Sprintf("cell %d: unknown player %d", i, c.Player))
			continue
		}
		moves[c.Player]++
		if c.IsBlackHole {
			holes++
			if !c.Empty() {
				conf = append(conf, fmt.Sprintf("cell %d: occupied black hole", i))
			}
		}
	}

	filled := moves[domain.Player1] + moves[domain.Player2]
	if filled != s.Filled {
		conf = append(conf, fmt.Sprintf("filled = %d, cells say %d", s.Filled, filled))
	}
	if filled > board.Total-1 {
		conf = append(conf, fmt.Sprintf("%d cells filled, at most %d allowed", filled, board.Total-1))
	}
	over := s.Phase == domain.Over
	if over != (filled == board.Total-1) {
		conf = append(conf, fmt.Sprintf("phase %v with %d cells filled", s.Phase, filled))
	}
	if holes > 1 || (holes == 1 && !over) {
		conf = append(conf, fmt.Sprintf("%d black holes in phase %v", holes, s.Phase))
	}

	for _, p := range []domain.Player{domain.Player1, domain.Player2} {
		want := moves[p] + 1
		if want > board.MaxNumber {
			want = board.MaxNumber
		}
		if got := s.NextFor(p); got != want {
			conf = append(conf, fmt.Sprintf("player %d next number = %d, want %d", p, got, want))
		}
	}
	// Turns alternate strictly, so player 1 has made the same number of
	// moves as player 2 or one more.
	if d := moves[domain.Player1] - moves[domain.Player2]; d != 0 && d != 1 {
		conf = append(conf, fmt.Sprintf("move counts %d/%d do not alternate", moves[domain.Player1], moves[domain.Player2]))
	}
	if !over {
		want := domain.Player1
		if filled%2 == 1 {
			want = domain.Player2
		}
		if s.CurrentPlayer != want {
			conf = append(conf, fmt.Sprintf("current player %d, want %d", s.CurrentPlayer, want))
		}
	}
	return len(conf) == 0, conf, nil
}
