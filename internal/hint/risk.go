package hint

import (
	"context"

	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/policy"
)

// Risk implements a Hinter that points at the cells least exposed to
// the eventual black hole.
type Risk struct{}

func NewRisk() *Risk { return &Risk{} }

// Hint returns the low-risk pool for the number p is about to place,
// with the risk of every empty cell. It finds nothing once the game is over.
func (h *Risk) Hint(ctx context.Context, s domain.Snapshot, p domain.Player) (domain.Hint, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Hint{}, false, err
	}
	if s.Phase == domain.Over {
		return domain.Hint{}, false, nil
	}
	ranked := policy.Rank(s)
	if len(ranked) == 0 {
		return domain.Hint{}, false, nil
	}
	number := s.NextFor(p)
	risk := make(map[int]int, len(ranked))
	for _, r := range ranked {
		risk[r.ID] = r.Risk
	}
	pool := ranked[:policy.PoolSize(len(ranked), number)]
	cells := make([]int, len(pool))
	for i, r := range pool {
		cells[i] = r.ID
	}
	return domain.Hint{Number: number, Cells: cells, Risk: risk}, true, nil
}
