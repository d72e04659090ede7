// Package policy implements the computer opponent's move selection.
package policy

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/blackhole-game/blackhole/internal/board"
	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/ports"
)

// ErrNoEmptyCell is returned when a policy is asked to move on a full board.
var ErrNoEmptyCell = errors.New("no empty cell")

// Ranked is an empty cell with its risk.
type Ranked struct {
	ID   int
	Risk int
}

// Rank scores each empty cell by how many of its neighbors are empty
// and sorts ascending by risk. Ties keep id order.
func Rank(s domain.Snapshot) []Ranked {
	out := make([]Ranked, 0, board.Total)
	for _, c := range s.Cells {
		if !c.Empty() {
			continue
		}
		risk := 0
		for _, n := range board.Neighbors(c.ID) {
			if s.Cells[n].Empty() {
				risk++
			}
		}
		out = append(out, Ranked{ID: c.ID, Risk: risk})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Risk < out[j].Risk })
	return out
}

// TopFraction is the share of the ranking kept for a given number.
// Higher numbers narrow the pool to the safest cells.
func TopFraction(number int) float64 {
	switch {
	case number >= 7:
		return 0.20
	case number >= 5:
		return 0.35
	}
	return 0.55
}

// PoolSize is max(1, ceil(empty*TopFraction(number))).
func PoolSize(empty, number int) int {
	n := int(math.Ceil(float64(empty) * TopFraction(number)))
	if n < 1 {
		n = 1
	}
	if n > empty {
		n = empty
	}
	return n
}

// Pool returns the candidate cells Medium samples from.
func Pool(s domain.Snapshot, number int) []Ranked {
	r := Rank(s)
	return r[:PoolSize(len(r), number)]
}

// Easy picks uniformly among empty cells.
type Easy struct {
	Rand ports.Random
}

func NewEasy(r ports.Random) *Easy { return &Easy{Rand: r} }

func (e *Easy) Choose(ctx context.Context, s domain.Snapshot, _ domain.Player) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	empty := s.EmptyCells()
	if len(empty) == 0 {
		return 0, ErrNoEmptyCell
	}
	return empty[e.Rand.Intn(len(empty))], nil
}

// Medium picks uniformly among the lowest-risk cells, sized by the number
// the player is about to place.
type Medium struct {
	Rand ports.Random
}

func NewMedium(r ports.Random) *Medium { return &Medium{Rand: r} }

func (m *Medium) Choose(ctx context.Context, s domain.Snapshot, p domain.Player) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	pool := Pool(s, s.NextFor(p))
	if len(pool) == 0 {
		return 0, ErrNoEmptyCell
	}
	return pool[m.Rand.Intn(len(pool))].ID, nil
}

// ForDifficulty returns the policy for d.
func ForDifficulty(d domain.Difficulty, r ports.Random) ports.Policy {
	if d == domain.Medium {
		return NewMedium(r)
	}
	return NewEasy(r)
}
