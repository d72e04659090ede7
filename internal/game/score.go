package game

import (
	"fmt"

	"github.com/blackhole-game/blackhole/internal/board"
	"github.com/blackhole-game/blackhole/internal/domain"
)

// Results are the scores around the black hole.
type Results struct {
	BlackHole int
	Adjacent  []int
	Score1    int
	Score2    int
	Outcome   domain.Outcome
}

// resolve marks the black hole and scores its neighbors. It runs once,
// when the game enters Over.
func (s *State) resolve() (Results, error) {
	hole := -1
	empty := 0
	for id := range s.cells {
		if s.cells[id].Empty() {
			empty++
			hole = id
		}
	}
	if empty != 1 {
		return Results{}, fmt.Errorf("%w: %d empty cells at game end, want 1", ErrInvariantViolation, empty)
	}
	s.cells[hole].IsBlackHole = true

	r := Results{BlackHole: hole, Adjacent: append([]int(nil), board.Neighbors(hole)...)}
	for _, n := range r.Adjacent {
		c := s.cells[n]
		if c.Value == 0 {
			continue
		}
		switch c.Player {
		case domain.Player1:
			r.Score1 += c.Value
		case domain.Player2:
			r.Score2 += c.Value
		}
	}
	r.Outcome = Decide(r.Score1, r.Score2)
	return r, nil
}

// Decide picks the outcome; the lower score wins.
func Decide(score1, score2 int) domain.Outcome {
	switch {
	case score1 < score2:
		return domain.Player1Wins
	case score2 < score1:
		return domain.Player2Wins
	}
	return domain.Draw
}
