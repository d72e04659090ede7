// Package game implements the turn engine and end-of-game scoring.
package game

import (
	"errors"
	"fmt"

	"github.com/blackhole-game/blackhole/internal/board"
	"github.com/blackhole-game/blackhole/internal/domain"
)

// Errors returned by Apply. All of them match ErrIllegalMove via errors.Is.
var (
	ErrIllegalMove    = errors.New("illegal move")
	ErrGameOver       = fmt.Errorf("%w: game over", ErrIllegalMove)
	ErrCellOccupied   = fmt.Errorf("%w: cell occupied", ErrIllegalMove)
	ErrCellOutOfRange = fmt.Errorf("%w: cell out of range", ErrIllegalMove)
	ErrOutOfTurn      = fmt.Errorf("%w: not your turn", ErrIllegalMove)
)

// ErrInvariantViolation signals an internal inconsistency in the state.
var ErrInvariantViolation = errors.New("invariant violation")

// filledAtEnd is the number of occupied cells that ends the game.
const filledAtEnd = board.Total - 1

// State is the mutable game state. The zero value is not usable; call New.
type State struct {
	cells   [board.Total]domain.Cell
	current domain.Player
	next    [2]int
	filled  int
	over    bool
	results *Results
}

// New returns a fresh game with player 1 to move.
func New() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset restores every field to its creation-time value.
func (s *State) Reset() {
	for id := range s.cells {
		s.cells[id] = domain.Cell{ID: id, Row: board.Row(id)}
	}
	s.current = domain.Player1
	s.next = [2]int{1, 1}
	s.filled = 0
	s.over = false
	s.results = nil
}

func (s *State) Current() domain.Player { return s.current }

func (s *State) Filled() int { return s.filled }

func (s *State) Over() bool { return s.over }

// NextNumber returns the number p places on its next move.
func (s *State) NextNumber(p domain.Player) int {
	return s.next[seat(p)]
}

// Cell returns a copy of cell id.
func (s *State) Cell(id int) domain.Cell { return s.cells[id] }

// Results returns the final results once the game is over.
func (s *State) Results() (Results, bool) {
	if s.results == nil {
		return Results{}, false
	}
	return *s.results, true
}

// Snapshot returns a deep copy suitable for rendering and policies.
func (s *State) Snapshot() domain.Snapshot {
	cells := make([]domain.Cell, board.Total)
	copy(cells, s.cells[:])
	phase := domain.InProgress
	if s.over {
		phase = domain.Over
	}
	return domain.Snapshot{
		Cells:         cells,
		CurrentPlayer: s.current,
		NextNumber:    s.next,
		Filled:        s.filled,
		Phase:         phase,
	}
}

// Apply places the current player's next number on cell id.
// Rejected moves leave the state untouched and return an error matching
// ErrIllegalMove. When the move fills the 20th cell the game ends and the
// resolver runs; its error, if any, matches ErrInvariantViolation.
func (s *State) Apply(id int) (domain.Cell, error) {
	if s.over {
		return domain.Cell{}, ErrGameOver
	}
	if !board.Valid(id) {
		return domain.Cell{}, fmt.Errorf("%w: %d", ErrCellOutOfRange, id)
	}
	if !s.cells[id].Empty() {
		return domain.Cell{}, fmt.Errorf("%w: %d", ErrCellOccupied, id)
	}

	p := s.current
	c := &s.cells[id]
	c.Player = p
	c.Value = s.next[seat(p)]
	s.filled++
	if s.next[seat(p)] < board.MaxNumber {
		s.next[seat(p)]++
	}
	placed := *c

	if s.filled >= filledAtEnd {
		s.over = true
		r, err := s.resolve()
		if err != nil {
			return placed, err
		}
		s.results = &r
		return placed, nil
	}
	s.current = p.Other()
	return placed, nil
}

// ApplyAs is Apply with a check that p is the player on turn.
func (s *State) ApplyAs(p domain.Player, id int) (domain.Cell, error) {
	if !s.over && p != s.current {
		return domain.Cell{}, ErrOutOfTurn
	}
	return s.Apply(id)
}

func seat(p domain.Player) int {
	if p == domain.Player2 {
		return 1
	}
	return 0
}
