package domain

import (
	"fmt"
	"strings"
)

// Player identifies a seat. NoPlayer marks an empty cell.
type Player int

const (
	NoPlayer Player = iota
	Player1
	Player2
)

// Other returns the opposing seat.
func (p Player) Other() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Mode selects who controls player 2.
type Mode int

const (
	HumanVsHuman Mode = iota
	HumanVsComputer
)

func (m Mode) String() string {
	if m == HumanVsComputer {
		return "pvc"
	}
	return "pvp"
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMode accepts "pvp" and "pvc" (and their long forms).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pvp", "human-vs-human":
		return HumanVsHuman, nil
	case "pvc", "human-vs-computer", "human-vs-opponent":
		return HumanVsComputer, nil
	}
	return HumanVsHuman, fmt.Errorf("unknown mode %q", s)
}

// Difficulty picks the computer opponent's policy.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
)

func (d Difficulty) String() string {
	if d == Medium {
		return "medium"
	}
	return "easy"
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	}
	return Easy, fmt.Errorf("unknown difficulty %q", s)
}

// Outcome of a finished game. Lower score wins.
type Outcome int

const (
	Undecided Outcome = iota
	Player1Wins
	Player2Wins
	Draw
)

func (o Outcome) String() string {
	switch o {
	case Player1Wins:
		return "player1"
	case Player2Wins:
		return "player2"
	case Draw:
		return "draw"
	}
	return "undecided"
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	for _, v := range []Outcome{Undecided, Player1Wins, Player2Wins, Draw} {
		if v.String() == string(b) {
			*o = v
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

// Phase is the state machine position.
type Phase int

const (
	InProgress Phase = iota
	Over
)

func (p Phase) String() string {
	if p == Over {
		return "over"
	}
	return "in_progress"
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "in_progress":
		*p = InProgress
	case "over":
		*p = Over
	default:
		return fmt.Errorf("unknown phase %q", b)
	}
	return nil
}
