package ports

import (
	"context"
	"time"

	"github.com/blackhole-game/blackhole/internal/domain"
)

// Random is the injectable source of randomness for policies.
// *math/rand.Rand satisfies it.
type Random interface {
	Intn(n int) int
}

// Policy picks an empty cell for the computer player p.
type Policy interface {
	Choose(ctx context.Context, s domain.Snapshot, p domain.Player) (int, error)
}

// Task is a handle to a scheduled callback.
type Task interface {
	// Stop cancels the callback. It reports false if it already ran.
	Stop() bool
}

// Scheduler defers callbacks, such as the computer's move.
type Scheduler interface {
	After(d time.Duration, f func()) Task
}

// Renderer receives every state change for display.
type Renderer interface {
	Render(u domain.Update)
}

// Validator checks the internal consistency of a game snapshot.
type Validator interface {
	Validate(ctx context.Context, s domain.Snapshot) (ok bool, violations []string, err error)
}

// Hinter suggests low-risk cells for the player p.
type Hinter interface {
	Hint(ctx context.Context, s domain.Snapshot, p domain.Player) (domain.Hint, bool, error)
}
