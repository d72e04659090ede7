package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackhole-game/blackhole/internal/domain"
)

// Sessions keeps independent games in memory, keyed by a random id.
type Sessions struct {
	// New builds the controller for a fresh session id.
	New func(id string) *Service
	TTL time.Duration

	mu    sync.Mutex
	games map[string]*Service
}

func NewSessions(newService func(id string) *Service, ttl time.Duration) *Sessions {
	return &Sessions{New: newService, TTL: ttl, games: make(map[string]*Service)}
}

// Create starts a game with cfg and returns its id.
func (s *Sessions) Create(ctx context.Context, cfg domain.MatchConfig) (string, *Service, error) {
	if s.New == nil {
		return "", nil, errNotConfigured
	}
	id := uuid.NewString()
	svc := s.New(id)
	svc.InitGame(ctx, cfg)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.games == nil {
		s.games = make(map[string]*Service)
	}
	s.games[id] = svc
	return id, svc, nil
}

func (s *Sessions) Get(id string) (*Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.games[id]
	return svc, ok
}

// Delete drops a session and cancels its pending computer move.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	svc, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()
	if ok {
		svc.Close()
	}
	return ok
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// Sweep deletes sessions idle for longer than TTL and returns the ids removed.
func (s *Sessions) Sweep(now time.Time) []string {
	if s.TTL <= 0 {
		return nil
	}
	s.mu.Lock()
	var stale []string
	for id, svc := range s.games {
		if now.Sub(svc.LastActive()) > s.TTL {
			stale = append(stale, id)
		}
	}
	s.mu.Unlock()
	for _, id := range stale {
		s.Delete(id)
	}
	return stale
}

// Janitor sweeps every interval until ctx is done.
func (s *Sessions) Janitor(ctx context.Context, every time.Duration, onSweep func([]string)) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if gone := s.Sweep(now); len(gone) > 0 && onSweep != nil {
				onSweep(gone)
			}
		}
	}
}
