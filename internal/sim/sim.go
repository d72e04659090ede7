// Package sim plays computer-vs-computer matches without a UI.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/game"
	"github.com/blackhole-game/blackhole/internal/policy"
	"github.com/blackhole-game/blackhole/internal/ports"
)

type Config struct {
	Games   int
	Player1 domain.Difficulty
	Player2 domain.Difficulty
	Seed    int64
	Workers int
}

// Report tallies the outcomes of a run.
type Report struct {
	Games       int
	Player1Wins int
	Player2Wins int
	Draws       int
	Score1      int
	Score2      int
}

func (r Report) AvgScore1() float64 { return avg(r.Score1, r.Games) }
func (r Report) AvgScore2() float64 { return avg(r.Score2, r.Games) }

func avg(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func (r *Report) add(res game.Results) {
	r.Games++
	r.Score1 += res.Score1
	r.Score2 += res.Score2
	switch res.Outcome {
	case domain.Player1Wins:
		r.Player1Wins++
	case domain.Player2Wins:
		r.Player2Wins++
	default:
		r.Draws++
	}
}

// Play runs one match to the end.
func Play(ctx context.Context, p1, p2 ports.Policy) (game.Results, error) {
	s := game.New()
	for !s.Over() {
		snap := s.Snapshot()
		pol := p1
		if snap.CurrentPlayer == domain.Player2 {
			pol = p2
		}
		id, err := pol.Choose(ctx, snap, snap.CurrentPlayer)
		if err != nil {
			return game.Results{}, err
		}
		if _, err := s.Apply(id); err != nil {
			return game.Results{}, fmt.Errorf("cell %d: %w", id, err)
		}
	}
	r, _ := s.Results()
	return r, nil
}

// Run plays cfg.Games matches on a pool of workers. Game i is seeded with
// Seed+i, so totals do not depend on the worker count.
func Run(ctx context.Context, cfg Config) (Report, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	tasks := make(chan int)
	results := make(chan game.Results)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
				res, err := Play(ctx,
					policy.ForDifficulty(cfg.Player1, rng),
					policy.ForDifficulty(cfg.Player2, rng))
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					continue
				}
				results <- res
			}
		}()
	}

	go func() {
		defer close(tasks)
		for i := 0; i < cfg.Games; i++ {
			select {
			case tasks <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var rep Report
	for res := range results {
		rep.add(res)
	}
	select {
	case err := <-errs:
		return rep, err
	default:
	}
	return rep, ctx.Err()
}
