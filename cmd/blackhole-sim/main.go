package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/sim"
)

func main() {
	_ = godotenv.Load()
	games := flag.Int("games", 1000, "number of matches")
	p1 := flag.String("p1", "easy", "player 1 policy: easy|medium")
	p2 := flag.String("p2", "medium", "player 2 policy: easy|medium")
	seed := flag.Int64("seed", 0, "base seed (0 = time based)")
	workers := flag.Int("workers", 0, "parallel workers (0 = NumCPU)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	d1, err := domain.ParseDifficulty(*p1)
	if err != nil {
		logger.Error("bad -p1", "err", err)
		os.Exit(2)
	}
	d2, err := domain.ParseDifficulty(*p2)
	if err != nil {
		logger.Error("bad -p2", "err", err)
		os.Exit(2)
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	rep, err := sim.Run(ctx, sim.Config{Games: *games, Player1: d1, Player2: d2, Seed: *seed, Workers: *workers})
	if err != nil {
		logger.Error("simulation stopped", "err", err, "played", rep.Games)
	}
	fmt.Printf("%d games (%s vs %s, seed %d) in %v\n", rep.Games, d1, d2, *seed, time.Since(start).Round(time.Millisecond))
	fmt.Printf("player 1 wins: %d\nplayer 2 wins: %d\ndraws:         %d\n", rep.Player1Wins, rep.Player2Wins, rep.Draws)
	fmt.Printf("avg score:     %.2f / %.2f\n", rep.AvgScore1(), rep.AvgScore2())
	if err != nil {
		os.Exit(1)
	}
}
