package main

import (
	"context"
	"flag"
	"html/template"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/blackhole-game/blackhole/internal/adapters/http"
	"github.com/blackhole-game/blackhole/internal/hint"
	"github.com/blackhole-game/blackhole/internal/scheduler"
	"github.com/blackhole-game/blackhole/internal/usecase"
	"github.com/blackhole-game/blackhole/internal/validator"
	"github.com/blackhole-game/blackhole/web"
)

// statusWriter captures HTTP status and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// requestLogger logs method, path, status, bytes, and duration in a human-readable format.
// Websocket upgrades bypass the wrapper since they need the Hijacker.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			logger.Info("ws", "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"dur", time.Since(start).Round(time.Millisecond),
		)
	})
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(logger *slog.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("ignoring invalid duration", "key", key, "value", v, "err", err)
		return def
	}
	return d
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()
	boot := slog.New(slog.NewTextHandler(os.Stderr, nil))

	addr := flag.String("addr", envOr("BLACKHOLE_ADDR", ":8080"), "listen address")
	levelStr := flag.String("log-level", envOr("BLACKHOLE_LOG_LEVEL", "info"), "debug|info|warn|error")
	delay := flag.Duration("ai-delay", envDuration(boot, "BLACKHOLE_AI_DELAY", usecase.DefaultDelay), "computer thinking delay")
	ttl := flag.Duration("session-ttl", envDuration(boot, "BLACKHOLE_SESSION_TTL", 30*time.Minute), "drop games idle for longer than this (0 = never)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*levelStr)}))

	// Wire providers → use cases → HTTP adapter
	hub := httpadapter.NewHub(logger)
	timer := scheduler.NewTimer()
	v := validator.New()
	hin := hint.NewRisk()
	sessions := usecase.NewSessions(func(id string) *usecase.Service {
		uc := usecase.NewService(timer, v, hin, rand.New(rand.NewSource(time.Now().UnixNano())), hub.Renderer(id))
		uc.Delay = *delay
		uc.Logger = logger.With("game", id)
		return uc
	}, *ttl)
	h := httpadapter.New(sessions, hub, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *ttl > 0 {
		go sessions.Janitor(ctx, max(*ttl/2, time.Second), func(gone []string) {
			for _, id := range gone {
				hub.Drop(id)
			}
			logger.Info("sessions expired", "count", len(gone))
		})
	}

	tmpl := web.Templates()

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(web.StaticFS())))
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.ExecuteTemplate(w, "index.tmpl", map[string]any{}); err != nil {
			http.Error(w, template.HTMLEscapeString(err.Error()), http.StatusInternalServerError)
		}
	})
	h.Register(mux)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           requestLogger(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("listening", "addr", *addr, "ai_delay", *delay, "session_ttl", *ttl)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
