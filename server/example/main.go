package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/server"
	"github.com/cyp0633/librecur/server/auth"
	authmemory "github.com/cyp0633/librecur/server/auth/memory"
	"github.com/cyp0633/librecur/server/storage"
	"github.com/cyp0633/librecur/server/storage/memory"
)

const apiPrefix = "/api/"

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	debug := flag.Bool("debug", false, "enable debug logging")
	preset := flag.String("engine", "default", "engine preset: default, high-performance, low-memory, no-cache, strict")
	editor := flag.String("editor", "", "require Basic auth; user:password allowed to change rules")
	viewer := flag.String("viewer", "", "user:password allowed to read rules (needs -editor)")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	config, ok := map[string]recurrence.EngineConfig{
		"default":          recurrence.DefaultEngineConfig,
		"high-performance": recurrence.HighPerformanceConfig,
		"low-memory":       recurrence.LowMemoryConfig,
		"no-cache":         recurrence.DisabledCacheConfig,
		"strict":           recurrence.StrictEngineConfig,
	}[*preset]
	if !ok {
		logger.Error("unknown engine preset", "preset", *preset)
		os.Exit(2)
	}

	engine := recurrence.NewEngineWithConfig(config, recurrence.WithLogger(logger))
	defer engine.Close()

	store := memory.New(memory.WithLogger(logger))
	seedRules(store, logger)

	opts := []server.Option{server.WithLogger(logger)}
	if *editor != "" {
		users := authmemory.New(authmemory.WithLogger(logger))
		if err := addUser(users, *editor, auth.RoleEditor); err != nil {
			logger.Error("invalid -editor", "error", err)
			os.Exit(2)
		}
		if *viewer != "" {
			if err := addUser(users, *viewer, auth.RoleViewer); err != nil {
				logger.Error("invalid -viewer", "error", err)
				os.Exit(2)
			}
		}
		opts = append(opts, server.WithAuthenticator(users, ""))
	}

	srv, err := server.New(engine, store, apiPrefix, opts...)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	http.Handle(apiPrefix, srv)

	logger.Info("starting recurrence preview server",
		"addr", *addr,
		"endpoint", "http://localhost"+*addr+apiPrefix)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// addUser registers a user:password pair
func addUser(users *authmemory.Store, pair string, role auth.Role) error {
	username, password, ok := strings.Cut(pair, ":")
	if !ok {
		return fmt.Errorf("expected user:password, got %q", pair)
	}
	return users.AddUser(username, password, role)
}

// seedRules stores a few sample rules starting today
func seedRules(store storage.Store, logger *slog.Logger) {
	today := time.Now()
	samples := []*storage.Record{
		{Summary: "Standup", Rule: recurrence.NewRule(today, recurrence.Weekly{
			Days: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		})},
		{Summary: "Rent", Rule: recurrence.NewRule(today, recurrence.MonthlyByDay{Day: 1})},
		{Summary: "Sprint review", Rule: recurrence.NewRule(today, recurrence.MonthlyByOrdinal{
			Ordinal: recurrence.Last, Weekday: time.Friday,
		})},
		{Summary: "Anniversary", Rule: recurrence.NewRule(today, recurrence.YearlyByDate{
			Month: today.Month(), Day: today.Day(),
		})},
	}

	for _, rec := range samples {
		if err := store.CreateRule(context.Background(), rec); err != nil {
			logger.Warn("failed to seed rule", "summary", rec.Summary, "error", err)
			continue
		}
		logger.Debug("seeded rule", "id", rec.ID, "description", recurrence.Describe(rec.Rule))
	}
}
