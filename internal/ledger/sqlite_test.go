package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func newTestService(t *testing.T) *SQLiteService {
	t.Helper()
	svc, err := NewSQLiteService(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestSQLiteService_RecordAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res := Result{
		GameID:          "game-1",
		Name:            "friday night",
		Topic:           "scary animals",
		Outcome:         OutcomeCleared,
		LivesRemaining:  2,
		RoundsCompleted: 3,
		Players: []PlayerResult{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob"},
		},
		EndedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := svc.RecordResult(ctx, res); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}

	items, err := svc.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 result, got %d", len(items))
	}
	got := items[0]
	if got.GameID != res.GameID || got.Outcome != res.Outcome {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got.LivesRemaining != 2 || got.RoundsCompleted != 3 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if len(got.Players) != 2 || got.Players[0].Name != "Alice" {
		t.Fatalf("players did not round-trip: %+v", got.Players)
	}
	if !got.EndedAt.Equal(res.EndedAt) {
		t.Fatalf("ended_at mismatch: %v vs %v", got.EndedAt, res.EndedAt)
	}
}

func TestSQLiteService_RecordIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res := Result{
		GameID:  "game-dup",
		Outcome: OutcomeFailed,
		EndedAt: time.Now().UTC(),
	}
	if err := svc.RecordResult(ctx, res); err != nil {
		t.Fatalf("first RecordResult: %v", err)
	}
	res.Outcome = OutcomeCleared
	if err := svc.RecordResult(ctx, res); err != nil {
		t.Fatalf("second RecordResult: %v", err)
	}

	items, err := svc.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 result after duplicate record, got %d", len(items))
	}
	if items[0].Outcome != OutcomeFailed {
		t.Fatalf("duplicate record overwrote original: %+v", items[0])
	}
}

func TestSQLiteService_TrimsBeyondRecentLimit(t *testing.T) {
	svc := newTestService(t)
	svc.recentLimit = 3
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		res := Result{
			GameID:  fmt.Sprintf("game-%d", i),
			Outcome: OutcomeCleared,
			EndedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := svc.RecordResult(ctx, res); err != nil {
			t.Fatalf("RecordResult %d: %v", i, err)
		}
	}

	items, err := svc.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 retained results, got %d", len(items))
	}
	if items[0].GameID != "game-4" {
		t.Fatalf("expected newest first, got %s", items[0].GameID)
	}
	for _, item := range items {
		if item.GameID == "game-0" || item.GameID == "game-1" {
			t.Fatalf("old result %s survived trim", item.GameID)
		}
	}
}

func TestLedgerModeFromEnv(t *testing.T) {
	cases := map[string]string{
		"":           LedgerModeMemory,
		"memory":     LedgerModeMemory,
		"noop":       LedgerModeMemory,
		"sqlite":     LedgerModeSQLite,
		"local":      LedgerModeSQLite,
		"Postgres":   LedgerModePostgres,
		"postgresql": LedgerModePostgres,
		"db":         LedgerModePostgres,
		"bogus":      "bogus",
	}
	for raw, want := range cases {
		t.Setenv("LEDGER_MODE", raw)
		if got := ledgerModeFromEnv(); got != want {
			t.Fatalf("LEDGER_MODE=%q: got %q, want %q", raw, got, want)
		}
	}
}
