package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "ito_local.db"

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	dbPath, err := ledgerLocalDatabasePathFromEnv()
	if err != nil {
		return nil, err
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteLedgerSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{
		db:          db,
		recentLimit: envIntOrDefault("LEDGER_RECENT_LIMIT", defaultRecentLimit),
	}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) RecordResult(ctx context.Context, res Result) error {
	if strings.TrimSpace(res.GameID) == "" {
		return fmt.Errorf("game id is required")
	}
	playersRaw, err := json.Marshal(res.Players)
	if err != nil {
		return err
	}
	if res.EndedAt.IsZero() {
		res.EndedAt = time.Now().UTC()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO game_results (
    game_id, name, topic, outcome, lives_remaining, rounds_completed, players_json, ended_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO NOTHING
`, res.GameID, res.Name, res.Topic, res.Outcome,
		res.LivesRemaining, res.RoundsCompleted, string(playersRaw),
		res.EndedAt.UTC().UnixMilli()); err != nil {
		return err
	}

	if s.recentLimit > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM game_results
WHERE id IN (
    SELECT id
    FROM game_results
    ORDER BY ended_at_ms DESC, id DESC
    LIMIT -1 OFFSET ?
)
`, s.recentLimit); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteService) ListRecent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT game_id, name, topic, outcome, lives_remaining, rounds_completed, players_json, ended_at_ms
FROM game_results
ORDER BY ended_at_ms DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Result, 0, limit)
	for rows.Next() {
		var item Result
		var playersRaw []byte
		var endedAtMs int64
		if err := rows.Scan(&item.GameID, &item.Name, &item.Topic, &item.Outcome,
			&item.LivesRemaining, &item.RoundsCompleted, &playersRaw, &endedAtMs); err != nil {
			return nil, err
		}
		item.EndedAt = time.UnixMilli(endedAtMs).UTC()
		if len(playersRaw) > 0 {
			if err := json.Unmarshal(playersRaw, &item.Players); err != nil {
				log.Printf("[Ledger] corrupt players_json for game %s: %v", item.GameID, err)
			}
		}
		if item.Players == nil {
			item.Players = []PlayerResult{}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func ensureSQLiteLedgerSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS game_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    game_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    topic TEXT NOT NULL DEFAULT '',
    outcome TEXT NOT NULL,
    lives_remaining INTEGER NOT NULL,
    rounds_completed INTEGER NOT NULL,
    players_json TEXT NOT NULL DEFAULT '[]',
    ended_at_ms INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_game_results_ended_at ON game_results(ended_at_ms DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func ledgerLocalDatabasePathFromEnv() (string, error) {
	if v := strings.TrimSpace(os.Getenv("LEDGER_LOCAL_DATABASE_PATH")); v != "" {
		return filepath.Clean(v), nil
	}

	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "ito-gameweb", defaultLocalDBName), nil
}
