// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/chordquiz/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for game history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			_ = cerr
		}
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			key TEXT NOT NULL,
			chords INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			score INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS game_attempts (
			game_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			expected TEXT NOT NULL,
			expected_type TEXT NOT NULL,
			played TEXT NOT NULL,
			status INTEGER NOT NULL,
			score INTEGER NOT NULL,
			PRIMARY KEY (game_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_ended_at ON games(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_games_run_id ON games(run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_game_attempts_type ON game_attempts(expected_type);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertGame stores a completed game and its attempts in one transaction.
func (s *Store) InsertGame(ctx context.Context, game model.GameRecord, attempts []model.AttemptRecord) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO games (run_id, started_at, ended_at, key, chords, succeeded, score, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		game.RunID,
		game.StartedAt.Format(time.RFC3339Nano),
		game.EndedAt.Format(time.RFC3339Nano),
		game.Key,
		game.Chords,
		game.Succeeded,
		game.Score,
		game.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(attempts) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO game_attempts (game_id, position, expected, expected_type, played, status, score)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				_ = cerr
			}
		}()
		for _, a := range attempts {
			if _, err = stmt.ExecContext(ctx, id, a.Position, a.Expected, a.ExpectedType, a.Played, int(a.Status), a.Score); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const typeAggregateColumns = `a.expected_type,
		SUM(CASE WHEN a.status >= ? THEN 1 ELSE 0 END) AS correct,
		SUM(CASE WHEN a.status < ? THEN 1 ELSE 0 END) AS missed,
		SUM(a.score) AS score_sum`

// GetWeakTypes aggregates attempts per chord type over the most recent games.
func (s *Store) GetWeakTypes(ctx context.Context, window int) ([]model.TypeAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_games AS (
		SELECT id FROM games
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ` + typeAggregateColumns + `
	FROM game_attempts a
	JOIN recent_games r ON r.id = a.game_id
	GROUP BY a.expected_type`

	return s.queryTypeAggregates(ctx, query, window, int(model.StatusEquivalent), int(model.StatusEquivalent))
}

// ListTypeAggregatesForGames aggregates per-type stats across the given games.
func (s *Store) ListTypeAggregatesForGames(ctx context.Context, gameIDs []int64) ([]model.TypeAggregate, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(gameIDs))
	args := []any{int(model.StatusEquivalent), int(model.StatusEquivalent)}
	for i, id := range gameIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT %s
		FROM game_attempts a
		WHERE a.game_id IN (%s)
		GROUP BY a.expected_type`, typeAggregateColumns, strings.Join(placeholders, ","))
	return s.queryTypeAggregates(ctx, query, args...)
}

// ListTypeStatsForGames returns per-game aggregates for the selected chord
// types, keyed by game id and then type.
func (s *Store) ListTypeStatsForGames(ctx context.Context, gameIDs []int64, types []string) (map[int64]map[string]model.TypeAggregate, error) {
	if len(gameIDs) == 0 || len(types) == 0 {
		return map[int64]map[string]model.TypeAggregate{}, nil
	}
	idPlaceholders := make([]string, len(gameIDs))
	args := make([]any, 0, 2+len(gameIDs)+len(types))
	args = append(args, int(model.StatusEquivalent), int(model.StatusEquivalent))
	for i, id := range gameIDs {
		idPlaceholders[i] = "?"
		args = append(args, id)
	}
	typePlaceholders := make([]string, len(types))
	for i, t := range types {
		typePlaceholders[i] = "?"
		args = append(args, t)
	}

	query := fmt.Sprintf(`SELECT a.game_id, %s
		FROM game_attempts a
		WHERE a.game_id IN (%s) AND a.expected_type IN (%s)
		GROUP BY a.game_id, a.expected_type`,
		typeAggregateColumns, strings.Join(idPlaceholders, ","), strings.Join(typePlaceholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	result := map[int64]map[string]model.TypeAggregate{}
	for rows.Next() {
		var gameID int64
		var agg model.TypeAggregate
		if err := rows.Scan(&gameID, &agg.Type, &agg.Correct, &agg.Missed, &agg.ScoreSum); err != nil {
			return nil, err
		}
		if _, ok := result[gameID]; !ok {
			result[gameID] = map[string]model.TypeAggregate{}
		}
		result[gameID][agg.Type] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) queryTypeAggregates(ctx context.Context, query string, args ...any) ([]model.TypeAggregate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var result []model.TypeAggregate
	for rows.Next() {
		var agg model.TypeAggregate
		if err := rows.Scan(&agg.Type, &agg.Correct, &agg.Missed, &agg.ScoreSum); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListGames returns game aggregates filtered by stats config, oldest first.
func (s *Store) ListGames(ctx context.Context, cfg model.StatsConfig) ([]model.GameAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, chords, succeeded, score, duration_ms
		FROM games
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var games []model.GameAggregate
	for rows.Next() {
		var agg model.GameAggregate
		var endedAt string
		if err := rows.Scan(&agg.GameID, &endedAt, &agg.Chords, &agg.Succeeded, &agg.Score, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		games = append(games, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(games) > cfg.Last {
		games = games[len(games)-cfg.Last:]
	}
	return games, nil
}

// ListAttempts returns the stored attempts of one game in play order.
func (s *Store) ListAttempts(ctx context.Context, gameID int64) ([]model.AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, expected, expected_type, played, status, score
		 FROM game_attempts
		 WHERE game_id = ?
		 ORDER BY position ASC`, gameID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var out []model.AttemptRecord
	for rows.Next() {
		var a model.AttemptRecord
		var status int
		if err := rows.Scan(&a.Position, &a.Expected, &a.ExpectedType, &a.Played, &status, &a.Score); err != nil {
			return nil, err
		}
		a.Status = model.Status(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
