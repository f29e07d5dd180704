// Package storage archives finished and in-progress games in SQLite. Live
// game state is never read back; the archive serves history lookups.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SessionRow represents a session in the database.
type SessionRow struct {
	Code      string     `json:"code"`
	Status    string     `json:"status"` // "waiting", "playing", "finished"
	EndReason string     `json:"endReason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// Move is one archived action.
type Move struct {
	SessionCode string    `json:"sessionCode"`
	Seq         int       `json:"seq"`
	PlayerID    string    `json:"playerId"`
	Kind        string    `json:"kind"`
	Words       []string  `json:"words,omitempty"`
	Score       int       `json:"score"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Result is a player's final standing.
type Result struct {
	SessionCode string `json:"sessionCode"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
}

// Store handles SQLite persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// one connection: sqlite serializes writers, and ":memory:" is per connection
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			code       TEXT PRIMARY KEY,
			status     TEXT NOT NULL DEFAULT 'waiting',
			end_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			ended_at   DATETIME
		);
		CREATE TABLE IF NOT EXISTS moves (
			session_code TEXT NOT NULL REFERENCES sessions(code),
			seq          INTEGER NOT NULL,
			player_id    TEXT NOT NULL,
			kind         TEXT NOT NULL,
			words        TEXT NOT NULL DEFAULT '[]',
			score        INTEGER NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL,
			PRIMARY KEY (session_code, seq)
		);
		CREATE TABLE IF NOT EXISTS results (
			session_code TEXT NOT NULL REFERENCES sessions(code),
			player_id    TEXT NOT NULL,
			display_name TEXT NOT NULL,
			score        INTEGER NOT NULL,
			rank         INTEGER NOT NULL,
			PRIMARY KEY (session_code, player_id)
		);
	`)
	return err
}

// CreateSession inserts a new waiting session.
func (s *Store) CreateSession(code string, createdAt time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO sessions (code, status, created_at) VALUES (?, 'waiting', ?)",
		code, createdAt.UTC(),
	)
	return err
}

// GetSession retrieves a session by code.
func (s *Store) GetSession(code string) (*SessionRow, error) {
	row := s.db.QueryRow(
		"SELECT code, status, end_reason, created_at, ended_at FROM sessions WHERE code = ?", code)
	var (
		sr    SessionRow
		ended sql.NullTime
	)
	if err := row.Scan(&sr.Code, &sr.Status, &sr.EndReason, &sr.CreatedAt, &ended); err != nil {
		return nil, err
	}
	if ended.Valid {
		sr.EndedAt = &ended.Time
	}
	return &sr, nil
}

// UpdateSessionStatus changes a session's status.
func (s *Store) UpdateSessionStatus(code, status string) error {
	_, err := s.db.Exec("UPDATE sessions SET status = ? WHERE code = ?", status, code)
	return err
}

// FinishSession marks a session finished with its end reason.
func (s *Store) FinishSession(code, endReason string, endedAt time.Time) error {
	res, err := s.db.Exec(
		"UPDATE sessions SET status = 'finished', end_reason = ?, ended_at = ? WHERE code = ?",
		endReason, endedAt.UTC(), code,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendMove archives one action. Seq is unique per session.
func (s *Store) AppendMove(m Move) error {
	words, err := json.Marshal(m.Words)
	if err != nil {
		return fmt.Errorf("marshal words: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO moves (session_code, seq, player_id, kind, words, score, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		m.SessionCode, m.Seq, m.PlayerID, m.Kind, string(words), m.Score, m.CreatedAt.UTC(),
	)
	return err
}

// ListMoves returns a session's moves in order.
func (s *Store) ListMoves(code string) ([]Move, error) {
	rows, err := s.db.Query(
		"SELECT session_code, seq, player_id, kind, words, score, created_at FROM moves WHERE session_code = ? ORDER BY seq",
		code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Move
	for rows.Next() {
		var (
			m     Move
			words string
		)
		if err := rows.Scan(&m.SessionCode, &m.Seq, &m.PlayerID, &m.Kind, &words, &m.Score, &m.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(words), &m.Words); err != nil {
			return nil, fmt.Errorf("decode words for move %d: %w", m.Seq, err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// SaveResults replaces a session's final standings.
func (s *Store) SaveResults(code string, results []Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM results WHERE session_code = ?", code); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := tx.Exec(
			"INSERT INTO results (session_code, player_id, display_name, score, rank) VALUES (?, ?, ?, ?, ?)",
			code, r.PlayerID, r.DisplayName, r.Score, r.Rank,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListResults returns standings ordered by rank.
func (s *Store) ListResults(code string) ([]Result, error) {
	rows, err := s.db.Query(
		"SELECT session_code, player_id, display_name, score, rank FROM results WHERE session_code = ? ORDER BY rank, display_name",
		code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.SessionCode, &r.PlayerID, &r.DisplayName, &r.Score, &r.Rank); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
