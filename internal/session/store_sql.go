package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const activeSlot = "active"

// SQLStore persists the active-session slot and the results history over
// database/sql. Works with the sqlite and pgx drivers alike.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) LoadSession(ctx context.Context) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_json FROM active_session WHERE slot=$1`, activeSlot)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.ID == "" {
		// Corrupted slot: treat as absent rather than crash.
		_ = s.ClearSession(ctx)
		return nil, ErrNoSession
	}
	return &sess, nil
}

func (s *SQLStore) SaveSession(ctx context.Context, sess *Session) error {
	buf, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO active_session (slot, session_json, updated_at)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (slot) DO UPDATE SET session_json=EXCLUDED.session_json, updated_at=EXCLUDED.updated_at`,
		activeSlot, string(buf), time.Now().Unix())
	return err
}

func (s *SQLStore) ClearSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM active_session WHERE slot=$1`, activeSlot)
	return err
}

func (s *SQLStore) AppendResult(ctx context.Context, r *Result) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, completed_at, result_json) VALUES ($1,$2,$3)`,
		r.ID, r.Date, string(buf))
	return err
}

func (s *SQLStore) GetResult(ctx context.Context, id string) (*Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM results WHERE id=$1`, id)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}
	var r Result
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, ErrResultNotFound
	}
	return &r, nil
}

func (s *SQLStore) ListResults(ctx context.Context) ([]*Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result_json FROM results ORDER BY completed_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Result{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r Result
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			continue // skip corrupted rows
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ClearResults(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM results`)
	return err
}
