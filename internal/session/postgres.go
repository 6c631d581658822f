package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps one upserted session row per user.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore builds the durable session backend.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get fetches a non-expired session row.
func (s *PostgresStore) Get(ctx context.Context, userID string) (Session, error) {
	row := s.db.QueryRow(ctx, `SELECT current_state, session_data, created_at
        FROM sessions WHERE user_id = $1 AND expires_at > NOW()`, userID)

	var (
		state     string
		data      Data
		createdAt time.Time
	)
	if err := row.Scan(&state, &data, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return Session{State: State(state), Data: data, CreatedAt: createdAt.UTC()}, nil
}

// Put upserts the session row, resetting its expiry window.
func (s *PostgresStore) Put(ctx context.Context, userID string, sess Session, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `INSERT INTO sessions (user_id, current_state, session_data, expires_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE SET
            current_state = EXCLUDED.current_state,
            session_data = EXCLUDED.session_data,
            expires_at = EXCLUDED.expires_at,
            updated_at = NOW()`,
		userID, string(sess.State), sess.Data, expiresAt.UTC())
	return err
}

// Delete removes the session row.
func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}
