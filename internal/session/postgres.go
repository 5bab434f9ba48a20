package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/mcquiz/internal/domain"
)

// Schema creates the table used by Postgres.
const Schema = `
CREATE TABLE IF NOT EXISTS quiz_sessions (
	session_id  UUID PRIMARY KEY,
	questions   JSONB NOT NULL,
	submitted   BOOLEAN NOT NULL DEFAULT FALSE,
	create_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	submit_time TIMESTAMPTZ
);`

// Postgres is a Registry backed by a Postgres table.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the sessions table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create quiz_sessions: %w", err)
	}
	return nil
}

func (p *Postgres) Put(ctx context.Context, s domain.Session) error {
	b, err := json.Marshal(toRecords(s.Questions))
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	const stmt = `
INSERT INTO quiz_sessions (session_id, questions, submitted, create_time)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id) DO UPDATE
SET questions = EXCLUDED.questions, submitted = EXCLUDED.submitted, create_time = EXCLUDED.create_time, submit_time = NULL;`

	createTime := s.CreateTime
	if createTime.IsZero() {
		createTime = time.Now()
	}

	if _, err := p.db.Exec(ctx, stmt, s.SessionID, b, s.Submitted, createTime); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (p *Postgres) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	// Session IDs are UUIDs, anything else cannot be stored.
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, notFound(sessionID)
	}

	const stmt = `SELECT questions, submitted, create_time FROM quiz_sessions WHERE session_id = $1;`

	var (
		b  []byte
		ss = domain.Session{SessionID: sessionID}
	)
	err := p.db.QueryRow(ctx, stmt, sessionID).Scan(&b, &ss.Submitted, &ss.CreateTime)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	var rs []questionRecord
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal questions of session %s: %w", sessionID, err)
	}
	ss.Questions = fromRecords(rs)

	return &ss, nil
}

// MarkSubmitted lets the row lock decide the winner: only one UPDATE sees submitted = FALSE.
func (p *Postgres) MarkSubmitted(ctx context.Context, sessionID string) (bool, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return false, notFound(sessionID)
	}

	const stmt = `UPDATE quiz_sessions SET submitted = TRUE, submit_time = NOW() WHERE session_id = $1 AND NOT submitted;`

	tag, err := p.db.Exec(ctx, stmt, sessionID)
	if err != nil {
		return false, fmt.Errorf("update session: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quiz_sessions WHERE session_id = $1);`, sessionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	if !exists {
		return false, notFound(sessionID)
	}

	return false, nil
}
