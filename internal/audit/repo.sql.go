package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines telemetry persistence over user_sessions,
// user_actions, and excluded_users.
type Repository interface {
	IsExcluded(ctx context.Context, userID string) (bool, error)
	ActiveSession(ctx context.Context, userID string) (string, error)
	InsertSession(ctx context.Context, rec SessionRecord) error
	InsertAction(ctx context.Context, rec ActionRecord) error
	EndOpenSessions(ctx context.Context, userID string, endedAt time.Time) error
	RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	SessionActions(ctx context.Context, sessionID string) ([]ActionRecord, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL telemetry repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// IsExcluded checks the opt-out table.
func (r *PGRepository) IsExcluded(ctx context.Context, userID string) (bool, error) {
	var excluded bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM excluded_users WHERE user_id=$1)`, userID).
		Scan(&excluded)
	return excluded, err
}

// ActiveSession returns the id of the user's open session, empty when none.
func (r *PGRepository) ActiveSession(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM user_sessions
		 WHERE user_id=$1 AND ended_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`, userID).
		Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// InsertSession records a new tracked session.
func (r *PGRepository) InsertSession(ctx context.Context, rec SessionRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_sessions (id, user_id, ip_address, user_agent, device_type, started_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.UserID, rec.IPAddress, rec.UserAgent, rec.DeviceType, rec.StartedAt)
	return err
}

// InsertAction records an action against a session.
func (r *PGRepository) InsertAction(ctx context.Context, rec ActionRecord) error {
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO user_actions (id, session_id, action_type, action_details, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		rec.ID, rec.SessionID, rec.ActionType, details, rec.CreatedAt)
	return err
}

// EndOpenSessions closes every open session the user still has.
func (r *PGRepository) EndOpenSessions(ctx context.Context, userID string, endedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE user_sessions SET ended_at=$2
		 WHERE user_id=$1 AND ended_at IS NULL`, userID, endedAt)
	return err
}

// RecentSessions lists the newest sessions for the admin view.
func (r *PGRepository) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, ip_address, user_agent, device_type, started_at, ended_at
		 FROM user_sessions ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.IPAddress, &rec.UserAgent,
			&rec.DeviceType, &rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SessionActions lists every action recorded for a session.
func (r *PGRepository) SessionActions(ctx context.Context, sessionID string) ([]ActionRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, action_type, action_details, created_at
		 FROM user_actions WHERE session_id=$1 ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var rec ActionRecord
		var details []byte
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ActionType, &details, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &rec.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
