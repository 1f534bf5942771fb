package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/trcstyle/backend/internal/app/domain/job"
)

// --- JobStore ----------------------------------------------------------------

func (s *Store) CreateJob(ctx context.Context, j job.Job) (job.Job, error) {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, kind, status, payload, result, error, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, j.ID, string(j.Kind), string(j.Status), nullBytes(j.Payload), nullBytes(j.Result),
		toNullString(j.Error), j.CreatedAt, j.UpdatedAt, toNullTime(&j.CompletedAt))
	if err != nil {
		return job.Job{}, mapErr(err)
	}
	return j, nil
}

func (s *Store) UpdateJob(ctx context.Context, j job.Job) (job.Job, error) {
	j.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $2, payload = $3, result = $4, error = $5, updated_at = $6, completed_at = $7
		WHERE id = $1
	`, j.ID, string(j.Status), nullBytes(j.Payload), nullBytes(j.Result),
		toNullString(j.Error), j.UpdatedAt, toNullTime(&j.CompletedAt))
	if err != nil {
		return job.Job{}, mapErr(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return job.Job{}, mapErr(sql.ErrNoRows)
	}
	return j, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (job.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, status, payload, result, error, created_at, updated_at, completed_at
		FROM jobs
		WHERE id = $1
	`, id)
	j, err := scanJob(row)
	if err != nil {
		return job.Job{}, mapErr(err)
	}
	return j, nil
}

func (s *Store) ListJobs(ctx context.Context, kind job.Kind, limit int) ([]job.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, kind, status, payload, result, error, created_at, updated_at, completed_at
		FROM jobs
	`
	args := []interface{}{limit}
	if kind != "" {
		query += ` WHERE kind = $2`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	return result, rows.Err()
}

func scanJob(row rowScanner) (job.Job, error) {
	var (
		j               job.Job
		kind, status    string
		payload, result []byte
		errMsg          sql.NullString
		completed       sql.NullTime
	)
	err := row.Scan(&j.ID, &kind, &status, &payload, &result, &errMsg,
		&j.CreatedAt, &j.UpdatedAt, &completed)
	if err != nil {
		return job.Job{}, err
	}
	j.Kind = job.Kind(kind)
	j.Status = job.Status(status)
	j.Payload = payload
	j.Result = result
	j.Error = fromNullString(errMsg)
	if completed.Valid {
		j.CompletedAt = completed.Time
	}
	return j, nil
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
