package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskmaster/internal/model"
)

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const failedWritesSchema = `
	CREATE TABLE IF NOT EXISTS failed_writes (
		id            BIGSERIAL PRIMARY KEY,
		user_id       TEXT        NOT NULL,
		entity        TEXT        NOT NULL,
		entity_id     TEXT        NOT NULL,
		operation     TEXT        NOT NULL,
		payload       JSONB,
		error_message TEXT        NOT NULL,
		occurred_at   TIMESTAMPTZ NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_failed_writes_user ON failed_writes (user_id, occurred_at DESC);
`

type FailedWriteRepository struct {
	db DB
}

func NewFailedWriteRepository(db DB) *FailedWriteRepository {
	return &FailedWriteRepository{db: db}
}

// EnsureSchema 启动时建表（幂等）
func (r *FailedWriteRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, failedWritesSchema)
	return err
}

// RecordFailedWrite 插入一条失败写入记录
func (r *FailedWriteRepository) RecordFailedWrite(ctx context.Context, fw model.FailedWrite) error {
	payloadJSON, err := json.Marshal(fw.Payload)
	if err != nil {
		return err
	}
	occurredAt := fw.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	query := `
		INSERT INTO failed_writes (user_id, entity, entity_id, operation, payload, error_message, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query, fw.UserID, fw.Entity, fw.EntityID, fw.Operation, payloadJSON, fw.Error, occurredAt)
	return err
}

type FailedWriteRecord struct {
	ID         int64           `json:"id"`
	Entity     string          `json:"entity"`
	EntityID   string          `json:"entityId"`
	Operation  string          `json:"operation"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// ListRecent 最近的失败写入，新的在前
func (r *FailedWriteRepository) ListRecent(ctx context.Context, userID string, limit int) ([]FailedWriteRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, entity, entity_id, operation, payload, error_message, occurred_at
		FROM failed_writes
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]FailedWriteRecord, 0)
	for rows.Next() {
		var rec FailedWriteRecord
		if err := rows.Scan(&rec.ID, &rec.Entity, &rec.EntityID, &rec.Operation, &rec.Payload, &rec.Error, &rec.OccurredAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
