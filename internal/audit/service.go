package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists audit entries.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
}

// Service is the worker-side consumer of audit tasks.
type Service struct {
	repo Repository
}

// NewService constructs the audit persistence service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record stores one entry, filling missing id and timestamp.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.repo.Insert(ctx, entry)
}

// PgRepository implements Repository on PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository constructs PgRepository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Insert(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (id, action, target_type, target_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Action, entry.TargetType, entry.TargetID, details, entry.CreatedAt,
	)
	return err
}
