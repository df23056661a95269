package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

// JobRepository manages job persistence.
type JobRepository interface {
	IDs(ctx context.Context) (map[int64]struct{}, error)
	InsertBatch(ctx context.Context, jobs []domain.Job) error
	List(ctx context.Context) ([]domain.Job, error)
}

type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository builds the repository.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

func (r *jobRepository) IDs(ctx context.Context) (map[int64]struct{}, error) {
	const query = `SELECT id FROM jobs`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// InsertBatch commits all jobs in a single transaction.
func (r *jobRepository) InsertBatch(ctx context.Context, jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	const query = `INSERT INTO jobs (id, job) VALUES ($1,$2)`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, job := range jobs {
		batch.Queue(query, job.ID, job.Title)
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *jobRepository) List(ctx context.Context) ([]domain.Job, error) {
	const query = `SELECT id, job FROM jobs ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Job
	for rows.Next() {
		var job domain.Job
		if err := rows.Scan(&job.ID, &job.Title); err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}
