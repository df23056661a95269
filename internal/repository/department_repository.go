package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	IDs(ctx context.Context) (map[int64]struct{}, error)
	InsertBatch(ctx context.Context, departments []domain.Department) error
	List(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

// IDs loads the set of committed department ids for reference checks.
func (r *departmentRepository) IDs(ctx context.Context) (map[int64]struct{}, error) {
	const query = `SELECT id FROM departments`
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

// InsertBatch commits all departments in a single transaction.
func (r *departmentRepository) InsertBatch(ctx context.Context, departments []domain.Department) error {
	if len(departments) == 0 {
		return nil
	}
	const query = `INSERT INTO departments (id, department) VALUES ($1,$2)`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, dept := range departments {
		batch.Queue(query, dept.ID, dept.Name)
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `SELECT id, department FROM departments ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.Name); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

// sendBatch executes every queued statement, failing on the first error so
// the surrounding transaction rolls back as a unit.
func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) error {
	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return results.Close()
}
