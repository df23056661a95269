package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lfpl47/hiring-data-service/internal/domain"
)

// EmployeeRepository manages hired employee persistence.
type EmployeeRepository interface {
	IDs(ctx context.Context) (map[int64]struct{}, error)
	InsertBatch(ctx context.Context, employees []domain.HiredEmployee) error
	List(ctx context.Context) ([]domain.HiredEmployee, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository builds the repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

func (r *employeeRepository) IDs(ctx context.Context) (map[int64]struct{}, error) {
	const query = `SELECT id FROM hired_employees`
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

// InsertBatch commits all employees in a single transaction; either every row
// persists or none do.
func (r *employeeRepository) InsertBatch(ctx context.Context, employees []domain.HiredEmployee) error {
	if len(employees) == 0 {
		return nil
	}
	const query = `
        INSERT INTO hired_employees (id, name, datetime, department_id, job_id)
        VALUES ($1,$2,$3,$4,$5)`

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, emp := range employees {
		batch.Queue(query, emp.ID, emp.Name, emp.HiredAt, emp.DepartmentID, emp.JobID)
	}
	if err := sendBatch(ctx, tx, batch); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *employeeRepository) List(ctx context.Context) ([]domain.HiredEmployee, error) {
	const query = `
        SELECT id, name, datetime, department_id, job_id
        FROM hired_employees ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HiredEmployee
	for rows.Next() {
		var emp domain.HiredEmployee
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.HiredAt, &emp.DepartmentID, &emp.JobID); err != nil {
			return nil, err
		}
		result = append(result, emp)
	}
	return result, rows.Err()
}
