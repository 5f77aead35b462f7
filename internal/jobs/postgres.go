package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobsQuery = `
	SELECT id, title, COALESCE(city, ''), COALESCE(salary, ''),
	       COALESCE(required_skills, '{}'), required_years,
	       COALESCE(language_level, 'any'), COALESCE(nice_to_have, '{}')
	FROM jobs
	WHERE tenant_id = $1 AND is_active
	ORDER BY position, id`

// PostgresSource reads the active jobs of a tenant from a jobs table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresPool connects to databaseURL and verifies connectivity.
func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

// NewPostgresSource uses an existing pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (p *PostgresSource) Jobs(ctx context.Context, tenantID string) ([]Job, error) {
	rows, err := p.pool.Query(ctx, jobsQuery, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}

	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Job, error) {
		var j Job
		err := row.Scan(&j.ID, &j.Title, &j.City, &j.Salary,
			&j.RequiredSkills, &j.RequiredYears, &j.LanguageLevel, &j.NiceToHave)
		return j, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}

	return NormalizeAll(list)
}
