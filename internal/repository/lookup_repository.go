package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LookupRepository reads the seeded reference tables.
type LookupRepository interface {
	List(ctx context.Context, table domain.LookupTable) ([]domain.Lookup, error)
}

type lookupRepository struct {
	pool *pgxpool.Pool
}

// NewLookupRepository builds repository.
func NewLookupRepository(pool *pgxpool.Pool) LookupRepository {
	return &lookupRepository{pool: pool}
}

var lookupQueries = map[domain.LookupTable]string{
	domain.LookupPriorities:            `SELECT id, title FROM priorities ORDER BY id`,
	domain.LookupStatuses:              `SELECT id, title FROM statuses ORDER BY id`,
	domain.LookupTicketTypes:           `SELECT id, title FROM ticket_types ORDER BY id`,
	domain.LookupInstalledEnvironments: `SELECT id, title FROM installed_environments ORDER BY id`,
	domain.LookupLogTypes:              `SELECT id, title FROM log_types ORDER BY id`,
}

func (r *lookupRepository) List(ctx context.Context, table domain.LookupTable) ([]domain.Lookup, error) {
	query, ok := lookupQueries[table]
	if !ok {
		return nil, fmt.Errorf("unknown lookup table %q", table)
	}
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Lookup{}
	for rows.Next() {
		var item domain.Lookup
		if err := rows.Scan(&item.ID, &item.Title); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
