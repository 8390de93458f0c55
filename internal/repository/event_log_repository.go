package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventLogRepository reads ticket audit entries. Entries are written by the
// ticket and reply repositories inside their own transactions.
type EventLogRepository interface {
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.EventLogEntry, error)
}

type eventLogRepository struct {
	pool *pgxpool.Pool
}

// NewEventLogRepository builds repository.
func NewEventLogRepository(pool *pgxpool.Pool) EventLogRepository {
	return &eventLogRepository{pool: pool}
}

func (r *eventLogRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.EventLogEntry, error) {
	const query = `
        SELECT e.id, e.ticket_id, e.log_type_id, lt.title, e.details, e.created_at
        FROM ticket_event_logs e
        JOIN log_types lt ON lt.id = e.log_type_id
        WHERE e.ticket_id=$1 ORDER BY e.created_at ASC, e.id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.EventLogEntry{}
	for rows.Next() {
		var entry domain.EventLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.LogType,
			&entry.LogTitle,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func insertEventLog(ctx context.Context, q querier, entry *domain.EventLogEntry) error {
	const query = `
        INSERT INTO ticket_event_logs (ticket_id, log_type_id, details, created_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	return q.QueryRow(ctx, query,
		entry.TicketID,
		int(entry.LogType),
		entry.Details,
		entry.CreatedAt,
	).Scan(&entry.ID)
}
