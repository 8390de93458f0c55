package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts the ticket and, when initialReply is not nil, its first
	// reply in one transaction. The ticket's lookup projections are filled in.
	Create(ctx context.Context, ticket *domain.Ticket, initialReply *domain.Reply) error
	// Update writes the ticket if its stored version still equals ticket.Version.
	// It returns ErrConflict when no row matched.
	Update(ctx context.Context, ticket *domain.Ticket, changes map[string]any, reply *domain.Reply) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
        t.id, t.title, t.application_name, t.description, t.priority_id, t.status_id, t.ticket_type_id,
        t.installed_environment_id, t.date, t.last_modified, t.deleted, t.version,
        p.title, s.title, tt.title`

const ticketJoins = `
        FROM tickets t
        LEFT JOIN priorities p ON p.id = t.priority_id
        LEFT JOIN statuses s ON s.id = t.status_id
        LEFT JOIN ticket_types tt ON tt.id = t.ticket_type_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, initialReply *domain.Reply) error {
	const query = `
        INSERT INTO tickets (title, application_name, description, priority_id, status_id, ticket_type_id,
            installed_environment_id, date, last_modified)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, deleted, version`
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			ticket.Title,
			ticket.ApplicationName,
			ticket.Description,
			ticket.PriorityID,
			ticket.StatusID,
			ticket.TicketTypeID,
			nullableInt(ticket.InstalledEnvironmentID),
			ticket.Date,
			ticket.LastModified,
		).Scan(&ticket.ID, &ticket.Deleted, &ticket.Version); err != nil {
			return err
		}

		stored, err := scanTicket(tx.QueryRow(ctx, `SELECT`+ticketColumns+ticketJoins+`
        WHERE t.id=$1`, ticket.ID))
		if err != nil {
			return err
		}
		ticket.Priority = stored.Priority
		ticket.Status = stored.Status
		ticket.TicketType = stored.TicketType

		if err := insertEventLog(ctx, tx, &domain.EventLogEntry{
			TicketID:  ticket.ID,
			LogType:   domain.LogTypeCreated,
			Details:   map[string]any{"title": ticket.Title},
			CreatedAt: ticket.Date,
		}); err != nil {
			return err
		}

		if initialReply == nil {
			return nil
		}
		initialReply.TicketID = ticket.ID
		if err := insertReply(ctx, tx, initialReply); err != nil {
			return err
		}
		ticket.Replies = []domain.Reply{*initialReply}
		return nil
	})
	return translateError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, changes map[string]any, reply *domain.Reply) error {
	const query = `
        UPDATE tickets SET application_name=$1, priority_id=$2, status_id=$3, ticket_type_id=$4,
            last_modified=$5, version=version+1
        WHERE id=$6 AND version=$7 AND deleted=FALSE
        RETURNING version`
	if changes == nil {
		changes = map[string]any{}
	}
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var version int
		err := tx.QueryRow(ctx, query,
			ticket.ApplicationName,
			ticket.PriorityID,
			ticket.StatusID,
			ticket.TicketTypeID,
			ticket.LastModified,
			ticket.ID,
			ticket.Version,
		).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrConflict
		}
		if err != nil {
			return err
		}

		if err := insertEventLog(ctx, tx, &domain.EventLogEntry{
			TicketID:  ticket.ID,
			LogType:   domain.LogTypeUpdated,
			Details:   changes,
			CreatedAt: ticket.LastModified,
		}); err != nil {
			return err
		}

		if reply != nil {
			reply.TicketID = ticket.ID
			if err := insertReply(ctx, tx, reply); err != nil {
				return err
			}
		}
		ticket.Version = version
		return nil
	})
	return translateError(err)
}

// Delete removes the ticket; replies and event log rows cascade.
func (r *ticketRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1 AND deleted=FALSE`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ticketJoins + `
        WHERE t.id=$1 AND t.deleted=FALSE`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1 AND deleted=FALSE)`, id,
	).Scan(&exists)
	return exists, err
}

// List returns one page ordered newest first, with id as tie breaker, plus the
// number of tickets matching filter. Both reads share one snapshot.
func (r *ticketRepository) List(ctx context.Context, filter domain.TicketFilter, limit, offset int) ([]domain.Ticket, int, error) {
	clauses := []string{"t.deleted=FALSE"}
	args := []any{}

	if filter.PriorityID != nil {
		args = append(args, *filter.PriorityID)
		clauses = append(clauses, fmt.Sprintf("t.priority_id=$%d", len(args)))
	}
	if filter.StatusID != nil {
		args = append(args, *filter.StatusID)
		clauses = append(clauses, fmt.Sprintf("t.status_id=$%d", len(args)))
	}
	if filter.TicketTypeID != nil {
		args = append(args, *filter.TicketTypeID)
		clauses = append(clauses, fmt.Sprintf("t.ticket_type_id=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	countQuery := `SELECT COUNT(*) FROM tickets t WHERE ` + where
	pageQuery := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY t.date DESC, t.id DESC LIMIT $%d OFFSET $%d`,
		ticketColumns, ticketJoins, where, len(args)+1, len(args)+2)

	var (
		tickets []domain.Ticket
		total   int
	)
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, pageQuery, append(args, limit, offset)...)
		if err != nil {
			return err
		}
		defer rows.Close()
		tickets, err = scanTickets(rows)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket        domain.Ticket
		environmentID *int
		priority      *string
		status        *string
		ticketType    *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.ApplicationName,
		&ticket.Description,
		&ticket.PriorityID,
		&ticket.StatusID,
		&ticket.TicketTypeID,
		&environmentID,
		&ticket.Date,
		&ticket.LastModified,
		&ticket.Deleted,
		&ticket.Version,
		&priority,
		&status,
		&ticketType,
	); err != nil {
		return nil, err
	}
	if environmentID != nil {
		ticket.InstalledEnvironmentID = *environmentID
	}

	var err error
	if ticket.Priority, err = resolveLookup(ticket.ID, "priority", ticket.PriorityID, priority); err != nil {
		return nil, err
	}
	if ticket.Status, err = resolveLookup(ticket.ID, "status", ticket.StatusID, status); err != nil {
		return nil, err
	}
	if ticket.TicketType, err = resolveLookup(ticket.ID, "ticket type", ticket.TicketTypeID, ticketType); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func resolveLookup(ticketID int64, kind string, id int, title *string) (domain.Lookup, error) {
	if title == nil {
		return domain.Lookup{}, fmt.Errorf("%w: ticket %d references missing %s %d", ErrIntegrity, ticketID, kind, id)
	}
	return domain.Lookup{ID: id, Title: *title}, nil
}
