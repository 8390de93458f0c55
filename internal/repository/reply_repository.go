package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ReplyRepository manages ticket replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *domain.Reply) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Reply, error)
}

type replyRepository struct {
	pool *pgxpool.Pool
}

// NewReplyRepository builds repository.
func NewReplyRepository(pool *pgxpool.Pool) ReplyRepository {
	return &replyRepository{pool: pool}
}

// Create stores the reply and its Replied event log entry. A missing ticket
// surfaces as ErrInvalidReference.
func (r *replyRepository) Create(ctx context.Context, reply *domain.Reply) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return insertReply(ctx, tx, reply)
	})
	return translateError(err)
}

func (r *replyRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Reply, error) {
	const query = `
        SELECT reply_id, ticket_id, reply, reply_date
        FROM ticket_replies WHERE ticket_id=$1 ORDER BY reply_date ASC, reply_id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Reply{}
	for rows.Next() {
		var reply domain.Reply
		if err := rows.Scan(
			&reply.ID,
			&reply.TicketID,
			&reply.Body,
			&reply.ReplyDate,
		); err != nil {
			return nil, err
		}
		result = append(result, reply)
	}
	return result, rows.Err()
}

// insertReply must run inside a transaction so the reply and its log entry
// land together.
func insertReply(ctx context.Context, q querier, reply *domain.Reply) error {
	const query = `
        INSERT INTO ticket_replies (ticket_id, reply, reply_date)
        VALUES ($1,$2,$3)
        RETURNING reply_id`
	if err := q.QueryRow(ctx, query,
		reply.TicketID,
		reply.Body,
		reply.ReplyDate,
	).Scan(&reply.ID); err != nil {
		return err
	}
	return insertEventLog(ctx, q, &domain.EventLogEntry{
		TicketID:  reply.TicketID,
		LogType:   domain.LogTypeReplied,
		Details:   map[string]any{"replyId": reply.ID},
		CreatedAt: reply.ReplyDate,
	})
}
