package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-chat/internal/domain"
)

// TicketRepository persists tickets raised by the assistant.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.ChatbotTicket) error
	GetByExternalKey(ctx context.Context, key string) (*domain.ChatbotTicket, error)
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.ChatbotTicket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, session_id, title, description, priority, category, subcategory,
               status, source, user_id, username, tags, sentiment, keywords, created_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.ChatbotTicket) error {
	const query = `
        INSERT INTO chatbot_tickets (external_key, session_id, title, description, priority, category, subcategory,
            status, source, user_id, username, tags, sentiment, keywords)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at`
	t := ticket.Ticket
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.SessionID,
		t.Title,
		t.Description,
		t.Priority,
		t.Category,
		t.Subcategory,
		t.Status,
		t.Source,
		t.UserID,
		t.Username,
		nonNil(t.Tags),
		t.AIAnalysis.Sentiment,
		nonNil(t.AIAnalysis.Keywords),
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.ChatbotTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM chatbot_tickets WHERE external_key=$1`
	rows, err := r.pool.Query(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]domain.ChatbotTicket, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + ticketColumns + `
             FROM chatbot_tickets WHERE session_id=$1
             ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.ChatbotTicket, error) {
	result := []domain.ChatbotTicket{}
	for rows.Next() {
		var ct domain.ChatbotTicket
		if err := rows.Scan(
			&ct.ID,
			&ct.ExternalKey,
			&ct.SessionID,
			&ct.Ticket.Title,
			&ct.Ticket.Description,
			&ct.Ticket.Priority,
			&ct.Ticket.Category,
			&ct.Ticket.Subcategory,
			&ct.Ticket.Status,
			&ct.Ticket.Source,
			&ct.Ticket.UserID,
			&ct.Ticket.Username,
			&ct.Ticket.Tags,
			&ct.Ticket.AIAnalysis.Sentiment,
			&ct.Ticket.AIAnalysis.Keywords,
			&ct.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ct)
	}
	return result, rows.Err()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
