package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Freelancing-tuhin/Hobi-app-server/internal/domain"
	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/telemetry"
)

// PostgresEventRepository implements EventCatalog using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// GetEvent retrieves an event with its ticket tiers
func (r *PostgresEventRepository) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", id))

	event := &domain.Event{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, organizer_id, title, is_ticketed, created_at, updated_at
		FROM events
		WHERE id = $1
	`, id).Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.IsTicketed,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, name, unit_price, total_quantity, sold_count
		FROM tickets
		WHERE event_id = $1
		ORDER BY unit_price
	`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event tickets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier domain.TicketTier
		if err := rows.Scan(
			&tier.ID,
			&tier.EventID,
			&tier.Name,
			&tier.UnitPrice,
			&tier.TotalQuantity,
			&tier.SoldCount,
		); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan ticket tier: %w", err)
		}
		event.Tickets = append(event.Tickets, tier)
	}

	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating ticket tiers: %w", err)
	}

	span.SetAttributes(attribute.Int("tickets", len(event.Tickets)))
	span.SetStatus(codes.Ok, "")
	return event, nil
}

// GetTicket retrieves a single ticket tier of an event
func (r *PostgresEventRepository) GetTicket(ctx context.Context, eventID, ticketID string) (*domain.TicketTier, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.get_ticket")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("ticket_id", ticketID),
	)

	tier := &domain.TicketTier{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, event_id, name, unit_price, total_quantity, sold_count
		FROM tickets
		WHERE id = $1 AND event_id = $2
	`, ticketID, eventID).Scan(
		&tier.ID,
		&tier.EventID,
		&tier.Name,
		&tier.UnitPrice,
		&tier.TotalQuantity,
		&tier.SoldCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return tier, nil
}

// Ensure PostgresEventRepository implements EventCatalog
var _ EventCatalog = (*PostgresEventRepository)(nil)
