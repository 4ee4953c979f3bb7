package ticketrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/pyconza/pyconza-site/internal/adapters/postgres"
	"github.com/pyconza/pyconza-site/internal/domain"
	"github.com/pyconza/pyconza-site/internal/ports/out/ticketrepo"
)

// Repo is a Postgres implementation of ticketrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) TypeIDsByNames(ctx context.Context, names []string) ([]domain.TicketTypeID, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		if n = domain.NormalizeName(n); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return []domain.TicketTypeID{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT external_id
		FROM ticket_types
		WHERE name = ANY($1::text[])
		ORDER BY external_id ASC
	`, normalized)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TicketTypeID, 0, len(normalized))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, domain.TicketTypeID(id.String()))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountByTypeIDs(ctx context.Context, ids []domain.TicketTypeID) (int, error) {
	if r.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	// IDs that are not UUIDs cannot exist in this store.
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(string(id))
		if err != nil {
			continue
		}
		valid = append(valid, u.String())
	}
	if len(valid) == 0 {
		return 0, nil
	}

	row := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM tickets t
		JOIN ticket_types tt ON tt.id = t.type_id
		WHERE tt.external_id = ANY($1::uuid[])
	`, valid)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repo) CreateType(ctx context.Context, t domain.TicketType) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid ticket type id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO ticket_types (external_id, name)
		VALUES ($1, $2)
	`, id, domain.NormalizeName(t.Name))
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return ticketrepo.ErrTypeAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) CreateTicket(ctx context.Context, t domain.Ticket) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(t.ID))
	if err != nil {
		return fmt.Errorf("invalid ticket id: %w", err)
	}
	typeID, err := uuid.Parse(string(t.TypeID))
	if err != nil {
		return ticketrepo.ErrTypeNotFound
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO tickets (external_id, barcode, email, type_id, created_at)
		SELECT $1, $2, $3, tt.id, $5
		FROM ticket_types tt
		WHERE tt.external_id = $4
	`, id, t.Barcode, t.Email, typeID, t.CreatedAt.UTC())
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return ticketrepo.ErrTicketAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ticketrepo.ErrTypeNotFound
	}
	return nil
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.TicketType, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT external_id, name
		FROM ticket_types
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TicketType, 0)
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, domain.TicketType{ID: domain.TicketTypeID(id.String()), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
