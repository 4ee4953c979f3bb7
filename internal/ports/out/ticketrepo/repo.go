package ticketrepo

import (
	"context"

	"github.com/pyconza/pyconza-site/internal/domain"
)

// Repository is the boundary to the ticketing store.
//
// The read methods are the only ones the sales counter uses. Create* and ListTypes exist
// for seeding fixtures and for tests; production writes happen in the ticketing system.
type Repository interface {
	// TypeIDsByNames returns the IDs of ticket types whose name is in names.
	// Unknown names are ignored; no match yields an empty slice and a nil error.
	TypeIDsByNames(ctx context.Context, names []string) ([]domain.TicketTypeID, error)

	// CountByTypeIDs counts tickets whose type is one of ids.
	CountByTypeIDs(ctx context.Context, ids []domain.TicketTypeID) (int, error)

	CreateType(ctx context.Context, t domain.TicketType) error
	CreateTicket(ctx context.Context, t domain.Ticket) error

	// ListTypes returns all ticket types ordered by name ascending.
	ListTypes(ctx context.Context) ([]domain.TicketType, error)
}
