package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pyconza/pyconza-site/internal/domain"
	ticketrepoport "github.com/pyconza/pyconza-site/internal/ports/out/ticketrepo"
)

type CleanupFunc = func()

type TicketRepoFactory func(t *testing.T) (ticketrepoport.Repository, CleanupFunc)

func newTypeID() domain.TicketTypeID { return domain.TicketTypeID(uuid.NewString()) }

func newTicket(typeID domain.TicketTypeID, now time.Time) domain.Ticket {
	id := uuid.NewString()
	return domain.Ticket{
		ID:        domain.TicketID(id),
		TypeID:    typeID,
		Barcode:   "bc-" + id,
		Email:     "attendee@example.com",
		CreatedAt: now,
	}
}

// RunTicketRepo exercises the behavior every ticketrepo.Repository must provide.
func RunTicketRepo(t *testing.T, newRepo TicketRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	studentDurban := newTypeID()
	corporateDurban := newTypeID()
	studentOnline := newTypeID()
	for id, name := range map[domain.TicketTypeID]string{
		studentDurban:   "Student (Durban)",
		corporateDurban: "Corporate (Durban, Early Bird)",
		studentOnline:   "Student (Online)",
	} {
		if err := repo.CreateType(ctx, domain.TicketType{ID: id, Name: name}); err != nil {
			t.Fatalf("CreateType(%q): %v", name, err)
		}
	}

	// Name uniqueness.
	if err := repo.CreateType(ctx, domain.TicketType{ID: newTypeID(), Name: "Student (Durban)"}); !errors.Is(err, ticketrepoport.ErrTypeAlreadyExists) {
		t.Fatalf("CreateType duplicate name err=%v, want %v", err, ticketrepoport.ErrTypeAlreadyExists)
	}

	sold := map[domain.TicketTypeID]int{studentDurban: 3, corporateDurban: 2, studentOnline: 4}
	for typeID, n := range sold {
		for i := 0; i < n; i++ {
			if err := repo.CreateTicket(ctx, newTicket(typeID, now)); err != nil {
				t.Fatalf("CreateTicket: %v", err)
			}
		}
	}

	// Unknown type reference.
	if err := repo.CreateTicket(ctx, newTicket(newTypeID(), now)); !errors.Is(err, ticketrepoport.ErrTypeNotFound) {
		t.Fatalf("CreateTicket unknown type err=%v, want %v", err, ticketrepoport.ErrTypeNotFound)
	}

	// Barcode uniqueness.
	dup := newTicket(studentDurban, now)
	if err := repo.CreateTicket(ctx, dup); err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	dup2 := newTicket(studentDurban, now)
	dup2.Barcode = dup.Barcode
	if err := repo.CreateTicket(ctx, dup2); !errors.Is(err, ticketrepoport.ErrTicketAlreadyExists) {
		t.Fatalf("CreateTicket duplicate barcode err=%v, want %v", err, ticketrepoport.ErrTicketAlreadyExists)
	}

	ids, err := repo.TypeIDsByNames(ctx, []string{
		"Student (Durban)",
		"Corporate (Durban, Early Bird)",
		"Student (Durban)",
		"Pensioner (Durban)",
	})
	if err != nil {
		t.Fatalf("TypeIDsByNames: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("TypeIDsByNames len=%d, want 2 (ids=%v)", len(ids), ids)
	}

	n, err := repo.CountByTypeIDs(ctx, ids)
	if err != nil {
		t.Fatalf("CountByTypeIDs: %v", err)
	}
	// 3 + 2 seeded, plus the accepted duplicate-barcode probe.
	if n != 6 {
		t.Fatalf("CountByTypeIDs=%d, want 6", n)
	}

	// No match is not an error.
	none, err := repo.TypeIDsByNames(ctx, []string{"Nope (Nowhere)"})
	if err != nil {
		t.Fatalf("TypeIDsByNames(no match): %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("TypeIDsByNames(no match)=%v, want empty", none)
	}
	zero, err := repo.CountByTypeIDs(ctx, none)
	if err != nil {
		t.Fatalf("CountByTypeIDs(empty): %v", err)
	}
	if zero != 0 {
		t.Fatalf("CountByTypeIDs(empty)=%d, want 0", zero)
	}

	types, err := repo.ListTypes(ctx)
	if err != nil {
		t.Fatalf("ListTypes: %v", err)
	}
	if len(types) != 3 {
		t.Fatalf("ListTypes len=%d, want 3", len(types))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1].Name > types[i].Name {
			t.Fatalf("ListTypes not ordered by name: %v", types)
		}
	}
}
