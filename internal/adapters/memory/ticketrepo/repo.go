package ticketrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/pyconza/pyconza-site/internal/domain"
	"github.com/pyconza/pyconza-site/internal/ports/out/ticketrepo"
)

// Repo is an in-memory implementation of ticketrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	types       map[domain.TicketTypeID]domain.TicketType
	typesByName map[string]domain.TicketTypeID

	tickets   map[domain.TicketID]domain.Ticket
	barcodes  map[string]struct{}
	soldByTyp map[domain.TicketTypeID]int
}

func NewRepo() *Repo {
	return &Repo{
		types:       make(map[domain.TicketTypeID]domain.TicketType),
		typesByName: make(map[string]domain.TicketTypeID),
		tickets:     make(map[domain.TicketID]domain.Ticket),
		barcodes:    make(map[string]struct{}),
		soldByTyp:   make(map[domain.TicketTypeID]int),
	}
}

func (r *Repo) TypeIDsByNames(ctx context.Context, names []string) ([]domain.TicketTypeID, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TicketTypeID, 0, len(names))
	seen := make(map[domain.TicketTypeID]struct{}, len(names))
	for _, n := range names {
		id, ok := r.typesByName[domain.NormalizeName(n)]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (r *Repo) CountByTypeIDs(ctx context.Context, ids []domain.TicketTypeID) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	seen := make(map[domain.TicketTypeID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		n += r.soldByTyp[id]
	}
	return n, nil
}

func (r *Repo) CreateType(ctx context.Context, t domain.TicketType) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	name := domain.NormalizeName(t.Name)
	if _, ok := r.types[t.ID]; ok {
		return ticketrepo.ErrTypeAlreadyExists
	}
	if _, ok := r.typesByName[name]; ok {
		return ticketrepo.ErrTypeAlreadyExists
	}
	t.Name = name
	r.types[t.ID] = t
	r.typesByName[name] = t.ID
	return nil
}

func (r *Repo) CreateTicket(ctx context.Context, t domain.Ticket) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[t.TypeID]; !ok {
		return ticketrepo.ErrTypeNotFound
	}
	if _, ok := r.tickets[t.ID]; ok {
		return ticketrepo.ErrTicketAlreadyExists
	}
	if _, ok := r.barcodes[t.Barcode]; ok {
		return ticketrepo.ErrTicketAlreadyExists
	}
	r.tickets[t.ID] = t
	r.barcodes[t.Barcode] = struct{}{}
	r.soldByTyp[t.TypeID]++
	return nil
}

func (r *Repo) ListTypes(ctx context.Context) ([]domain.TicketType, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TicketType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
