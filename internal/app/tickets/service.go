package tickets

import (
	"context"
	"fmt"
	"time"

	"github.com/pyconza/pyconza-site/internal/domain"
	clockport "github.com/pyconza/pyconza-site/internal/ports/out/clock"
	"github.com/pyconza/pyconza-site/internal/ports/out/ticketrepo"
)

// Counter publishes a group's sales under a variable name. A nil Capacity
// publishes tickets sold; otherwise remaining capacity.
type Counter struct {
	Name     string
	Group    string
	Capacity *int
}

// GroupRemaining is the result of a capacity check for one group.
type GroupRemaining struct {
	Group     string
	Capacity  int
	Sold      int
	Remaining int
}

// Snapshot is every registered variable evaluated at one point in time.
type Snapshot struct {
	GeneratedAt time.Time
	Values      map[string]int
}

// Service counts sold tickets. It only reads from the ticket store.
type Service struct {
	repo ticketrepo.Repository
	clk  clockport.Clock

	groups     map[string]domain.TicketCategoryGroup
	groupOrder []string
}

// NewService builds a counter over the given category groups. Later groups with
// a name already seen are ignored.
func NewService(repo ticketrepo.Repository, clk clockport.Clock, groups []domain.TicketCategoryGroup) *Service {
	s := &Service{
		repo:   repo,
		clk:    clk,
		groups: make(map[string]domain.TicketCategoryGroup, len(groups)),
	}
	for _, g := range groups {
		if _, ok := s.groups[g.Name()]; ok {
			continue
		}
		s.groups[g.Name()] = g
		s.groupOrder = append(s.groupOrder, g.Name())
	}
	return s
}

// CountSold returns how many tickets have been sold across the ticket types named in names.
// Names that match no ticket type contribute nothing; an empty set is zero. Store errors
// are returned unchanged.
func (s *Service) CountSold(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	ids, err := s.repo.TypeIDsByNames(ctx, names)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.repo.CountByTypeIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// RemainingCapacity is max(0, capacity - sold) for the group. Overselling reports zero.
func (s *Service) RemainingCapacity(ctx context.Context, g domain.TicketCategoryGroup, capacity int) (int, error) {
	sold, err := s.CountSold(ctx, g.Names())
	if err != nil {
		return 0, err
	}
	return remaining(capacity, sold), nil
}

func remaining(capacity, sold int) int {
	return max(0, capacity-sold)
}

// Groups returns the configured groups in declaration order.
func (s *Service) Groups() []domain.TicketCategoryGroup {
	out := make([]domain.TicketCategoryGroup, 0, len(s.groupOrder))
	for _, name := range s.groupOrder {
		out = append(out, s.groups[name])
	}
	return out
}

// Group looks up a configured group by name.
func (s *Service) Group(name string) (domain.TicketCategoryGroup, error) {
	g, ok := s.groups[domain.NormalizeName(name)]
	if !ok {
		return domain.TicketCategoryGroup{}, unknownGroup(name)
	}
	return g, nil
}

// CountGroup is CountSold for a configured group.
func (s *Service) CountGroup(ctx context.Context, name string) (int, error) {
	g, err := s.Group(name)
	if err != nil {
		return 0, err
	}
	return s.CountSold(ctx, g.Names())
}

// RemainingForGroup runs a capacity check for a configured group and reports the
// sold figure it was derived from.
func (s *Service) RemainingForGroup(ctx context.Context, name string, capacity int) (GroupRemaining, error) {
	if capacity < 0 {
		return GroupRemaining{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid capacity",
			Details: map[string]any{"capacity": "must be >= 0"},
		}
	}
	g, err := s.Group(name)
	if err != nil {
		return GroupRemaining{}, err
	}
	sold, err := s.CountSold(ctx, g.Names())
	if err != nil {
		return GroupRemaining{}, err
	}
	return GroupRemaining{
		Group:     g.Name(),
		Capacity:  capacity,
		Sold:      sold,
		Remaining: remaining(capacity, sold),
	}, nil
}

// RegisterCounters binds each counter to reg as a variable backed by this service.
func (s *Service) RegisterCounters(reg *Registry, counters []Counter) error {
	for _, c := range counters {
		g, err := s.Group(c.Group)
		if err != nil {
			return fmt.Errorf("counter %q: %w", c.Name, err)
		}
		var fn IntFunc
		if c.Capacity == nil {
			fn = func(ctx context.Context) (int, error) {
				return s.CountSold(ctx, g.Names())
			}
		} else {
			capacity := *c.Capacity
			fn = func(ctx context.Context) (int, error) {
				return s.RemainingCapacity(ctx, g, capacity)
			}
		}
		if err := reg.Register(c.Name, fn); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot evaluates every variable in reg. The first failure aborts the snapshot.
func (s *Service) Snapshot(ctx context.Context, reg *Registry) (Snapshot, error) {
	names := reg.Names()
	out := Snapshot{
		GeneratedAt: s.clk.Now(),
		Values:      make(map[string]int, len(names)),
	}
	for _, name := range names {
		v, err := reg.Evaluate(ctx, name)
		if err != nil {
			return Snapshot{}, fmt.Errorf("evaluate %s: %w", name, err)
		}
		out.Values[name] = v
	}
	return out, nil
}
