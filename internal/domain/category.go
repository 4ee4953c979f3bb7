package domain

import "fmt"

// TicketTypeName formats the catalog name for a tier sold as a given kind,
// e.g. TicketTypeName("Student", "Durban, Early Bird") == "Student (Durban, Early Bird)".
func TicketTypeName(tier, kind string) string {
	return fmt.Sprintf("%s (%s)", NormalizeName(tier), NormalizeName(kind))
}

// TicketCategoryGroup is an immutable set of ticket type names that are counted together.
// The zero value is an empty group.
type TicketCategoryGroup struct {
	name  string
	names []string
}

// NewCategoryGroup builds a group whose membership is every tier sold as every kind.
// Tiers vary slowest, so the names come out grouped by tier.
func NewCategoryGroup(name string, tiers, kinds []string) TicketCategoryGroup {
	combined := make([]string, 0, len(tiers)*len(kinds))
	for _, tier := range tiers {
		for _, kind := range kinds {
			combined = append(combined, TicketTypeName(tier, kind))
		}
	}
	return newGroup(name, combined)
}

// NewExplicitGroup builds a group from a fixed list of ticket type names.
func NewExplicitGroup(name string, names ...string) TicketCategoryGroup {
	return newGroup(name, names)
}

func newGroup(name string, names []string) TicketCategoryGroup {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeName(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return TicketCategoryGroup{name: NormalizeName(name), names: out}
}

// Name is the configured key of the group (e.g. "durban").
func (g TicketCategoryGroup) Name() string { return g.name }

// Names returns a copy of the distinct ticket type names in the group, in first-seen order.
func (g TicketCategoryGroup) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Len is the number of distinct ticket type names.
func (g TicketCategoryGroup) Len() int { return len(g.names) }

// Contains reports whether name (after normalization) is a member of the group.
func (g TicketCategoryGroup) Contains(name string) bool {
	name = NormalizeName(name)
	for _, n := range g.names {
		if n == name {
			return true
		}
	}
	return false
}
