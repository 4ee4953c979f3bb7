// Package fixtures seeds a ticket store from a YAML description of the catalog
// and how many tickets of each type have been sold.
//
//	ticket_types:
//	  - name: "Student (Durban)"
//	    sold: 12
//	  - name: "Corporate (Online, Early Bird)"
//	    sold: 3
package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pyconza/pyconza-site/internal/domain"
	clockport "github.com/pyconza/pyconza-site/internal/ports/out/clock"
	"github.com/pyconza/pyconza-site/internal/ports/out/ticketrepo"
)

// TicketTypeFixture describes one catalog entry and its sales.
type TicketTypeFixture struct {
	Name string `yaml:"name"`
	Sold int    `yaml:"sold"`
}

// Fixtures is the top-level document.
type Fixtures struct {
	TicketTypes []TicketTypeFixture `yaml:"ticket_types"`
}

// LoadFile reads and parses a fixtures file.
func LoadFile(path string) (Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("open fixtures: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes fixtures and validates them. An empty document is valid.
func Parse(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return Fixtures{}, fmt.Errorf("decode fixtures: %w", err)
	}
	for i, tt := range fx.TicketTypes {
		if domain.NormalizeName(tt.Name) == "" {
			return Fixtures{}, fmt.Errorf("ticket_types[%d]: name must be non-empty", i)
		}
		if tt.Sold < 0 {
			return Fixtures{}, fmt.Errorf("ticket_types[%d] (%s): sold must be >= 0", i, tt.Name)
		}
	}
	return fx, nil
}

// Seed creates every ticket type and the given number of sold tickets for it.
// It returns the total number of tickets created.
func Seed(ctx context.Context, repo ticketrepo.Repository, clk clockport.Clock, fx Fixtures) (int, error) {
	created := 0
	for _, tt := range fx.TicketTypes {
		typeID := domain.TicketTypeID(uuid.NewString())
		if err := repo.CreateType(ctx, domain.TicketType{ID: typeID, Name: tt.Name}); err != nil {
			return created, fmt.Errorf("create ticket type %q: %w", tt.Name, err)
		}
		for i := 0; i < tt.Sold; i++ {
			id := uuid.New()
			if err := repo.CreateTicket(ctx, domain.Ticket{
				ID:        domain.TicketID(id.String()),
				TypeID:    typeID,
				Barcode:   fmt.Sprintf("FX-%X", id[:8]),
				CreatedAt: clk.Now(),
			}); err != nil {
				return created, fmt.Errorf("create ticket for %q: %w", tt.Name, err)
			}
			created++
		}
	}
	return created, nil
}
