package domain

import "time"

// TicketType is a named category of purchasable ticket, e.g. "Student (Durban, Early Bird)".
// The catalog is owned by the ticketing store; this service only reads it.
type TicketType struct {
	ID   TicketTypeID
	Name string
}

// Ticket is a sold ticket. It references exactly one TicketType.
type Ticket struct {
	ID      TicketID
	TypeID  TicketTypeID
	Barcode string
	Email   string

	CreatedAt time.Time
}
