package domain

// TicketTypeID is an opaque identifier for a ticket type in the ticketing store.
type TicketTypeID string

// TicketID is an opaque identifier for a sold ticket.
type TicketID string
