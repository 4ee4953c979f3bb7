package ticketrepo

import "errors"

var (
	// ErrTypeAlreadyExists indicates a ticket type with the same ID or name exists.
	ErrTypeAlreadyExists = errors.New("ticket type already exists")

	// ErrTicketAlreadyExists indicates a ticket with the same ID or barcode exists.
	ErrTicketAlreadyExists = errors.New("ticket already exists")

	// ErrTypeNotFound indicates a ticket references a type that does not exist.
	ErrTypeNotFound = errors.New("ticket type not found")
)
