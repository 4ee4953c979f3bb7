package tickets

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func unknownGroup(name string) *Error {
	return &Error{
		Status:  404,
		Code:    "UNKNOWN_TICKET_GROUP",
		Message: "ticket group not found",
		Details: map[string]any{"group": name},
	}
}

func unknownVariable(name string) *Error {
	return &Error{
		Status:  404,
		Code:    "UNKNOWN_VARIABLE",
		Message: "variable not found",
		Details: map[string]any{"name": name},
	}
}
