package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  statusError,
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrUnknownEntity = ErrorResponse{
		Status: statusError,
		Error:  "unknown_entity",
	}

	ErrUnknownAction = ErrorResponse{
		Status: statusError,
		Error:  "unknown_action",
	}

	ErrSessionRequired = ErrorResponse{
		Status:  statusError,
		Error:   "session_required",
		Details: "Admin session expired, reload the page",
	}
)

// WithDetails returns a copy of e carrying details; the shared values stay untouched.
func (e ErrorResponse) WithDetails(details string) ErrorResponse {
	e.Details = details
	return e
}
