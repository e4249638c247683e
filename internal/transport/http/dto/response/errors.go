package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrUserAlreadyExists = ErrorResponse{
		Status:  "error",
		Error:   "user_already_exists",
		Details: "User with this email already exists",
	}

	ErrWidgetNotFound = ErrorResponse{
		Status:  "error",
		Error:   "widget_not_found",
		Details: "Widget does not exist or is not accessible",
	}

	ErrPermissionDenied = ErrorResponse{
		Status:  "error",
		Error:   "permission_denied",
		Details: "Insufficient role for this operation",
	}

	ErrInternal = ErrorResponse{
		Status:  "error",
		Error:   "internal_error",
		Details: "Internal server error",
	}
)
