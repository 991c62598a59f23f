/*
Package errs provides custom error types and application-level error code constants.

This file maps error codes to their CustomError template (message and HTTP status).
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many messages. Please wait a moment.", Status: http.StatusTooManyRequests},

	// 2xxx: Profile and Message Errors
	ErrProfileNotFound:   {Code: ErrProfileNotFound, Message: "Profile %q not found.", Status: http.StatusNotFound},
	ErrInvalidRole:       {Code: ErrInvalidRole, Message: "Role must be student or teacher."},
	ErrMessageInvalid:    {Code: ErrMessageInvalid, Message: "Message must be between 1 and %d bytes."},
	ErrNotificationNone:  {Code: ErrNotificationNone, Message: "No notification is visible."},
	ErrSurveyNotRequired: {Code: ErrSurveyNotRequired, Message: "The survey is already completed for today."},

	// 3xxx: Session Errors
	ErrNoActiveSession: {Code: ErrNoActiveSession, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:          {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreUnavailable: {Code: ErrStoreUnavailable, Message: "Local storage is unavailable.", Status: http.StatusServiceUnavailable},
}
