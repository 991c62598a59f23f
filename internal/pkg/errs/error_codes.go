/*
Package errs provides custom error types and application-level error code constants.

These codes identify bridge-facing failures both inside the engine and in the
JSON responses the local UI receives.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained data after the JSON value.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the sender has exceeded the allowed message rate.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Profile and Message Errors
const (
	// ErrProfileNotFound indicates that no stored profile matches the requested name.
	ErrProfileNotFound = 2101

	// ErrInvalidRole indicates a role other than student or teacher.
	ErrInvalidRole = 2102

	// ErrMessageInvalid indicates an empty or oversized message body.
	ErrMessageInvalid = 2201

	// ErrNotificationNone indicates that no notification is currently visible.
	ErrNotificationNone = 2301

	// ErrSurveyNotRequired indicates a survey completion without an armed gate.
	ErrSurveyNotRequired = 2401
)

// 3xxx: Session Errors
const (
	// ErrNoActiveSession indicates that the operation needs a logged-in user.
	ErrNoActiveSession = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates the durable store rejected a read or write.
	ErrStoreUnavailable = 5001
)
