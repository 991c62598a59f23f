package handler

import (
	"errors"

	"portalsync/internal/app/chat"
	"portalsync/internal/app/session"
	"portalsync/internal/app/survey"
	"portalsync/internal/app/user"
	"portalsync/internal/pkg/errs"
)

// toCustomError maps engine errors onto bridge error codes. Anything unknown is
// treated as a store failure, the only I/O the engine does.
func toCustomError(err error) *errs.CustomError {
	var customErr *errs.CustomError

	switch {
	case errors.As(err, &customErr):
		return customErr
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, user.ErrNoCurrentUser),
		errors.Is(err, survey.ErrNoUser):
		return errs.NewError(errs.ErrNoActiveSession)
	case errors.Is(err, chat.ErrInvalidMessage):
		return errs.NewError(errs.ErrMessageInvalid, chat.MaxContentBytes)
	case errors.Is(err, user.ErrInvalidProfile):
		return errs.NewError(errs.ErrInvalidParams)
	case errors.Is(err, survey.ErrNotRequired):
		return errs.NewError(errs.ErrSurveyNotRequired)
	default:
		return errs.NewError(errs.ErrStoreUnavailable, err)
	}
}
