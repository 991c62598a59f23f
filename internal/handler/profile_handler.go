package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"portalsync/internal/app/user"
	"portalsync/internal/pkg/errs"
	"portalsync/internal/pkg/req"
	"portalsync/internal/pkg/resp"
)

// HandleGetProfile returns the current user's profile.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Sessions.Current()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, publicProfile(p))
	}
}

// HandleUpdateProfile merges a partial profile into the current one. Fields the
// body omits are left as they are.
func HandleUpdateProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input user.Update
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.IsEmpty() {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		p, err := deps.Sessions.UpdateProfile(r.Context(), input)
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, publicProfile(p))
	}
}

// HandleGetStoredProfile looks up any stored profile by name, case-insensitively.
func HandleGetStoredProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		p, ok := deps.Profiles.Load(r.Context(), name)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrProfileNotFound, name))
			return
		}

		resp.RespondSuccess(w, r, publicProfile(p))
	}
}
