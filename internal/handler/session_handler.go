/*
Package handler provides the HTTP handlers of the local UI bridge.

This file covers the session lifecycle: login with a profile produced by the
UI's own sign-in flow, logout, and the current session state.
*/
package handler

import (
	"net/http"
	"strings"

	"portalsync/internal/app/user"
	"portalsync/internal/pkg/errs"
	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/req"
	"portalsync/internal/pkg/resp"
)

// LoginInput is the profile handed over by the sign-in screen.
type LoginInput struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
	Avatar   string `json:"avatar"`
	Course   string `json:"course"`
	Role     string `json:"role"`
	Subject  string `json:"subject,omitempty"`
}

// sessionState is returned by login and by GET /api/session.
type sessionState struct {
	User           user.Profile `json:"user"`
	Unread         int          `json:"unread"`
	SurveyRequired bool         `json:"surveyRequired"`
}

func currentState(deps *AppDeps) (sessionState, error) {
	p, err := deps.Sessions.Current()
	if err != nil {
		return sessionState{}, err
	}
	unread, err := deps.Sessions.UnreadCount()
	if err != nil {
		return sessionState{}, err
	}
	mustShow, err := deps.Sessions.SurveyRequired()
	if err != nil {
		return sessionState{}, err
	}

	return sessionState{User: publicProfile(p), Unread: unread, SurveyRequired: mustShow}, nil
}

// publicProfile strips what the UI must not see. The password never leaves the engine.
func publicProfile(p user.Profile) user.Profile {
	p.Password = ""
	return p
}

// HandleLogin starts a session. A stored profile with the same name wins over the
// submitted fields so stars, badges and streaks carry over between visits.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Name = strings.TrimSpace(input.Name)
		if input.Name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		role := user.Role(strings.ToLower(strings.TrimSpace(input.Role)))
		if !role.Valid() {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidRole))
			return
		}

		profile, found := deps.Profiles.Load(r.Context(), input.Name)
		if !found {
			profile = user.Profile{
				Name:     input.Name,
				Password: input.Password,
				Avatar:   input.Avatar,
				Course:   input.Course,
				Role:     role,
				Subject:  input.Subject,
			}
		}

		if err := deps.Sessions.Login(r.Context(), profile); err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}

		state, err := currentState(deps)
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}

		logx.Info("Bridge login", "user", profile.Name, "returning", found)
		resp.RespondSuccess(w, r, state)
	}
}

// HandleLogout ends the session. Logging out twice is not an error.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Sessions.Logout(r.Context()); err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleGetSession returns the current session state.
func HandleGetSession(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := currentState(deps)
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, state)
	}
}
