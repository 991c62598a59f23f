package handler

import (
	"net/http"

	"portalsync/internal/pkg/errs"
	"portalsync/internal/pkg/req"
	"portalsync/internal/pkg/resp"
)

// SurveyInput is the body of POST /api/survey.
type SurveyInput struct {
	Emotion string `json:"emotion"`
}

// HandleGetSurvey reports whether the daily survey must be shown.
func HandleGetSurvey(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mustShow, err := deps.Sessions.SurveyRequired()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, map[string]bool{"mustShow": mustShow})
	}
}

// HandleCompleteSurvey records today's answer and releases the gate.
func HandleCompleteSurvey(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input SurveyInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Sessions.CompleteSurvey(r.Context(), input.Emotion); err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, map[string]bool{"mustShow": false})
	}
}

// HandleGetNotification returns the visible notification, or null.
func HandleGetNotification(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, ok, err := deps.Sessions.Notification()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}

		data := map[string]any{"notification": nil}
		if ok {
			data["notification"] = n
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleDismissNotification hides the visible notification early.
func HandleDismissNotification(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := deps.Sessions.DismissNotification()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, map[string]bool{"dismissed": ok})
	}
}

// HandleClickNotification hides the visible notification and tells the UI where
// to navigate.
func HandleClickNotification(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route, ok, err := deps.Sessions.ClickNotification()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotificationNone))
			return
		}
		resp.RespondSuccess(w, r, map[string]string{"route": string(route)})
	}
}
