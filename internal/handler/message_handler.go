package handler

import (
	"net/http"
	"strings"

	"portalsync/internal/pkg/errs"
	"portalsync/internal/pkg/logx"
	"portalsync/internal/pkg/req"
	"portalsync/internal/pkg/resp"
)

// SendMessageInput is the body of POST /api/messages.
type SendMessageInput struct {
	To      string `json:"to"`
	Text    string `json:"text"`
	Subject string `json:"subject,omitempty"`
}

// MarkReadInput is the body of POST /api/messages/read. An empty Peer marks the
// whole inbox.
type MarkReadInput struct {
	Peer string `json:"peer,omitempty"`
}

// HandleListMessages returns the current user's messages, sent and received.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs, err := deps.Sessions.Messages()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, msgs)
	}
}

// HandleSendMessage appends a message from the current user, subject to the
// per-sender rate limit.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Sessions.Current()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.To = strings.TrimSpace(input.To)
		if input.To == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !deps.SendLimiter.Allow(p.Name) {
			logx.Warn("Message rejected: send rate exceeded", "user", p.Name)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		msg, err := deps.Sessions.Send(r.Context(), input.To, input.Text, input.Subject)
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, msg)
	}
}

// HandleMarkRead marks the current user's inbox, or one conversation, as read.
func HandleMarkRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input MarkReadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		n, err := deps.Sessions.MarkRead(r.Context(), strings.TrimSpace(input.Peer))
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, map[string]int{"updated": n})
	}
}

// HandleUnreadCount returns the current user's unread total.
func HandleUnreadCount(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Sessions.UnreadCount()
		if err != nil {
			resp.RespondError(w, r, toCustomError(err))
			return
		}
		resp.RespondSuccess(w, r, map[string]int{"count": n})
	}
}
