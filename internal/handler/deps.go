package handler

import (
	"portalsync/internal/app/session"
	"portalsync/internal/app/user"
	"portalsync/internal/configs"
	"portalsync/internal/pkg/limiter"
)

// AppDeps holds everything the bridge handlers need.
type AppDeps struct {
	Config   *configs.AppConfig
	Sessions *session.Manager
	Profiles *user.Repository

	// SendLimiter is keyed by sender name.
	SendLimiter *limiter.KeyedLimiter

	// ConnectLimiter is keyed by client address and guards /ws upgrades.
	ConnectLimiter *limiter.KeyedLimiter
}
