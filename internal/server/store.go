package server

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// Store is everything the HTTP layer needs from durable storage: the engine's
// player/invite contract plus the group gate and the admin surface.
type Store interface {
	SetGroupThreshold(ctx context.Context, groupID int64, threshold int) error
	GroupThreshold(ctx context.Context, groupID int64) (int, error)

	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (sessionID string, err error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
	EnsureAdmin(ctx context.Context, email, passwordHash string) error
}
