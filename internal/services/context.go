package services

import (
	"context"

	"github.com/localnerve/amo-catalog/internal/models"
)

type userKey struct{}

// WithUser returns a context carrying the user acting on the request.
func WithUser(ctx context.Context, user *models.UserProfile) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the acting user, or nil for anonymous calls.
func UserFromContext(ctx context.Context) *models.UserProfile {
	user, _ := ctx.Value(userKey{}).(*models.UserProfile)
	return user
}

func userIDFromContext(ctx context.Context) *uint64 {
	if user := UserFromContext(ctx); user != nil && user.ID != 0 {
		id := user.ID
		return &id
	}
	return nil
}
