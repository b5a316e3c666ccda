package middleware

import (
	"context"

	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/request"
)

// SetUserInContext sets user in ctx the way Auth does. Exported so handler tests can use it.
func SetUserInContext(ctx context.Context, user *models.User) context.Context {
	return request.WithUser(ctx, user)
}
