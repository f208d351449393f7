package middleware

import (
	"context"
	"slices"

	"github.com/heartmarshall/memorycare-backend/internal/domain"
	"github.com/heartmarshall/memorycare-backend/pkg/ctxutil"
)

// RequireRole returns domain.ErrUnauthorized for anonymous callers and
// domain.ErrForbidden when the caller's role is not one of roles.
// Administrators always pass. Use in REST handlers, not as HTTP middleware.
func RequireRole(ctx context.Context, roles ...domain.Role) error {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	role, ok := ctxutil.RoleFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if role.IsAdmin() || slices.Contains(roles, role) {
		return nil
	}
	return domain.ErrForbidden
}

// RequireAdmin returns domain.ErrForbidden if the context user is not admin.
func RequireAdmin(ctx context.Context) error {
	if _, ok := ctxutil.UserIDFromCtx(ctx); !ok {
		return domain.ErrUnauthorized
	}
	if !ctxutil.IsAdminCtx(ctx) {
		return domain.ErrForbidden
	}
	return nil
}
