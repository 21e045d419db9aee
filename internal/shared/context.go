package shared

import "context"

type userIDContextKey struct{}

// ContextWithUserID stores the authenticated user id in context. The id is
// supplied by the auth gateway in front of this service.
func ContextWithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDContextKey{}, id)
}

// UserIDFromContext extracts the authenticated user id, or "" when absent.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey{}).(string)
	return id
}
