package utils

import "context"

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserEmailKey contextKey = "email"
	UserTypeKey  contextKey = "user_type"
)

// SetUserContext stores the authenticated principal (called by middleware).
func SetUserContext(ctx context.Context, id int64, email, userType string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, id)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserTypeKey, userType)
	return ctx
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func GetUserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func GetUserTypeFromContext(ctx context.Context) string {
	t, _ := ctx.Value(UserTypeKey).(string)
	return t
}
