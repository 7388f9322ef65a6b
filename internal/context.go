package internal

import "context"

type ctxKey string

const ContextUserKey ctxKey = "userID"

// UserIDFromContext returns the authenticated principal set by the auth middleware.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	if ctx == nil {
		return 0, false
	}
	userID, ok := ctx.Value(ContextUserKey).(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ContextUserKey, userID)
}
