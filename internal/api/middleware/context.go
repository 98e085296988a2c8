package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

func SetSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func GetSessionID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(sessionIDKey).(string)
	return id, ok && id != ""
}
