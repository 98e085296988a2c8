package cache

import (
	"fmt"
)

func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func RateLimitKey(clientKey string) string {
	return fmt.Sprintf("ratelimit:%s", clientKey)
}

func InFlightKey(sessionID string) string {
	return fmt.Sprintf("inflight:%s", sessionID)
}
