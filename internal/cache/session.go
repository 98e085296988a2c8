package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kiranshivaraju/playbook/pkg/models"
)

// SessionTTL bounds how long captured session details are kept.
const SessionTTL = 24 * time.Hour

// PutSession stores the session's captured details under its ID.
func PutSession(ctx context.Context, c Cache, s models.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return c.Set(ctx, SessionKey(s.ID), b, SessionTTL)
}

// LoadSession returns the stored session for id. found is false on a miss.
func LoadSession(ctx context.Context, c Cache, id string) (models.Session, bool, error) {
	b, found, err := c.Get(ctx, SessionKey(id))
	if err != nil || !found {
		return models.Session{}, false, err
	}
	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return models.Session{}, false, fmt.Errorf("decoding session: %w", err)
	}
	return s, true, nil
}
