package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	InsertEvent(ctx context.Context, ev *models.TrackingEvent) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*models.TrackingEvent, int, error)
}

type EventFilter struct {
	SessionID string
	EventType string
	Since     time.Time
	Page      int
	Limit     int
}
