package analytics

import (
	"context"
	"fmt"

	"github.com/kiranshivaraju/playbook/pkg/models"
)

// EventWriter persists tracking events. Satisfied by store.Store.
type EventWriter interface {
	InsertEvent(ctx context.Context, ev *models.TrackingEvent) error
}

// StoreSink archives events to the database.
type StoreSink struct {
	w EventWriter
}

func NewStoreSink(w EventWriter) *StoreSink {
	return &StoreSink{w: w}
}

func (s *StoreSink) Name() string { return "archive" }

func (s *StoreSink) Send(ctx context.Context, ev models.TrackingEvent) error {
	if err := s.w.InsertEvent(ctx, &ev); err != nil {
		return fmt.Errorf("archiving event: %w", err)
	}
	return nil
}
