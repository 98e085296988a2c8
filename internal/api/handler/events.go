package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/playbook/internal/api/response"
	"github.com/kiranshivaraju/playbook/internal/store"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

type eventItem struct {
	ID    string               `json:"id"`
	Event models.TrackingEvent `json:"event"`
}

// NewListEventsHandler returns an http.HandlerFunc for GET /api/v1/admin/events.
func NewListEventsHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.EventFilter{
			SessionID: q.Get("session_id"),
			EventType: q.Get("event_type"),
		}

		var err error
		if filter.Page, err = intParam(q.Get("page"), 1); err != nil || filter.Page < 1 {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidQuery, "page must be a positive integer", nil)
			return
		}
		if filter.Limit, err = intParam(q.Get("limit"), 20); err != nil || filter.Limit < 1 {
			response.Error(w, http.StatusBadRequest, response.CodeInvalidQuery, "limit must be a positive integer", nil)
			return
		}
		if filter.Limit > 100 {
			filter.Limit = 100
		}
		if raw := q.Get("since"); raw != "" {
			if filter.Since, err = time.Parse(time.RFC3339, raw); err != nil {
				response.Error(w, http.StatusBadRequest, response.CodeInvalidQuery, "since must be a valid RFC3339 timestamp", nil)
				return
			}
		}

		events, total, err := s.ListEvents(r.Context(), filter)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, response.CodeInternal, "An unexpected error occurred", nil)
			return
		}

		items := make([]eventItem, 0, len(events))
		for _, ev := range events {
			items = append(items, eventItem{ID: ev.ID.String(), Event: *ev})
		}
		response.Collection(w, items, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
