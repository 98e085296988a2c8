package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/playbook/pkg/models"
)

const eventColumns = `id, session_id, event_type, email, url, page_url, user_agent, extra, created_at`

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Tracking Events ---

func (s *PostgresStore) InsertEvent(ctx context.Context, ev *models.TrackingEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tracking_events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.ID, ev.SessionID, ev.EventType, ev.Email, ev.URL, ev.PageURL, ev.UserAgent, ev.Extra, ev.Timestamp)
	if isDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("insert tracking event: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.TrackingEvent, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM tracking_events WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tracking event: %w", err)
	}
	return ev, nil
}

func (s *PostgresStore) ListEvents(ctx context.Context, filter EventFilter) ([]*models.TrackingEvent, int, error) {
	// Build WHERE clause dynamically
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if filter.SessionID != "" {
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", argIdx))
		args = append(args, filter.SessionID)
		argIdx++
	}
	if filter.EventType != "" {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", argIdx))
		args = append(args, filter.EventType)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tracking_events WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tracking events: %w", err)
	}

	// Normalize pagination
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM tracking_events WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		eventColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tracking events: %w", err)
	}
	defer rows.Close()

	var events []*models.TrackingEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tracking event: %w", err)
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

func scanEvent(row pgx.Row) (*models.TrackingEvent, error) {
	var ev models.TrackingEvent
	if err := row.Scan(&ev.ID, &ev.SessionID, &ev.EventType, &ev.Email, &ev.URL,
		&ev.PageURL, &ev.UserAgent, &ev.Extra, &ev.Timestamp); err != nil {
		return nil, err
	}
	ev.Timestamp = ev.Timestamp.UTC()
	return &ev, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
