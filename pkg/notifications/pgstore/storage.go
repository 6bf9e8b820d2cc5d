// Package pgstore stores notifications in PostgreSQL.
package pgstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/inbox/pkg/notifications"
	"github.com/dmitrymomot/inbox/pkg/pg"
)

// DB is the subset of pgxpool.Pool used by Storage; a pgx.Tx works too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage implements notifications.Storage on the schema created by Migrate.
type Storage struct {
	db      DB
	timeout time.Duration
}

// Option configures Storage.
type Option func(*Storage)

// WithQueryTimeout bounds every call. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Storage) { s.timeout = d }
}

func New(db DB, opts ...Option) *Storage {
	s := &Storage{db: db, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const columns = `id, user_id, title, message, type, is_read, created_at, related_entity_id, action_url`

const insertQuery = `
INSERT INTO notifications (user_id, title, message, type, is_read, created_at, related_entity_id, action_url)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
RETURNING id`

func (s *Storage) Insert(ctx context.Context, n notifications.Notification) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id int64
	err := s.db.QueryRow(ctx, insertQuery,
		n.UserID, n.Title, n.Message, string(n.Type), n.IsRead, n.CreatedAt,
		n.RelatedEntityID, n.ActionURL,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Storage) FindByID(ctx context.Context, id int64) (notifications.Notification, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	row := s.db.QueryRow(ctx, `SELECT `+columns+` FROM notifications WHERE id = $1`, id)
	n, err := scan(row)
	if pg.IsNotFoundError(err) {
		return notifications.Notification{}, notifications.ErrNotFound
	}
	return n, err
}

func (s *Storage) ListForUser(ctx context.Context, userID string, limit int) ([]notifications.Notification, error) {
	if limit <= 0 {
		return []notifications.Notification{}, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(ctx, `
SELECT `+columns+` FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]notifications.Notification, 0, min(limit, 32))
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *Storage) CountUnread(ctx context.Context, userID string) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var count int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	return count, err
}

func (s *Storage) MarkRead(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND NOT is_read`, id)
	return err
}

// MarkAllRead runs a single UPDATE, so rows inserted after the statement
// started are left unread.
func (s *Storage) MarkAllRead(ctx context.Context, userID string) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func scan(row pgx.Row) (notifications.Notification, error) {
	var (
		n       notifications.Notification
		typ     string
		related sql.NullString
		action  sql.NullString
	)
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &n.IsRead, &n.CreatedAt, &related, &action)
	if err != nil {
		return notifications.Notification{}, err
	}

	n.Type = notifications.Type(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	n.RelatedEntityID = related.String
	n.ActionURL = action.String
	return n, nil
}

var _ notifications.Storage = (*Storage)(nil)
