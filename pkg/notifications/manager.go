package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/inbox/pkg/logger"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// Manager creates notifications, answers inbox queries and triggers
// real-time pushes. Persistence is authoritative; pushes are best effort.
type Manager struct {
	storage   Storage
	directory Directory
	deliverer Deliverer
	logger    *slog.Logger
	now       func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager. A nil directory resolves every role to nobody;
// a nil deliverer disables real-time pushes.
func NewManager(storage Storage, directory Directory, deliverer Deliverer, opts ...ManagerOption) *Manager {
	if directory == nil {
		directory = NewStaticDirectory(nil)
	}
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	m := &Manager{
		storage:   storage,
		directory: directory,
		deliverer: deliverer,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateForUser validates and stores a notification for userID, then pushes
// it to the user's live sessions. Push failures are logged, never returned.
func (m *Manager) CreateForUser(ctx context.Context, userID string, c Content) (Notification, error) {
	if err := validateUserID(userID); err != nil {
		return Notification{}, err
	}
	if err := c.Validate(); err != nil {
		return Notification{}, err
	}
	return m.create(ctx, userID, c)
}

func (m *Manager) create(ctx context.Context, userID string, c Content) (Notification, error) {
	n := Notification{
		UserID:          userID,
		Title:           c.Title,
		Message:         c.Message,
		Type:            c.Type,
		RelatedEntityID: c.RelatedEntityID,
		ActionURL:       c.ActionURL,
		// Stores keep microseconds at most.
		CreatedAt: m.now().UTC().Truncate(time.Microsecond),
	}

	id, err := m.storage.Insert(ctx, n)
	if err != nil {
		return Notification{}, errors.Join(ErrPersistence, err)
	}
	n.ID = id

	if err := m.deliverer.Deliver(ctx, userID, n.Push()); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "notification stored but push failed",
			logger.NotificationID(n.ID),
			logger.UserID(userID),
			logger.NotificationType(string(n.Type)),
			logger.Error(err),
		)
	}

	return n, nil
}

// BroadcastFailure records a role member whose notification could not be created.
type BroadcastFailure struct {
	UserID string
	Err    error
}

// BroadcastReport is the outcome of a role broadcast.
type BroadcastReport struct {
	Role    string
	Created []Notification
	Failed  []BroadcastFailure
}

// Err joins the per-member failures, or returns nil when every member got a notification.
func (r BroadcastReport) Err() error {
	return errors.Join(r.errs()...)
}

func (r BroadcastReport) errs() []error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// CreateForRole creates one independent notification for every user currently
// holding role. A failure for one member does not stop the others; the
// returned error is non-nil only for invalid input or a directory failure.
// A blank role or invalid content fails with ErrValidation before the
// directory is consulted, even when the role turns out to have no members.
func (m *Manager) CreateForRole(ctx context.Context, role string, c Content) (BroadcastReport, error) {
	report := BroadcastReport{Role: role}

	if err := validateRole(role); err != nil {
		return report, err
	}
	if err := c.Validate(); err != nil {
		return report, err
	}

	members, err := m.directory.UsersWithRole(ctx, role)
	if err != nil {
		return report, errors.Join(ErrDirectory, err)
	}

	seen := make(map[string]struct{}, len(members))
	for _, userID := range members {
		if _, dup := seen[userID]; dup || isBlank(userID) {
			continue
		}
		seen[userID] = struct{}{}

		var n Notification
		err := validateUserID(userID)
		if err == nil {
			n, err = m.create(ctx, userID, c)
		}
		if err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "broadcast notification failed for member",
				logger.Role(role),
				logger.UserID(userID),
				logger.Error(err),
			)
			report.Failed = append(report.Failed, BroadcastFailure{UserID: userID, Err: err})
			continue
		}
		report.Created = append(report.Created, n)
	}

	m.logger.LogAttrs(ctx, slog.LevelInfo, "role broadcast completed",
		logger.Role(role),
		logger.NotificationType(string(c.Type)),
		logger.Count(len(report.Created)),
		slog.Int("failed", len(report.Failed)),
		logger.Errors(report.errs()...),
	)

	return report, nil
}

// CreateForAdmins broadcasts to every member of RoleAdmin.
func (m *Manager) CreateForAdmins(ctx context.Context, c Content) (BroadcastReport, error) {
	return m.CreateForRole(ctx, RoleAdmin, c)
}

// UnreadCount returns the number of unread notifications; 0 for a blank user.
func (m *Manager) UnreadCount(ctx context.Context, userID string) (int, error) {
	if isBlank(userID) {
		return 0, nil
	}
	n, err := m.storage.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.Join(ErrPersistence, err)
	}
	return n, nil
}

// RecentForUser returns the newest notifications of userID.
// A non-positive limit means DefaultRecentLimit; limits above MaxRecentLimit are capped.
func (m *Manager) RecentForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if isBlank(userID) {
		return []Notification{}, nil
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	list, err := m.storage.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Join(ErrPersistence, err)
	}
	if list == nil {
		list = []Notification{}
	}
	return list, nil
}

// Get returns a notification by ID, or an error matching ErrNotFound.
func (m *Manager) Get(ctx context.Context, id int64) (Notification, error) {
	n, err := m.storage.FindByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return Notification{}, ErrNotFound
	case err != nil:
		return Notification{}, errors.Join(ErrPersistence, err)
	}
	return n, nil
}

// MarkRead marks a notification as read. Unknown ids are ignored.
func (m *Manager) MarkRead(ctx context.Context, id int64) error {
	if err := m.storage.MarkRead(ctx, id); err != nil {
		return errors.Join(ErrPersistence, err)
	}
	return nil
}

// MarkReadForUser marks a notification as read only when it belongs to userID.
// Anything else is a silent no-op so callers cannot discover foreign ids.
func (m *Manager) MarkReadForUser(ctx context.Context, userID string, id int64) error {
	if isBlank(userID) {
		return nil
	}

	n, err := m.storage.FindByID(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return errors.Join(ErrPersistence, err)
	case n.UserID != userID, n.IsRead:
		return nil
	}

	return m.MarkRead(ctx, id)
}

// MarkAllRead marks every unread notification of userID and reports how many changed.
func (m *Manager) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if isBlank(userID) {
		return 0, nil
	}
	n, err := m.storage.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, errors.Join(ErrPersistence, err)
	}
	return n, nil
}
