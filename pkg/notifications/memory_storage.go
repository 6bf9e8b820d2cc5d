package notifications

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage is an in-memory Storage. Suitable for development and tests.
type MemoryStorage struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*Notification
	byUser map[string][]*Notification // insertion order
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID:   make(map[int64]*Notification),
		byUser: make(map[string][]*Notification),
	}
}

func (s *MemoryStorage) Insert(ctx context.Context, n Notification) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n.ID = s.nextID

	stored := n
	s.byID[n.ID] = &stored
	s.byUser[n.UserID] = append(s.byUser[n.UserID], &stored)

	return n.ID, nil
}

func (s *MemoryStorage) FindByID(ctx context.Context, id int64) (Notification, error) {
	if err := ctx.Err(); err != nil {
		return Notification{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return Notification{}, ErrNotFound
	}
	return *n, nil
}

func (s *MemoryStorage) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Notification{}, nil
	}

	s.mu.RLock()
	list := make([]Notification, 0, len(s.byUser[userID]))
	for _, n := range s.byUser[userID] {
		list = append(list, *n)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, compareNewestFirst)
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.byUser[userID] {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.byID[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (s *MemoryStorage) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, n := range s.byUser[userID] {
		if !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

// compareNewestFirst orders by CreatedAt descending, then ID descending.
func compareNewestFirst(a, b Notification) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	}
	return 0
}
