package notifications

import (
	"context"
	"slices"
	"sync"
)

// RoleAdmin is the role whose members receive admin broadcasts.
const RoleAdmin = "Admin"

// Directory resolves the users currently holding a role.
// An empty result is valid and means nobody holds the role.
type Directory interface {
	UsersWithRole(ctx context.Context, role string) ([]string, error)
}

// DirectoryFunc adapts a function to Directory.
type DirectoryFunc func(ctx context.Context, role string) ([]string, error)

func (f DirectoryFunc) UsersWithRole(ctx context.Context, role string) ([]string, error) {
	return f(ctx, role)
}

// StaticDirectory is an in-memory role to users map.
type StaticDirectory struct {
	mu    sync.RWMutex
	roles map[string][]string
}

// NewStaticDirectory copies roles into a new directory. Nil is allowed.
func NewStaticDirectory(roles map[string][]string) *StaticDirectory {
	d := &StaticDirectory{roles: make(map[string][]string, len(roles))}
	for role, users := range roles {
		for _, u := range users {
			d.Assign(role, u)
		}
	}
	return d
}

// Assign grants role to userID. Assigning twice is a no-op.
func (d *StaticDirectory) Assign(role, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !slices.Contains(d.roles[role], userID) {
		d.roles[role] = append(d.roles[role], userID)
	}
}

// Revoke removes role from userID.
func (d *StaticDirectory) Revoke(role, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	users := slices.DeleteFunc(d.roles[role], func(u string) bool { return u == userID })
	if len(users) == 0 {
		delete(d.roles, role)
		return
	}
	d.roles[role] = users
}

func (d *StaticDirectory) UsersWithRole(_ context.Context, role string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.roles[role]), nil
}
