package main

import (
	"strings"

	"github.com/dmitrymomot/inbox/pkg/environment"
	"github.com/dmitrymomot/inbox/pkg/notifications"
)

// Config is the inboxd process configuration. Infrastructure settings
// (HTTP_*, PG_*, MONGODB_*, REDIS_*) are loaded by their own packages.
type Config struct {
	Env         string `env:"APP_ENV" envDefault:"production"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"inboxd"`

	// Storage selects the notification store: memory, postgres or mongo.
	Storage string `env:"INBOX_STORAGE" envDefault:"memory"`

	// RedisRelay fans pushes out to every instance through Redis pub/sub.
	RedisRelay  bool   `env:"INBOX_REDIS_RELAY" envDefault:"false"`
	RedisPrefix string `env:"INBOX_REDIS_PREFIX" envDefault:"inbox:push:"`

	// Roles seeds the role directory, e.g. "Admin=u1,u2;Employer=e1".
	Roles map[string]string `env:"INBOX_ROLES" envSeparator:";" envKeyValSeparator:"="`
	// RolesFile points to a YAML role file; it replaces INBOX_ROLES when set.
	RolesFile string `env:"INBOX_ROLES_FILE"`

	IdentityHeader string `env:"INBOX_IDENTITY_HEADER" envDefault:"X-User-ID"`
	// InternalToken protects the ingestion API. Without it the API is only
	// mounted in development.
	InternalToken string `env:"INBOX_INTERNAL_TOKEN"`

	PushBuffer  int `env:"INBOX_PUSH_BUFFER" envDefault:"16"`
	PushWorkers int `env:"INBOX_PUSH_WORKERS" envDefault:"4"`
	PushQueue   int `env:"INBOX_PUSH_QUEUE" envDefault:"1024"`

	// Per-minute limits; zero disables limiting.
	IngestRate    int `env:"INBOX_INGEST_RATE" envDefault:"600"`
	WSConnectRate int `env:"INBOX_WS_CONNECT_RATE" envDefault:"30"`
}

// roleMembers splits the comma separated member lists of Roles.
func (c Config) roleMembers() map[string][]string {
	roles := make(map[string][]string, len(c.Roles))
	for role, list := range c.Roles {
		role = strings.TrimSpace(role)
		for _, u := range strings.Split(list, ",") {
			if u = strings.TrimSpace(u); u != "" {
				roles[role] = append(roles[role], u)
			}
		}
	}
	return roles
}

func (c Config) directory() (*notifications.StaticDirectory, error) {
	if c.RolesFile != "" {
		return notifications.LoadDirectoryFile(c.RolesFile)
	}
	return notifications.NewStaticDirectory(c.roleMembers()), nil
}

// ingestEnabled reports whether the ingestion API may be mounted.
func (c Config) ingestEnabled() bool {
	return c.InternalToken != "" || environment.Parse(c.Env) == environment.Development
}
