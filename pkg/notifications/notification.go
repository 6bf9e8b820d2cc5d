package notifications

import (
	"strings"
	"time"
)

// Type classifies a notification. It is persisted by name.
type Type string

const (
	// Admin-facing.
	TypeNewUser        Type = "NewUser"
	TypeNewJobPost     Type = "NewJobPost"
	TypeNewApplication Type = "NewApplication"

	// Employer-facing.
	TypeJobApplicationReceived Type = "JobApplicationReceived"
	TypeApplicationWithdrawn   Type = "ApplicationWithdrawn"

	// Job-seeker-facing.
	TypeNewJobPosted             Type = "NewJobPosted"
	TypeApplicationStatusChanged Type = "ApplicationStatusChanged"
	TypeApplicationAccepted      Type = "ApplicationAccepted"
	TypeApplicationRejected      Type = "ApplicationRejected"
)

// Audience is the kind of user a notification type is meant for.
// It is descriptive only; routing is always decided by the caller.
type Audience string

const (
	AudienceUnknown   Audience = ""
	AudienceAdmin     Audience = "admin"
	AudienceEmployer  Audience = "employer"
	AudienceJobSeeker Audience = "job_seeker"
)

var typeAudience = map[Type]Audience{
	TypeNewUser:                  AudienceAdmin,
	TypeNewJobPost:               AudienceAdmin,
	TypeNewApplication:           AudienceAdmin,
	TypeJobApplicationReceived:   AudienceEmployer,
	TypeApplicationWithdrawn:     AudienceEmployer,
	TypeNewJobPosted:             AudienceJobSeeker,
	TypeApplicationStatusChanged: AudienceJobSeeker,
	TypeApplicationAccepted:      AudienceJobSeeker,
	TypeApplicationRejected:      AudienceJobSeeker,
}

// Types returns every known notification type.
func Types() []Type {
	return []Type{
		TypeNewUser, TypeNewJobPost, TypeNewApplication,
		TypeJobApplicationReceived, TypeApplicationWithdrawn,
		TypeNewJobPosted, TypeApplicationStatusChanged, TypeApplicationAccepted, TypeApplicationRejected,
	}
}

// Valid reports whether t is one of the enumerated types.
func (t Type) Valid() bool {
	_, ok := typeAudience[t]
	return ok
}

// Audience returns who the type is addressed to, or AudienceUnknown.
func (t Type) Audience() Audience {
	return typeAudience[t]
}

func (t Type) String() string { return string(t) }

// ParseType resolves a type name case-insensitively.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	for t := range typeAudience {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", ErrInvalidType
}

// Notification is a persisted message addressed to exactly one user.
// Only IsRead changes after creation, and only from false to true.
type Notification struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Type            Type      `json:"type"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
	RelatedEntityID string    `json:"related_entity_id,omitempty"`
	ActionURL       string    `json:"action_url,omitempty"`
}

// Content is the caller-supplied part of a notification.
type Content struct {
	Title           string
	Message         string
	Type            Type
	RelatedEntityID string
	ActionURL       string
}

// Push is the payload sent to connected sessions when a notification is created.
type Push struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	ActionURL string    `json:"action_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	IsRead    bool      `json:"is_read"`
}

// Push builds the real-time payload for n.
func (n Notification) Push() Push {
	return Push{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
		IsRead:    n.IsRead,
	}
}
