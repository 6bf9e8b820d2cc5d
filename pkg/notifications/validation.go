package notifications

import (
	"errors"
	"strings"

	"github.com/dmitrymomot/inbox/pkg/validator"
)

const (
	MaxUserIDLength          = 450
	MaxTitleLength           = 200
	MaxMessageLength         = 500
	MaxRelatedEntityIDLength = 50
	MaxActionURLLength       = 500
)

// Validate checks the content fields. The returned error matches ErrValidation
// and the sentinel of every offending field; validator.ExtractValidationErrors
// returns the per-field details.
func (c Content) Validate() error {
	return invalid(validator.Apply(
		validator.RequiredString("title", c.Title).WithCause(ErrTitleRequired),
		validator.MaxLenString("title", c.Title, MaxTitleLength).WithCause(ErrTitleTooLong),
		validator.RequiredString("message", c.Message).WithCause(ErrMessageRequired),
		validator.MaxLenString("message", c.Message, MaxMessageLength).WithCause(ErrMessageTooLong),
		validator.InList("type", c.Type, Types()).WithCause(ErrInvalidType),
		validator.MaxLenString("related_entity_id", c.RelatedEntityID, MaxRelatedEntityIDLength).WithCause(ErrRelatedEntityIDTooLong),
		validator.MaxLenString("action_url", c.ActionURL, MaxActionURLLength).WithCause(ErrActionURLTooLong),
	))
}

func validateUserID(userID string) error {
	return invalid(validator.Apply(
		validator.RequiredString("user_id", userID).WithCause(ErrUserIDRequired),
		validator.MaxLenString("user_id", userID, MaxUserIDLength).WithCause(ErrUserIDTooLong),
	))
}

func validateRole(role string) error {
	return invalid(validator.Apply(
		validator.RequiredString("role", role).WithCause(ErrRoleRequired),
	))
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrValidation, err)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
