package notifications

import "errors"

var (
	// ErrValidation is joined with one of the field errors below when input is rejected.
	ErrValidation = errors.New("notification validation failed")

	ErrUserIDRequired         = errors.New("user id is required")
	ErrUserIDTooLong          = errors.New("user id is too long")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleTooLong           = errors.New("title is too long")
	ErrMessageRequired        = errors.New("message is required")
	ErrMessageTooLong         = errors.New("message is too long")
	ErrInvalidType            = errors.New("unknown notification type")
	ErrRelatedEntityIDTooLong = errors.New("related entity id is too long")
	ErrActionURLTooLong       = errors.New("action url is too long")
	ErrRoleRequired           = errors.New("role is required")

	// ErrPersistence wraps failures reported by a Storage.
	ErrPersistence = errors.New("notification storage failed")
	// ErrNotFound is returned by Storage.FindByID for unknown ids.
	ErrNotFound = errors.New("notification not found")
	// ErrDirectory wraps failures reported by a Directory.
	ErrDirectory = errors.New("role directory lookup failed")

	// ErrDeliveryQueueFull is returned by AsyncDeliverer when its queue has no room.
	ErrDeliveryQueueFull = errors.New("delivery queue is full")
	// ErrDelivererClosed is returned by deliverers after Close.
	ErrDelivererClosed = errors.New("deliverer is closed")
)
