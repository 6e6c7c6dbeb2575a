package core

import "errors"

var (
	// ErrChatNotFound is returned when the target chat id does not
	// resolve; the pipeline aborts before mutating any state.
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageNotFound is returned when a referenced message id does
	// not resolve.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidID is returned for malformed chat or message ids,
	// distinct from the not-found conditions.
	ErrInvalidID = errors.New("invalid id")
)
