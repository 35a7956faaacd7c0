package service

import "errors"

// Sentinel errors surfaced to handlers. Side-effect failures never use these;
// they are logged and swallowed by the dispatcher.
var (
	ErrUnsupportedKind   = errors.New("unsupported content kind")
	ErrContentNotFound   = errors.New("content not found")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrCommentsDisabled  = errors.New("content kind does not support comments")
	ErrForbidden         = errors.New("forbidden")
	ErrEmptyBody         = errors.New("comment body is empty")
	ErrOwnComment        = errors.New("cannot report your own comment")
	ErrAlreadyReported   = errors.New("already reported")
	ErrInvalidSort       = errors.New("invalid sort order")
	ErrInvalidReaction   = errors.New("invalid reaction type")
	ErrMissingContentIDs = errors.New("content ids are required")
)
