package session

import (
	"context"
	"errors"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrResultNotFound = errors.New("result not found")
)

// Store is the durable state layout: one optional active-session slot plus an
// append-only list of finished results, user-clearable in bulk.
type Store interface {
	LoadSession(ctx context.Context) (*Session, error)
	SaveSession(ctx context.Context, s *Session) error
	ClearSession(ctx context.Context) error

	AppendResult(ctx context.Context, r *Result) error
	GetResult(ctx context.Context, id string) (*Result, error)
	ListResults(ctx context.Context) ([]*Result, error)
	ClearResults(ctx context.Context) error
}
