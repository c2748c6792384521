package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/purchase-guardian/internal/model"
)

var (
	// ErrNotFound is returned for unknown usernames and purchase ids.
	ErrNotFound = errors.New("not found")
	// ErrUserExists is returned when creating a user whose name is taken.
	ErrUserExists = errors.New("user already exists")
)

// ValidationError rejects bad input before any mutation happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a durable-write failure. The in-memory state keeps
// the attempted change so the caller may retry the operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// UserRepository owns durable storage of users and their purchases.
//
// Update calls take partial documents with shallow-merge semantics: a
// top-level field is replaced unless both old and new values are objects,
// in which case they merge key by key, one level deep. Reads return deep
// copies that are safe to mutate.
type UserRepository interface {
	CreateUser(ctx context.Context, name string) (*model.User, error)
	// Login fetches the user, creating the record on first sight, and
	// touches last_login.
	Login(ctx context.Context, name string) (*model.User, error)
	GetUser(ctx context.Context, name string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, name string, fields map[string]any) (*model.User, error)
	AddPurchase(ctx context.Context, name string, p *model.Purchase) (*model.Purchase, error)
	UpdatePurchase(ctx context.Context, name, id string, fields map[string]any) (*model.Purchase, error)
	MarkPurchased(ctx context.Context, name, id string) error
	DeletePurchase(ctx context.Context, name, id string) error
	GetPurchase(ctx context.Context, name, id string) (*model.Purchase, error)
}
