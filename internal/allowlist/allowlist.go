package allowlist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// ErrMalformed is wrapped when the persisted record is not a list of sender IDs.
var ErrMalformed = errors.New("allow-list is not a list of sender ids")

// StorageError reports that the durable allow-list could not be read or written.
// Callers must treat the sender as not authorized when they get one.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("allow-list %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Backend is the durable record holding the allow-list.
// Load returns an empty list when nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) ([]model.SenderID, error)
	Save(ctx context.Context, senders []model.SenderID) error
}

// Updater is implemented by backends that can run a read-modify-write atomically
// across processes. fn returns the new list and whether it changed.
type Updater interface {
	Update(ctx context.Context, fn func([]model.SenderID) ([]model.SenderID, bool)) error
}

// Store answers authorization checks against a Backend. There is no cache: every
// call goes to storage, which stays the single source of truth.
type Store struct {
	backend Backend
	mu      sync.Mutex
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) IsAuthorized(ctx context.Context, sender model.SenderID) (bool, error) {
	senders, err := s.backend.Load(ctx)
	if err != nil {
		return false, wrap("load", err)
	}
	return slices.Contains(senders, sender), nil
}

// Authorize adds sender to the allow-list. Adding a sender that is already present
// leaves the record untouched.
func (s *Store) Authorize(ctx context.Context, sender model.SenderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if updater, ok := s.backend.(Updater); ok {
		if err := updater.Update(ctx, func(senders []model.SenderID) ([]model.SenderID, bool) {
			return appendSender(senders, sender)
		}); err != nil {
			return wrap("update", err)
		}
		return nil
	}

	senders, err := s.backend.Load(ctx)
	if err != nil {
		return wrap("load", err)
	}

	updated, changed := appendSender(senders, sender)
	if !changed {
		return nil
	}

	if err := s.backend.Save(ctx, updated); err != nil {
		return wrap("save", err)
	}
	return nil
}

// List returns the persisted senders in storage order.
func (s *Store) List(ctx context.Context) ([]model.SenderID, error) {
	senders, err := s.backend.Load(ctx)
	if err != nil {
		return nil, wrap("load", err)
	}
	return senders, nil
}

func appendSender(senders []model.SenderID, sender model.SenderID) ([]model.SenderID, bool) {
	if slices.Contains(senders, sender) {
		return senders, false
	}
	return append(slices.Clone(senders), sender), true
}

func wrap(op string, err error) error {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
