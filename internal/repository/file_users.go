package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/purchase-guardian/internal/model"
)

// FileUserRepository stores all users in a single JSON file. Every entry
// point takes the mutex, so read-modify-persist sequences are atomic with
// respect to the background pollers sharing the repository.
type FileUserRepository struct {
	path string
	log  *zap.Logger
	now  func() time.Time

	mu    sync.Mutex
	users map[string]*model.User
}

// NewFileUserRepository loads the users store from path, creating an empty
// store when the file is missing. A corrupted file degrades to an empty
// store instead of failing startup.
func NewFileUserRepository(path string, log *zap.Logger) (*FileUserRepository, error) {
	r := &FileUserRepository{
		path:  path,
		log:   log,
		now:   time.Now,
		users: map[string]*model.User{},
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileUserRepository) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var users map[string]*model.User
	if err := json.Unmarshal(data, &users); err != nil {
		r.log.Warn("users store corrupted, starting empty",
			zap.String("path", r.path), zap.Error(err))
		return nil
	}
	for name, u := range users {
		u.Name = name
	}
	r.users = users
	return nil
}

// saveLocked writes the whole user set to a temp file and renames it into
// place, so a crash mid-write never corrupts the previous store.
func (r *FileUserRepository) saveLocked() error {
	data, err := json.MarshalIndent(r.users, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "users", Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".users-*.json")
	if err != nil {
		return &PersistenceError{Op: "users", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "users", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "users", Err: err}
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Op: "users", Err: err}
	}
	return nil
}

func (r *FileUserRepository) CreateUser(ctx context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(name)
}

func (r *FileUserRepository) createLocked(name string) (*model.User, error) {
	if err := validateUsername(name); err != nil {
		return nil, err
	}
	if _, ok := r.users[name]; ok {
		return nil, ErrUserExists
	}
	u := model.NewUser(name, r.now())
	r.users[name] = u
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

// Login returns the user, creating the record on first sight. There is no
// separate authentication step: any valid username is an identity.
func (r *FileUserRepository) Login(ctx context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := validateUsername(name); err != nil {
		return nil, err
	}
	u, ok := r.users[name]
	if !ok {
		return r.createLocked(name)
	}
	u.LastLogin = model.NewTimestamp(r.now())
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

func (r *FileUserRepository) GetUser(ctx context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (r *FileUserRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*model.User, 0, len(names))
	for _, name := range names {
		out = append(out, r.users[name].Clone())
	}
	return out, nil
}

func (r *FileUserRepository) UpdateUser(ctx context.Context, name string, fields map[string]any) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	merged, err := mergeUser(u, fields)
	if err != nil {
		return nil, err
	}
	r.users[name] = merged
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return merged.Clone(), nil
}

func (r *FileUserRepository) AddPurchase(ctx context.Context, name string, p *model.Purchase) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	added := p.Clone()
	if err := validatePurchase(added); err != nil {
		return nil, err
	}
	now := r.now()
	applyPurchaseDefaults(added, now)
	added.SettleCompletion(now)
	u.Purchases = append(u.Purchases, added)
	if err := r.saveLocked(); err != nil {
		return nil, err
	}
	return added.Clone(), nil
}

func (r *FileUserRepository) UpdatePurchase(ctx context.Context, name, id string, fields map[string]any) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	for i, p := range u.Purchases {
		if p.ID != id {
			continue
		}
		merged, err := mergePurchase(p, fields)
		if err != nil {
			return nil, err
		}
		if p.Status == model.StatusCooling {
			merged.SettleCompletion(r.now())
		} else {
			// Purchased is terminal; edits never revert it.
			merged.Status = p.Status
			if merged.PurchasedAt == nil {
				merged.PurchasedAt = p.PurchasedAt
			}
		}
		u.Purchases[i] = merged
		if err := r.saveLocked(); err != nil {
			return nil, err
		}
		return merged.Clone(), nil
	}
	return nil, ErrNotFound
}

func (r *FileUserRepository) MarkPurchased(ctx context.Context, name, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return ErrNotFound
	}
	p := u.FindPurchase(id)
	if p == nil {
		return ErrNotFound
	}
	p.Status = model.StatusPurchased
	ts := model.NewTimestamp(r.now())
	p.PurchasedAt = &ts
	return r.saveLocked()
}

func (r *FileUserRepository) DeletePurchase(ctx context.Context, name, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return ErrNotFound
	}
	kept := u.Purchases[:0]
	found := false
	for _, p := range u.Purchases {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrNotFound
	}
	u.Purchases = kept
	return r.saveLocked()
}

func (r *FileUserRepository) GetPurchase(ctx context.Context, name, id string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return nil, ErrNotFound
	}
	p := u.FindPurchase(id)
	if p == nil {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}
