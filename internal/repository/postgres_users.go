package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/example/purchase-guardian/internal/model"
)

// PostgresUserRepository keeps the same user documents in Postgres, one
// JSONB row per username. Semantics match FileUserRepository.
type PostgresUserRepository struct {
	db  *sql.DB
	now func() time.Time

	// Serializes read-modify-write cycles from the UI and poller contexts.
	mu sync.Mutex
}

func NewPostgresUserRepository(connStr string) (*PostgresUserRepository, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	r := &PostgresUserRepository{db: db, now: time.Now}
	if err := r.init(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *PostgresUserRepository) init() error {
	_, err := r.db.Exec(`
        CREATE TABLE IF NOT EXISTS users (
            username TEXT PRIMARY KEY,
            data JSONB NOT NULL
        )`)
	return err
}

func (r *PostgresUserRepository) Close() error { return r.db.Close() }

func (r *PostgresUserRepository) getLocked(ctx context.Context, name string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data FROM users WHERE username=$1`, name)
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u := &model.User{}
	if err := json.Unmarshal(data, u); err != nil {
		return nil, err
	}
	u.Name = name
	return u, nil
}

func (r *PostgresUserRepository) putLocked(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return &PersistenceError{Op: "users", Err: err}
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO users (username, data) VALUES ($1, $2)
        ON CONFLICT (username) DO UPDATE SET data=EXCLUDED.data`,
		u.Name, data)
	if err != nil {
		return &PersistenceError{Op: "users", Err: err}
	}
	return nil
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(ctx, name)
}

func (r *PostgresUserRepository) createLocked(ctx context.Context, name string) (*model.User, error) {
	if err := validateUsername(name); err != nil {
		return nil, err
	}
	if _, err := r.getLocked(ctx, name); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	u := model.NewUser(name, r.now())
	if err := r.putLocked(ctx, u); err != nil {
		return nil, err
	}
	return u.Clone(), nil
}

func (r *PostgresUserRepository) Login(ctx context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := validateUsername(name); err != nil {
		return nil, err
	}
	u, err := r.getLocked(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return r.createLocked(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	u.LastLogin = model.NewTimestamp(r.now())
	if err := r.putLocked(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) GetUser(ctx context.Context, name string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(ctx, name)
}

func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows, err := r.db.QueryContext(ctx, `SELECT username, data FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.User
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		u := &model.User{}
		if err := json.Unmarshal(data, u); err != nil {
			return nil, err
		}
		u.Name = name
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, name string, fields map[string]any) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.getLocked(ctx, name)
	if err != nil {
		return nil, err
	}
	merged, err := mergeUser(u, fields)
	if err != nil {
		return nil, err
	}
	if err := r.putLocked(ctx, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

func (r *PostgresUserRepository) AddPurchase(ctx context.Context, name string, p *model.Purchase) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.getLocked(ctx, name)
	if err != nil {
		return nil, err
	}
	added := p.Clone()
	if err := validatePurchase(added); err != nil {
		return nil, err
	}
	now := r.now()
	applyPurchaseDefaults(added, now)
	added.SettleCompletion(now)
	u.Purchases = append(u.Purchases, added)
	if err := r.putLocked(ctx, u); err != nil {
		return nil, err
	}
	return added.Clone(), nil
}

func (r *PostgresUserRepository) UpdatePurchase(ctx context.Context, name, id string, fields map[string]any) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.getLocked(ctx, name)
	if err != nil {
		return nil, err
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
			merged.Status = p.Status
			if merged.PurchasedAt == nil {
				merged.PurchasedAt = p.PurchasedAt
			}
		}
		u.Purchases[i] = merged
		if err := r.putLocked(ctx, u); err != nil {
			return nil, err
		}
		return merged.Clone(), nil
	}
	return nil, ErrNotFound
}

func (r *PostgresUserRepository) MarkPurchased(ctx context.Context, name, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.getLocked(ctx, name)
	if err != nil {
		return err
	}
	p := u.FindPurchase(id)
	if p == nil {
		return ErrNotFound
	}
	p.Status = model.StatusPurchased
	ts := model.NewTimestamp(r.now())
	p.PurchasedAt = &ts
	return r.putLocked(ctx, u)
}

func (r *PostgresUserRepository) DeletePurchase(ctx context.Context, name, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.getLocked(ctx, name)
	if err != nil {
		return err
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
	return r.putLocked(ctx, u)
}

func (r *PostgresUserRepository) GetPurchase(ctx context.Context, name, id string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.getLocked(ctx, name)
	if err != nil {
		return nil, err
	}
	p := u.FindPurchase(id)
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}
