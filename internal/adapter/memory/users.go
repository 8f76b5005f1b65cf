package memory

import (
	"context"
	"strings"
	"time"

	"nourish/internal/domain"
)

// --- UserRepository ---

// UserRepo implements user persistence.
type UserRepo struct {
	db *DB
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// Create creates a new user and sets its ID and CreatedAt.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.taken(u) {
		return domain.ErrConflict
	}
	u.ID = r.db.nextID()
	u.CreatedAt = r.db.now()
	r.db.users[u.ID] = *u
	return nil
}

// Update replaces the stored user.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.taken(u) {
		return domain.ErrConflict
	}
	u.CreatedAt = cur.CreatedAt
	r.db.users[u.ID] = *u
	return nil
}

// Delete removes a user and everything the user owns.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.db.users, id)
	for k, t := range r.db.tokens {
		if t.UserID == id {
			delete(r.db.tokens, k)
		}
	}
	for k, e := range r.db.entries {
		if e.UserID == id {
			delete(r.db.entries, k)
		}
	}
	for k, f := range r.db.custom {
		if f.UserID == id {
			delete(r.db.custom, k)
		}
	}
	for k, m := range r.db.meals {
		if m.UserID == id {
			delete(r.db.meals, k)
		}
	}
	for k, rc := range r.db.recipes {
		if rc.UserID == id {
			delete(r.db.recipes, k)
		}
	}
	return nil
}

// taken reports whether another user holds u's email or username.
func (r *UserRepo) taken(u *domain.User) bool {
	for _, o := range r.db.users {
		if o.ID == u.ID {
			continue
		}
		if strings.EqualFold(o.Email, u.Email) || o.Username == u.Username {
			return true
		}
	}
	return false
}

// --- RefreshTokenRepository ---

// TokenRepo implements refresh token persistence.
type TokenRepo struct {
	db *DB
}

// Create stores a refresh token.
func (r *TokenRepo) Create(ctx context.Context, t domain.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tokens[t.ID]; ok {
		return domain.ErrConflict
	}
	if _, ok := r.db.users[t.UserID]; !ok {
		return domain.ErrConflict
	}
	r.db.tokens[t.ID] = t
	return nil
}

// Get retrieves a refresh token that has not expired.
func (r *TokenRepo) Get(ctx context.Context, id string) (*domain.RefreshToken, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tokens[id]
	if !ok || !r.db.now().Before(t.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

// Delete revokes a refresh token.
func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.tokens[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.db.tokens, id)
	return nil
}

// DeleteExpired deletes all tokens expired at now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for k, t := range r.db.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.db.tokens, k)
			n++
		}
	}
	return n, nil
}
