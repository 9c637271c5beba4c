// Package memrepo implementa los repositorios en memoria. Se usa en tests y
// en el modo dev sin Postgres. Misma semántica que el store pg, incluida la
// unicidad de email por constraint (acá, chequeo bajo el mismo lock).
package memrepo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/issuehub/internal/domain/repository"
)

// Users es un repository.UserRepository en memoria.
type Users struct {
	mu   sync.Mutex
	byID map[string]*repository.User
	now  func() time.Time
}

func NewUsers() *Users {
	return &Users{byID: make(map[string]*repository.User), now: time.Now}
}

// SetClockForTests fija el reloj.
func (r *Users) SetClockForTests(now func() time.Time) { r.now = now }

func cloneUser(u *repository.User) *repository.User {
	cp := *u
	if u.Tracker != nil {
		tc := *u.Tracker
		cp.Tracker = &tc
	}
	return &cp
}

func (r *Users) Create(_ context.Context, in repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(in.Email)
	for _, u := range r.byID {
		if u.Email == email {
			return nil, repository.ErrConflict
		}
	}
	u := &repository.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    r.now().UTC(),
	}
	r.byID[u.ID] = u
	return cloneUser(u), nil
}

func (r *Users) GetByID(_ context.Context, userID string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) SetTrackerConnection(_ context.Context, userID string, conn repository.TrackerConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	tc := conn
	u.Tracker = &tc
	return nil
}

func (r *Users) UpdateTrackerTokens(_ context.Context, userID, accessEnc, refreshEnc string, expiresAtMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok || u.Tracker == nil {
		return repository.ErrNotFound
	}
	u.Tracker.AccessTokenEnc = accessEnc
	u.Tracker.RefreshTokenEnc = refreshEnc
	u.Tracker.ExpiresAtMs = expiresAtMs
	return nil
}

func (r *Users) RemoveTrackerConnection(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[userID]; ok {
		u.Tracker = nil
	}
	return nil
}

var _ repository.UserRepository = (*Users)(nil)

// APIKeys es un repository.APIKeyRepository en memoria.
type APIKeys struct {
	mu   sync.Mutex
	byID map[string]*repository.APIKey
}

func NewAPIKeys() *APIKeys {
	return &APIKeys{byID: make(map[string]*repository.APIKey)}
}

func (r *APIKeys) Create(_ context.Context, key repository.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := key
	r.byID[key.ID] = &cp
	return nil
}

func (r *APIKeys) GetActiveByHash(_ context.Context, keyHash string) (*repository.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.byID {
		if k.KeyHash == keyHash && k.IsActive {
			cp := *k
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *APIKeys) ListByUser(_ context.Context, userID string) ([]repository.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.APIKey
	for _, k := range r.byID {
		if k.UserID == userID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (r *APIKeys) Delete(_ context.Context, userID, keyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byID[keyID]
	if !ok || k.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.byID, keyID)
	return nil
}

func (r *APIKeys) TouchLastUsed(_ context.Context, keyID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if k, ok := r.byID[keyID]; ok {
		t := at
		k.LastUsedAt = &t
	}
	return nil
}

var _ repository.APIKeyRepository = (*APIKeys)(nil)
