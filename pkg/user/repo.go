package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"portal/pkg/common"
	"portal/pkg/ids"
	"portal/pkg/logger"
	"portal/pkg/store"
)

const (
	AdminId       = "admin"
	AdminUsername = "Admin"
)

var (
	ErrEmailTaken         = errors.New("user: email already registered")
	ErrInvalidCredentials = errors.New("user: invalid email or password")
	ErrInvalidInput       = errors.New("user: email, username and password are required")
	ErrNotFound           = errors.New("user: not found")
)

type UserRepo struct {
	mu    sync.Mutex
	store store.Store
	users []*User
}

// NewUserRepo loads the users slot. An unreadable or malformed snapshot
// starts the directory empty.
func NewUserRepo(ctx context.Context, st store.Store) *UserRepo {
	r := &UserRepo{store: st}

	data, err := st.Load(ctx, store.SlotUsers)
	if err != nil {
		logger.Log(ctx).Warnf("user/repo: can't load users, starting empty: %v", err)
		return r
	}
	users, legacy, err := decodeUsers(data)
	if err != nil {
		logger.Log(ctx).Warnf("user/repo: users snapshot rejected, starting empty: %v", err)
		return r
	}
	r.users = users

	if legacy > 0 {
		// replace clear-text passwords in the store with their hashes
		if err := r.commit(ctx, users); err != nil {
			logger.Log(ctx).Warnf("user/repo: can't rewrite %d clear-text passwords: %v", legacy, err)
		} else {
			logger.Log(ctx).Infow("clear-text passwords hashed", "count", legacy)
		}
	}
	return r
}

// decodeUsers validates a users snapshot. legacy counts the records that
// carried a clear-text password.
func decodeUsers(data []byte) (users []*User, legacy int, err error) {
	if len(data) == 0 {
		return nil, 0, nil
	}
	users = []*User{}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, 0, fmt.Errorf("user/repo: bad JSON: %w", err)
	}
	raw := []struct {
		Password string `json:"password"`
	}{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("user/repo: bad JSON: %w", err)
	}
	for _, rec := range raw {
		if isClearText(rec.Password) {
			legacy++
		}
	}

	seenIds := map[string]bool{}
	seenEmails := map[string]bool{}
	for i, u := range users {
		switch {
		case u == nil:
			return nil, 0, fmt.Errorf("user/repo: record %d is null", i)
		case u.Id == "" || u.Email == "" || u.Username == "":
			return nil, 0, fmt.Errorf("user/repo: record %d misses id, email or username", i)
		case seenIds[u.Id]:
			return nil, 0, fmt.Errorf("user/repo: duplicate id %q", u.Id)
		case seenEmails[u.Email]:
			return nil, 0, fmt.Errorf("user/repo: duplicate email %q", u.Email)
		}
		seenIds[u.Id] = true
		seenEmails[u.Email] = true
	}
	return users, legacy, nil
}

// commit saves users as the new snapshot and swaps it in only after the
// store accepted it. Callers hold r.mu.
func (r *UserRepo) commit(ctx context.Context, users []*User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("user/repo: JSON marshaling failed: %w", err)
	}
	if err := r.store.Save(ctx, store.SlotUsers, data); err != nil {
		return fmt.Errorf("user/repo: user wasn't saved: %w", err)
	}
	r.users = users
	return nil
}

func (r *UserRepo) findByEmail(email string) *User {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// Add registers a new identity.
func (r *UserRepo) Add(ctx context.Context, email, username, password string) (*User, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findByEmail(email) != nil {
		return nil, ErrEmailTaken
	}

	u := &User{
		Id:       ids.NewRandom(),
		Email:    email,
		Username: username,
		Password: common.HashPass(password, common.RandStringRunes(common.SaltLen)),
	}
	if err := r.commit(ctx, append(r.users[:len(r.users):len(r.users)], u)); err != nil {
		return nil, err
	}
	logger.Log(ctx).Infow("user registered", "id", u.Id, "username", u.Username)
	return u, nil
}

// EnsureAdmin returns the identity registered under email, creating the
// administrative identity first if there is none. Repeated calls never
// create a second one.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u := r.findByEmail(email); u != nil {
		return u, nil
	}

	admin := &User{
		Id:       AdminId,
		Email:    email,
		Username: AdminUsername,
		Password: common.HashPass(password, common.RandStringRunes(common.SaltLen)),
		IsAdmin:  true,
	}
	for _, u := range r.users {
		if u.Id == AdminId {
			// Keep ids unique when a previous admin email was reconfigured.
			admin.Id = ids.NewRandom()
			break
		}
	}
	if err := r.commit(ctx, append(r.users[:len(r.users):len(r.users)], admin)); err != nil {
		return nil, err
	}
	logger.Log(ctx).Infow("admin identity bootstrapped", "id", admin.Id, "email", email)
	return admin, nil
}

func (r *UserRepo) GetByEmailAndPass(email, pass string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByEmail(strings.TrimSpace(email))
	if u == nil || !common.CheckPass(u.Password, pass) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (r *UserRepo) EmailExists(email string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByEmail(strings.TrimSpace(email)) != nil
}

func (r *UserRepo) GetById(id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Id == id {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// GetAll returns the public projection of every identity in registration order.
func (r *UserRepo) GetAll() []*Public {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*Public, 0, len(r.users))
	for _, u := range r.users {
		res = append(res, u.Public())
	}
	return res
}

// GetNonAdmin returns identities without administrative capability.
func (r *UserRepo) GetNonAdmin() []*Public {
	res := []*Public{}
	for _, u := range r.GetAll() {
		if !u.IsAdmin {
			res = append(res, u)
		}
	}
	return res
}
