package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	. "portal/pkg/common"
	"portal/pkg/logger"
	"portal/pkg/store"
	"portal/pkg/user"
)

const sessionTTL = 90 * 24 * time.Hour

type (
	IUserRepo interface {
		GetByEmailAndPass(email, pass string) (*user.User, error)
		EnsureAdmin(ctx context.Context, email, pass string) (*user.User, error)
		GetById(id string) (*user.User, error)
	}

	// Admin holds the reserved administrative credentials.
	Admin struct {
		Email  string
		Secret string
	}

	SessionManager struct {
		mu      sync.Mutex
		store   store.Store
		users   IUserRepo
		admin   Admin
		secret  []byte
		current *user.Public
	}

	// record is the persisted form of the current session. Token is set
	// only when the manager has a signing secret.
	record struct {
		user.Public
		Token string `json:"token,omitempty"`
	}

	jwtClaims struct {
		User user.Public `json:"user"`
		jwt.StandardClaims
	}
)

var (
	ErrNoAuth    = errors.New("sessions: no session found")
	ErrForbidden = errors.New("sessions: administrative capability required")
)

// NewSessionManager restores the persisted session. A session that can't
// be decoded, fails token verification or points to an unknown identity
// is dropped.
func NewSessionManager(ctx context.Context, st store.Store, users IUserRepo, admin Admin, secret string) *SessionManager {
	sm := &SessionManager{
		store:  st,
		users:  users,
		admin:  admin,
		secret: []byte(secret),
	}

	data, err := st.Load(ctx, store.SlotCurrentSession)
	if err != nil {
		logger.Log(ctx).Warnf("sessions: can't load current session: %v", err)
		return sm
	}
	current, err := sm.decode(data)
	if err != nil {
		logger.Log(ctx).Warnf("sessions: current session rejected: %v", err)
		return sm
	}
	sm.current = current
	return sm
}

func (sm *SessionManager) decode(data []byte) (*user.Public, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	rec := new(record)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("sessions: bad JSON: %w", err)
	}
	if rec.Id == "" || rec.Username == "" {
		return nil, errors.New("sessions: record misses id or username")
	}

	if len(sm.secret) > 0 {
		fromToken, err := sm.UserFromToken(rec.Token)
		if err != nil {
			return nil, err
		}
		if *fromToken != rec.Public {
			return nil, errors.New("sessions: token doesn't match the session record")
		}
	}

	if _, err := sm.users.GetById(rec.Id); err != nil {
		return nil, fmt.Errorf("sessions: session identity is gone: %w", err)
	}

	p := rec.Public
	return &p, nil
}

// Login authenticates and persists the session. The reserved administrative
// credentials always succeed and bootstrap the admin identity on first use.
func (sm *SessionManager) Login(ctx context.Context, email, secret string) (*user.Public, error) {
	var session *user.Public

	email = strings.TrimSpace(email)
	if email == sm.admin.Email && SecretEqual(secret, sm.admin.Secret) {
		admin, err := sm.users.EnsureAdmin(ctx, email, secret)
		if err != nil {
			return nil, fmt.Errorf("sessions: admin bootstrap failed: %w", err)
		}
		session = admin.Public()
		session.IsAdmin = true
	} else {
		u, err := sm.users.GetByEmailAndPass(email, secret)
		if err != nil {
			return nil, err
		}
		session = u.Public()
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if err := sm.save(ctx, session); err != nil {
		return nil, err
	}
	logger.Log(ctx).Infow("logged in", "id", session.Id, "admin", session.IsAdmin)
	return copyPublic(session), nil
}

// Logout clears the active session.
func (sm *SessionManager) Logout(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.save(ctx, nil)
}

// save persists session and makes it current. Callers hold sm.mu.
func (sm *SessionManager) save(ctx context.Context, session *user.Public) error {
	data := []byte("null")
	if session != nil {
		rec := record{Public: *session}
		if len(sm.secret) > 0 {
			token, err := sm.CreateToken(session)
			if err != nil {
				return fmt.Errorf("sessions: can't create token: %w", err)
			}
			rec.Token = token
		}
		var err error
		data, err = json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("sessions: JSON marshaling failed: %w", err)
		}
	}

	if err := sm.store.Save(ctx, store.SlotCurrentSession, data); err != nil {
		return fmt.Errorf("sessions: session wasn't saved: %w", err)
	}
	sm.current = session
	return nil
}

// Current returns the active session or nil.
func (sm *SessionManager) Current() *user.Public {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return copyPublic(sm.current)
}

// RequireAuth returns the active session or ErrNoAuth.
func (sm *SessionManager) RequireAuth() (*user.Public, error) {
	s := sm.Current()
	if s == nil {
		return nil, ErrNoAuth
	}
	return s, nil
}

// RequireAdmin checks the administrative capability of a session.
func RequireAdmin(session *user.Public) error {
	if session == nil {
		return ErrNoAuth
	}
	if !session.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func (sm *SessionManager) CreateToken(session *user.Public) (string, error) {
	data := jwtClaims{
		User: *session,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(sessionTTL).Unix(),
			IssuedAt:  time.Now().Unix(),
			Id:        RandStringRunes(10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, data).SignedString(sm.secret)
}

// UserFromToken verifies a token made by CreateToken.
func (sm *SessionManager) UserFromToken(tokenString string) (*user.Public, error) {
	if tokenString == "" {
		return nil, errors.New("sessions: token not found")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwtClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sessions: unexpected signing method %v", token.Header["alg"])
			}
			return sm.secret, nil
		})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok {
		return nil, errors.New("sessions: can't cast token to claim")
	}
	if !token.Valid {
		return nil, errors.New("sessions: token is not valid")
	}
	return &claims.User, nil
}

func copyPublic(p *user.Public) *user.Public {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
