package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/storage"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AccountStore is the persistence surface for users and sessions.
type AccountStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, string, error)
	GetUser(ctx context.Context, id int64) (core.User, error)
	UpdateUserEmail(ctx context.Context, id int64, email string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error

	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetSessionUser(ctx context.Context, token string) (core.User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// Accounts handles signup, signin, sessions and account provisioning.
type Accounts struct {
	store            AccountStore
	sessionTTL       time.Duration
	provisionDefault string
	logger           *log.Logger
}

func NewAccounts(store AccountStore, sessionTTL time.Duration, provisionDefaultPassword string, logger *log.Logger) *Accounts {
	return &Accounts{
		store:            store,
		sessionTTL:       sessionTTL,
		provisionDefault: provisionDefaultPassword,
		logger:           logger.WithComponent(log.ComponentAccounts),
	}
}

// SessionTTL returns how long issued sessions live.
func (a *Accounts) SessionTTL() time.Duration { return a.sessionTTL }

// SignUp registers a user and opens a session for them.
func (a *Accounts) SignUp(ctx context.Context, email, password, confirm string) (core.User, string, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return core.User{}, "", ErrInvalidEmail
	}
	if password != confirm {
		return core.User{}, "", ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", err
	}

	user, err := a.store.CreateUser(ctx, email, hash)
	if err != nil {
		return core.User{}, "", err
	}

	token, err := a.openSession(ctx, user.ID)
	if err != nil {
		return core.User{}, "", err
	}
	return user, token, nil
}

// SignIn verifies credentials and opens a session. Unknown emails and wrong
// passwords produce the same error.
func (a *Accounts) SignIn(ctx context.Context, email, password string) (core.User, string, error) {
	email = normalizeEmail(email)

	user, hash, err := a.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, "", err
	}
	if !auth.CheckPassword(hash, password) {
		a.logger.WarnContext(ctx, "Failed sign-in attempt", log.FieldUserID, user.ID)
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := a.openSession(ctx, user.ID)
	if err != nil {
		return core.User{}, "", err
	}
	return user, token, nil
}

func (a *Accounts) openSession(ctx context.Context, userID int64) (string, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().Add(a.sessionTTL)
	if err := a.store.CreateSession(ctx, token, userID, expiresAt); err != nil {
		return "", err
	}
	return token, nil
}

func (a *Accounts) SignOut(ctx context.Context, token string) error {
	return a.store.DeleteSession(ctx, token)
}

// UserFromSession resolves a session token, treating expired or unknown
// tokens as missing.
func (a *Accounts) UserFromSession(ctx context.Context, token string) (core.User, error) {
	return a.store.GetSessionUser(ctx, token)
}

// UpdateEmail changes the account email. Setting the current address again is
// a no-op so repeated form submissions stay idempotent.
func (a *Accounts) UpdateEmail(ctx context.Context, userID int64, email string) (core.User, error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return core.User{}, ErrInvalidEmail
	}

	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	if user.Email == email {
		return user, nil
	}

	if err := a.store.UpdateUserEmail(ctx, userID, email); err != nil {
		return core.User{}, err
	}
	user.Email = email
	a.logger.InfoContext(ctx, "Email updated", log.FieldUserID, userID)
	return user, nil
}

func (a *Accounts) UpdatePassword(ctx context.Context, userID int64, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := a.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Password updated", log.FieldUserID, userID)
	return nil
}

// Provision creates an account with the default password on behalf of the
// payment webhook. An already registered email is success, not a conflict;
// the upstream retries deliveries and the account is there either way.
func (a *Accounts) Provision(ctx context.Context, email string) (created bool, err error) {
	email = normalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return false, ErrInvalidEmail
	}

	hash, err := auth.HashPassword(a.provisionDefault)
	if err != nil {
		return false, fmt.Errorf("hash default password: %w", err)
	}

	_, err = a.store.CreateUser(ctx, email, hash)
	if errors.Is(err, storage.ErrEmailTaken) {
		a.logger.InfoContext(ctx, "Provisioned account already exists")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	a.logger.InfoContext(ctx, "Account provisioned")
	return true, nil
}

// SweepSessions removes expired sessions; run periodically.
func (a *Accounts) SweepSessions(ctx context.Context) error {
	n, err := a.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		a.logger.InfoContext(ctx, "Expired sessions swept", "count", n)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
