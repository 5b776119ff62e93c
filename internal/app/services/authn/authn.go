// Package authn checks credentials for password and social sign-in and
// manages local passwords. It never touches the HTTP session; callers take
// the returned snapshot and write it themselves.
package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	userstore "github.com/bloodbridge/bloodbridge/internal/app/store/users"
	"github.com/bloodbridge/bloodbridge/internal/app/system/auth"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/password"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrValidation marks malformed or missing input. The concrete error is
	// a *ValidationError carrying the client message.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredential is returned for a wrong password.
	ErrInvalidCredential = errors.New("invalid email or password")
	// ErrUnknownEmail is returned by Login when no account matches. It wraps
	// ErrInvalidCredential so both render the same response.
	ErrUnknownEmail = fmt.Errorf("%w: unknown email", ErrInvalidCredential)
	// ErrNeedsPassword is returned when the account has no local password yet.
	ErrNeedsPassword = errors.New("password not set")
	// ErrInactive is returned for accounts whose status is not active.
	ErrInactive = errors.New("account is not active")
	// ErrNotFound is returned by SocialLogin and SetPassword for unknown emails.
	ErrNotFound = errors.New("user not found")
	// ErrUnverified is returned by SocialLogin when a verifier is configured
	// and rejects the caller's token.
	ErrUnverified = errors.New("social identity could not be verified")
)

// Client messages for validation failures.
const (
	MsgEmailAndPasswordRequired = "Email and password are required"
	MsgEmailRequired            = "Email is required"
	MsgPasswordTooShort         = "Password must be at least 6 characters"
)

// ValidationError is a rejected input with the message to show the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// UserStore is the subset of the user store the service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	SetPassword(ctx context.Context, email, digest string) error
}

// Service authenticates users.
type Service struct {
	users    UserStore
	hasher   password.Hasher
	verifier IdentityVerifier
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithVerifier makes SocialLogin confirm the email against the caller's
// provider token.
func WithVerifier(v IdentityVerifier) Option {
	return func(s *Service) { s.verifier = v }
}

// WithClock overrides time.Now for lastLogin stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a Service. users and hasher are required.
func New(users UserStore, hasher password.Hasher, log *zap.Logger, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("authn: user store is required")
	}
	if hasher == nil {
		return nil, errors.New("authn: password hasher is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{users: users, hasher: hasher, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login checks email and password.
//
// On success it returns the session snapshot; the caller records the login
// with RecordLogin once the session is saved. When the
// account was found but the attempt failed (no password, wrong password,
// inactive), the returned snapshot carries only ID and Email so the caller
// can audit the attempt; it must not be used to sign in.
func (s *Service) Login(ctx context.Context, email, plain string) (auth.SessionUser, error) {
	email = normalize.Email(email)
	if email == "" || plain == "" {
		return auth.SessionUser{}, invalid(MsgEmailAndPasswordRequired)
	}

	u, err := s.lookup(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return auth.SessionUser{}, ErrUnknownEmail
	}
	if err != nil {
		return auth.SessionUser{}, err
	}
	who := auth.SessionUser{ID: u.ID.Hex(), Email: u.Email}

	if !u.HasPassword() {
		return who, ErrNeedsPassword
	}
	if err := s.hasher.Verify(plain, u.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.log.Warn("stored password digest could not be checked",
				zap.String("user_id", who.ID), zap.Error(err))
		}
		return who, ErrInvalidCredential
	}
	if !u.IsActive() {
		return who, ErrInactive
	}

	return auth.SnapshotOf(*u), nil
}

// SocialLogin signs in an account whose identity the provider has already
// confirmed. accessToken is only consulted when a verifier is configured.
// Accounts are never created here.
func (s *Service) SocialLogin(ctx context.Context, email, accessToken string) (auth.SessionUser, error) {
	email = normalize.Email(email)
	if email == "" {
		return auth.SessionUser{}, invalid(MsgEmailRequired)
	}

	if s.verifier != nil {
		if err := s.verifier.Verify(ctx, email, accessToken); err != nil {
			s.log.Info("social identity rejected", zap.String("email", email), zap.Error(err))
			return auth.SessionUser{Email: email}, ErrUnverified
		}
	}

	u, err := s.lookup(ctx, email)
	if err != nil {
		return auth.SessionUser{Email: email}, err
	}
	if !u.IsActive() {
		return auth.SessionUser{ID: u.ID.Hex(), Email: u.Email}, ErrInactive
	}

	return auth.SnapshotOf(*u), nil
}

// SetPassword hashes plain and stores it as the account's digest. It
// replaces any existing digest and does not sign the user in.
func (s *Service) SetPassword(ctx context.Context, email, plain string) error {
	email = normalize.Email(email)
	if email == "" || plain == "" {
		return invalid(MsgEmailAndPasswordRequired)
	}
	if !password.LongEnough(plain) {
		return invalid(MsgPasswordTooShort)
	}

	if _, err := s.lookup(ctx, email); err != nil {
		return err
	}
	digest, err := s.hasher.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, email, digest); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, email string) (*models.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// RecordLogin bumps loginCount and lastLogin for a completed sign-in. A
// failure here is logged and never fails the sign-in.
func (s *Service) RecordLogin(ctx context.Context, u auth.SessionUser) {
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		s.log.Warn("record login: bad user id", zap.String("user_id", u.ID))
		return
	}
	if err := s.users.RecordLogin(ctx, id, s.now()); err != nil {
		s.log.Warn("record login failed",
			zap.String("user_id", u.ID), zap.Error(err))
	}
}
