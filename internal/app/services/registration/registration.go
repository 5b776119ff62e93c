// Package registration implements add-user: one call that covers a fresh
// signup, a repeat sign-in from the front end, and the claim of an account
// that exists without a local password.
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	userstore "github.com/bloodbridge/bloodbridge/internal/app/store/users"
	"github.com/bloodbridge/bloodbridge/internal/app/system/normalize"
	"github.com/bloodbridge/bloodbridge/internal/app/system/password"
	"github.com/bloodbridge/bloodbridge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrValidation is returned when the candidate has no email.
var ErrValidation = errors.New("email is required")

// Outcome tags a Result.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeClaimed  Outcome = "claimed"
	OutcomeExisting Outcome = "existing"
)

// Legacy response markers existing clients look for.
const (
	MsgClaimed  = "User account claimed and password set"
	MsgExisting = "user already exist"
)

// Result is what Register did.
type Result struct {
	Outcome Outcome
	// UserID identifies the account in every outcome.
	UserID primitive.ObjectID
}

// MarshalJSON renders the tagged result together with the fields clients
// written against the old responses check: insertedId for created and
// claimed, message for claimed, msg for existing.
func (r Result) MarshalJSON() ([]byte, error) {
	body := map[string]any{"outcome": r.Outcome}
	switch r.Outcome {
	case OutcomeCreated:
		body["acknowledged"] = true
		body["insertedId"] = r.UserID
	case OutcomeClaimed:
		body["message"] = MsgClaimed
		body["insertedId"] = r.UserID
	case OutcomeExisting:
		body["msg"] = MsgExisting
	}
	return json.Marshal(body)
}

// Candidate is an add-user payload.
type Candidate struct {
	Email    string
	Password string
	// Profile holds the fields a repeat registration may merge.
	Profile models.ProfilePatch

	// Used only when creating.
	Status              string
	Gender              string
	UrgencyLevel        string
	LastDonationDate    interface{}
	HealthAssessment    interface{}
	ReminderPreferences *models.ReminderPreferences
}

// Store is the subset of the user store registration needs.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, u models.User) (models.User, error)
	Claim(ctx context.Context, id primitive.ObjectID, digest string, loginCount int64, fields map[string]string) error
	BumpLoginCount(ctx context.Context, id primitive.ObjectID, fields map[string]string) error
}

// Service registers users.
type Service struct {
	users  Store
	hasher password.Hasher
	log    *zap.Logger
	now    func() time.Time
}

// New builds a Service.
func New(users Store, hasher password.Hasher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, hasher: hasher, log: log, now: time.Now}
}

// Register applies c. An existing account is never an error: the caller
// reads the Outcome.
func (s *Service) Register(ctx context.Context, c Candidate) (Result, error) {
	email := normalize.Email(c.Email)
	if email == "" {
		return Result{}, ErrValidation
	}
	patch := mergeable(c.Profile)

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		return s.create(ctx, email, c)
	case err != nil:
		return Result{}, fmt.Errorf("load user: %w", err)
	}

	if !existing.HasPassword() && c.Password != "" {
		res, err := s.claim(ctx, existing, c.Password, patch)
		if !errors.Is(err, userstore.ErrNotFound) {
			return res, err
		}
		// Someone else set a password between the read and the write.
	}
	return s.bump(ctx, existing.ID, patch)
}

func (s *Service) claim(ctx context.Context, u *models.User, plain string, patch map[string]string) (Result, error) {
	digest, err := s.hasher.Hash(plain)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Claim(ctx, u.ID, digest, u.LoginCount+1, patch); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeClaimed, UserID: u.ID}, nil
}

func (s *Service) bump(ctx context.Context, id primitive.ObjectID, patch map[string]string) (Result, error) {
	if err := s.users.BumpLoginCount(ctx, id, patch); err != nil {
		return Result{}, fmt.Errorf("update existing user: %w", err)
	}
	return Result{Outcome: OutcomeExisting, UserID: id}, nil
}

func (s *Service) create(ctx context.Context, email string, c Candidate) (Result, error) {
	u := newUser(email, c, s.now())
	if c.Password != "" {
		digest, err := s.hasher.Hash(c.Password)
		if err != nil {
			return Result{}, fmt.Errorf("hash password: %w", err)
		}
		u.Password = digest
	}

	created, err := s.users.Insert(ctx, u)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Lost an insert race to a concurrent registration for the same
		// email; treat it like the second call it effectively is.
		s.log.Info("registration raced an insert, folding into existing", zap.String("email", email))
		winner, gerr := s.users.GetByEmail(ctx, email)
		if gerr != nil {
			return Result{}, fmt.Errorf("load user after duplicate: %w", gerr)
		}
		return s.bump(ctx, winner.ID, mergeable(c.Profile))
	}
	if err != nil {
		return Result{}, fmt.Errorf("insert user: %w", err)
	}
	return Result{Outcome: OutcomeCreated, UserID: created.ID}, nil
}

// newUser applies every registration default.
func newUser(email string, c Candidate, now time.Time) models.User {
	p := c.Profile
	u := models.User{
		Email:               email,
		Name:                p.Get(models.FieldName),
		Image:               p.Get(models.FieldImage),
		Role:                models.RoleDonor,
		Status:              models.StatusActive,
		Gender:              models.DefaultGender,
		BloodGroup:          p.Get(models.FieldBloodGroup),
		District:            p.Get(models.FieldDistrict),
		Upazila:             p.Get(models.FieldUpazila),
		Phone:               p.Get(models.FieldPhone),
		AvailabilityStatus:  models.DefaultAvailability,
		UrgencyLevel:        models.DefaultUrgency,
		LoginCount:          1,
		CreatedAt:           models.Timestamp(now),
		LastDonationDate:    c.LastDonationDate,
		HealthAssessment:    c.HealthAssessment,
		ReminderPreferences: c.ReminderPreferences,
	}
	if role := selfAssignableRole(p.Get(models.FieldRole)); role != "" {
		u.Role = role
	}
	if st := normalize.Status(c.Status); models.IsValidStatus(st) {
		u.Status = st
	}
	if c.Gender != "" {
		u.Gender = c.Gender
	}
	if v := p.Get(models.FieldAvailabilityStatus); v != "" {
		u.AvailabilityStatus = v
	}
	if c.UrgencyLevel != "" {
		u.UrgencyLevel = c.UrgencyLevel
	}
	if u.ReminderPreferences == nil {
		u.ReminderPreferences = models.DefaultReminderPreferences()
	}
	return u
}

// mergeable returns the non-empty patch entries, with a role the caller may
// not give themselves dropped.
func mergeable(p models.ProfilePatch) map[string]string {
	fields := p.NonEmpty()
	if role, ok := fields[string(models.FieldRole)]; ok {
		if r := selfAssignableRole(role); r != "" {
			fields[string(models.FieldRole)] = r
		} else {
			delete(fields, string(models.FieldRole))
		}
	}
	return fields
}

// selfAssignableRole returns r normalized when an unauthenticated caller may
// pick it, otherwise "". Admin is granted through update-role only.
func selfAssignableRole(r string) string {
	switch r = normalize.Role(r); r {
	case models.RoleDonor, models.RoleVolunteer:
		return r
	}
	return ""
}
