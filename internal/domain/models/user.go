// internal/domain/models/user.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user can hold.
const (
	RoleDonor     = "donor"
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// Account statuses.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Defaults applied to a freshly registered user.
const (
	DefaultGender       = "male"
	DefaultAvailability = "available"
	DefaultUrgency      = "normal"
)

// ReminderPreferences controls which channels a donor is reminded on.
type ReminderPreferences struct {
	Email bool `bson:"email" json:"email"`
	SMS   bool `bson:"sms" json:"sms"`
}

// DefaultReminderPreferences is email on, sms off.
func DefaultReminderPreferences() *ReminderPreferences {
	return &ReminderPreferences{Email: true, SMS: false}
}

// User is a donor, volunteer or admin account.
//
// NOTE:
//   - Field names follow the existing collection (camelCase) so records
//     written before the Go service remain readable.
//   - Password holds the bcrypt digest. It is empty for accounts created by
//     an external identity provider that have not set a local password yet.
//   - DisplayName / PhotoURL are legacy fields from the external provider;
//     they are only used as fallbacks for Name / Image.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password,omitempty" json:"-"`

	Name        string `bson:"name,omitempty" json:"name"`
	Image       string `bson:"image,omitempty" json:"image"`
	DisplayName string `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PhotoURL    string `bson:"photoURL,omitempty" json:"photoURL,omitempty"`

	Role   string `bson:"role,omitempty" json:"role"`     // donor | volunteer | admin
	Status string `bson:"status,omitempty" json:"status"` // active | inactive | suspended
	Gender string `bson:"gender,omitempty" json:"gender,omitempty"`

	BloodGroup         string `bson:"bloodGroup,omitempty" json:"bloodGroup"`
	District           string `bson:"district,omitempty" json:"district"`
	Upazila            string `bson:"upazila,omitempty" json:"upazila"`
	Phone              string `bson:"phone,omitempty" json:"phone"`
	AvailabilityStatus string `bson:"availabilityStatus,omitempty" json:"availabilityStatus"`
	UrgencyLevel       string `bson:"urgencyLevel,omitempty" json:"urgencyLevel,omitempty"`

	LoginCount int64  `bson:"loginCount" json:"loginCount"`
	CreatedAt  string `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	LastLogin  string `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`

	LastDonationDate    interface{}          `bson:"lastDonationDate,omitempty" json:"lastDonationDate,omitempty"`
	HealthAssessment    interface{}          `bson:"healthAssessment,omitempty" json:"healthAssessment,omitempty"`
	ReminderPreferences *ReminderPreferences `bson:"reminderPreferences,omitempty" json:"reminderPreferences,omitempty"`
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// IsActive reports whether the account may sign in. An unset status counts
// as active.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == StatusActive
}

// WithDefaults returns a copy with display fallbacks and defaults filled in,
// the way profile reads present a user.
func (u User) WithDefaults() User {
	if u.Name == "" {
		u.Name = u.DisplayName
	}
	if u.Image == "" {
		u.Image = u.PhotoURL
	}
	if u.Role == "" {
		u.Role = RoleDonor
	}
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.AvailabilityStatus == "" {
		u.AvailabilityStatus = DefaultAvailability
	}
	return u
}

// IsValidRole reports whether r is a known role.
func IsValidRole(r string) bool {
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// IsValidStatus reports whether s is a known account status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}
