// Package password wraps the one-way password hash used for local
// credentials.
package password

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor for new digests. Existing digests
// keep whatever cost they were created with.
const DefaultCost = 10

// MinLength is the shortest password accepted when one is set, counted in
// characters.
const MinLength = 6

// LongEnough reports whether plain has at least MinLength characters.
func LongEnough(plain string) bool {
	return utf8.RuneCountInString(plain) >= MinLength
}

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("password does not match")

// Hasher produces and checks password digests.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) error
}

// Bcrypt is the production Hasher.
type Bcrypt struct {
	Cost int
}

// NewBcrypt returns a bcrypt Hasher at DefaultCost.
func NewBcrypt() Bcrypt {
	return Bcrypt{Cost: DefaultCost}
}

// Hash returns a bcrypt digest of plain.
func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify returns nil when plain matches digest, ErrMismatch when it does
// not, and another error when the digest itself is malformed.
func (b Bcrypt) Verify(plain, digest string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
