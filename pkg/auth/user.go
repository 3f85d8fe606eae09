package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields  = errors.New("all fields are required")
	ErrEmailTaken     = errors.New("email already registered")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrNoSession      = errors.New("not authenticated")
)

// User is a registered account. Only the bcrypt hash of the password is
// ever stored.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"` // Unix milliseconds
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether the password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}
