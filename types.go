package goShop

import (
	"context"
	"time"
)

// Role is a user's authorization role.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// UserRecord is the stored user. PasswordHash is empty when the record was
// loaded through FindUserByID.
type UserRecord struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity is the request-visible projection of a user. It never carries the
// password hash.
type Identity struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Identity projects u.
func (u UserRecord) Identity() *Identity {
	return &Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserStore is the credential store.
//
// FindUserByID and FindUserByEmail return ErrUserNotFound when nothing
// matches. CreateUser returns ErrUserExists on a duplicate email and the
// stored record (with its assigned ID) on success.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (UserRecord, error)
	FindUserByEmail(ctx context.Context, email string) (UserRecord, error)
	CreateUser(ctx context.Context, user UserRecord) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// SignupRequest is the input to Engine.Signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair holds a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// SessionResult is returned by Signup, Login and Refresh.
type SessionResult struct {
	User   *Identity
	Tokens TokenPair
}
