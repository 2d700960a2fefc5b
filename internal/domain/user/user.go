package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user: not found")
	ErrEmailTaken         = errors.New("user: email already registered")
	ErrInvalidEmail       = errors.New("user: email is required")
	ErrInvalidAge         = errors.New("user: age must be greater than zero")
	ErrInvalidCredentials = errors.New("user: invalid credentials")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Age          int
	Email        string
	PasswordHash string
	Role         Role
	CartID       string
	CreatedAt    time.Time
}

func New(id, firstName, lastName string, age int, email, passwordHash string, role Role, cartID string) (*User, error) {
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if age <= 0 {
		return nil, ErrInvalidAge
	}
	if role == "" {
		role = RoleUser
	}
	return &User{
		ID:           id,
		FirstName:    firstName,
		LastName:     lastName,
		Age:          age,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CartID:       cartID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
