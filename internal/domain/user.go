// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxUserNameLen = 64

var (
	ErrUserNameEmpty   = errors.New("user name empty")
	ErrUserNameTooLong = errors.New("user name too long")
	ErrInvalidRole     = errors.New("invalid role")
)

type UserID string

// Role is supplied by the upstream auth layer at registration.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	// RoleAssistant only appears as a chat authorship role, never at registration.
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleTeacher, RoleStudent, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// NewUser avoids ad-hoc struct literals in adapters and keeps validation in one place.
func NewUser(id UserID, name string, role Role) (User, error) {
	if len(name) == 0 {
		return User{}, ErrUserNameEmpty
	}
	if len(name) > MaxUserNameLen {
		return User{}, ErrUserNameTooLong
	}
	if !role.Valid() {
		return User{}, ErrInvalidRole
	}
	return User{ID: id, Name: name, Role: role}, nil
}
