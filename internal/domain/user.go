// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"unicode/utf8"
)

const (
	MaxUserIDLen      = 64
	MaxDisplayNameLen = 64
)

var (
	ErrUserIDEmpty        = errors.New("user id empty")
	ErrUserIDTooLong      = errors.New("user id too long")
	ErrDisplayNameTooLong = errors.New("display name too long")
)

type UserID string

// ConnID identifies one live signaling connection. A user id outlives its
// connections: the same id may be registered again from a new ConnID.
type ConnID string

type User struct {
	ID          UserID `json:"userId"`
	DisplayName string `json:"displayName"`
}

// NewUser validates an externally supplied identity. An empty display name
// falls back to the id.
func NewUser(id UserID, displayName string) (User, error) {
	if len(id) == 0 {
		return User{}, ErrUserIDEmpty
	}
	if utf8.RuneCountInString(string(id)) > MaxUserIDLen {
		return User{}, ErrUserIDTooLong
	}
	if displayName == "" {
		displayName = string(id)
	}
	if utf8.RuneCountInString(displayName) > MaxDisplayNameLen {
		return User{}, ErrDisplayNameTooLong
	}
	return User{ID: id, DisplayName: displayName}, nil
}
