// Package domain contains the room entities and their local invariants.
// Nothing here performs I/O or knows who is allowed to do what.
package domain

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

const MaxUsernameLen = 36

type UserID string

// Roles are independent flags; an admin holds every co-admin capability.
type Roles struct {
	IsAdmin   bool `json:"is_admin"`
	IsCoAdmin bool `json:"is_co_admin"`
}

type User struct {
	ID       UserID           `json:"user_id"`
	Username string           `json:"username"`
	Roles    Roles            `json:"roles"`
	Personal PersonalSettings `json:"personal"`
	// Joined orders members by arrival; it is the room revision at insert.
	Joined uint64 `json:"joined"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in callers.
func NewUser(username string) (User, error) {
	if err := ValidateUsername(username); err != nil {
		return User{}, err
	}
	return User{
		ID:       UserID(uuid.NewString()),
		Username: username,
		Personal: DefaultPersonalSettings(),
	}, nil
}

// ValidateUsername enforces the shape command addressing relies on.
func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return ErrUsernameInvalid
	}
	return nil
}
