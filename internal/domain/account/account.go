package account

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// User is a registered player. PasswordHash is a bcrypt hash.
type User struct {
	Username     string
	PasswordHash string
	Email        string
	CreatedAt    time.Time
}

// Auth binds an opaque token to a username.
type Auth struct {
	Token     string
	Username  string
	CreatedAt time.Time
}

// ValidUsername reports whether name is 1-32 letters, digits or underscores.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// NewAuth issues a fresh random token for username.
func NewAuth(username string, now time.Time) Auth {
	return Auth{Token: uuid.NewString(), Username: username, CreatedAt: now}
}
