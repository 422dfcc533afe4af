package validation

import (
	"net/mail"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	usernameRe    = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	displayNameRe = regexp.MustCompile(`^[^\s].{0,98}[^\s]$|^[^\s]$`)
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func ValidateUsername(username string) bool {
	username = NormalizeUsername(username)
	return usernameRe.MatchString(username)
}

// ValidateDisplayName accepts 1-100 visible characters without leading or
// trailing whitespace. Display names key memberships and messages, so they
// follow the same size cap as room names.
func ValidateDisplayName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return false
	}
	return displayNameRe.MatchString(name)
}

// ValidateRoomName rejects empty names after trimming; room names are keys
// and capped at 100 bytes to match the column size.
func ValidateRoomName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= 100
}

func PasswordMinLength() int {
	minStr := os.Getenv("PASSWORD_MIN_LENGTH")
	if minStr == "" {
		return 10
	}
	min, err := strconv.Atoi(minStr)
	if err != nil || min < 8 {
		return 10
	}
	return min
}

func ValidatePassword(password string) bool {
	return len(password) >= PasswordMinLength()
}

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}
