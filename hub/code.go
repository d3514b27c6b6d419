package hub

import (
	"crypto/rand"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxCodeAttempts = 32
)

// GenerateCode returns a random 6-character uppercase alphanumeric code.
func GenerateCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	// modulo bias is acceptable for room codes
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// NormalizeCode makes client-supplied codes case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", errUsernameRequired
	case !utf8.ValidString(name):
		return "", errUsernameEncoding
	case utf8.RuneCountInString(name) > MaxUsernameLength:
		return "", errUsernameTooLong
	}
	return name, nil
}

// clampMaxUsers maps an absent value to the default and anything else into
// [MinRoomSize, MaxRoomSize].
func clampMaxUsers(n int) int {
	switch {
	case n == 0:
		return DefaultRoomSize
	case n < MinRoomSize:
		return MinRoomSize
	case n > MaxRoomSize:
		return MaxRoomSize
	}
	return n
}
