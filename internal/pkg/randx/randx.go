/*
Package randx generates the identifiers used by the signaling layer.

Connection ids are UUID v4 strings assigned at upgrade time; fallback
display names are built from cryptographically secure random hex.
*/
package randx

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// UsernamePrefix is prepended to generated display names.
	UsernamePrefix = "User-"

	// usernameHexLength is the number of hex characters in a generated name.
	usernameHexLength = 8
)

// ConnectionID returns a new UUID v4 string used as a connection id.
// Ids are never reused within the lifetime of the process.
func ConnectionID() string {
	return uuid.New().String()
}

// Username generates a fallback display name of the form "User-" followed
// by 8 random hex characters, for clients that join without one.
func Username() (string, error) {
	raw := make([]byte, usernameHexLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random username: %w", err)
	}

	return UsernamePrefix + hex.EncodeToString(raw), nil
}

// IsGeneratedUsername reports whether the name matches the shape produced
// by Username.
func IsGeneratedUsername(name string) bool {
	if !strings.HasPrefix(name, UsernamePrefix) {
		return false
	}

	raw := name[len(UsernamePrefix):]
	if len(raw) != usernameHexLength {
		return false
	}

	_, err := hex.DecodeString(raw)
	return err == nil
}
