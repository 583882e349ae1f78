package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// APIKeyScheme prefixes every issued key
const APIKeyScheme = "lsk"

// APIKey is an issued client credential. Only the bcrypt hash of the
// secret is stored; Prefix identifies the row without revealing the key.
type APIKey struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Prefix    string     `json:"prefix"`
	Hash      string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// GenerateAPIKey returns a new plaintext key of the form lsk_<prefix>_<secret>
func GenerateAPIKey() (key, prefix string, err error) {
	buf := make([]byte, 4+24)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate api key: %w", err)
	}
	prefix = hex.EncodeToString(buf[:4])
	key = APIKeyScheme + "_" + prefix + "_" + hex.EncodeToString(buf[4:])
	return key, prefix, nil
}

// ParseAPIKeyPrefix extracts the lookup prefix of a presented key
func ParseAPIKeyPrefix(key string) (string, bool) {
	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 || parts[0] != APIKeyScheme || len(parts[1]) != 8 || parts[2] == "" {
		return "", false
	}
	return parts[1], true
}
