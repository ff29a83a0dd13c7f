package utils

import (
	"crypto/rand"
)

// GenerateRandomKey returns 32 bytes of cryptographically random key
// material for signing tokens.
func GenerateRandomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		// crypto/rand failing means the OS entropy source is broken;
		// there is no way to continue safely.
		panic("utils: failed to read random key: " + err.Error())
	}
	return key
}
