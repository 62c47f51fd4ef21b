package collections

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sha256Bytes computes the sha256 hash of a byte slice
func Sha256Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
