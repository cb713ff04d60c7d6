package storage

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the hex SHA-256 of a document's bytes. List reports it
// and the index stores it to skip unchanged documents on Sync.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
