package canonical

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestBytes returns the lowercase hex SHA-256 digest of the exact
// bytes given. This is the content address used everywhere: artifact
// keys, span input/output digests, document provenance digests.
func DigestBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Digest canonically serializes v and returns its digest together with
// the serialized bytes, so callers can store exactly what they hashed.
func Digest(v any) (string, []byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return DigestBytes(b), b, nil
}
