// Package cache stores query results keyed by a deterministic fingerprint of
// the post-security statement and its parameters, with TTL expiry.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Fingerprint derives the cache key for a (sql, params) pair. It is a pure
// function of the normalized statement text and the canonical JSON encoding
// of params, so identical pairs map to the same entry on every instance.
func Fingerprint(sqlText string, params any) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimSpace(sqlText)))
	h.Write([]byte{0})
	if params != nil {
		// encoding/json sorts map keys, which keeps object params canonical.
		if encoded, err := json.Marshal(params); err == nil {
			h.Write(encoded)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
