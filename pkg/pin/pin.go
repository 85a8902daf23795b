// Package pin derives the deterministic PIN that guards modification of an
// existing address record.
//
// The PIN is hex(SHA256(secret || name || domain)). It is re-derivable by
// anyone who knows the process secret, which is a documented trade-off: the
// legitimate owner can always recompute their PIN from the deep link they
// received, and the secret itself never travels over the wire.
package pin

import (
	"crypto/sha256"
	"encoding/hex"
)

// Compute returns the 64-character hex PIN for the given address.
func Compute(secret, name, domain string) string {
	h := sha256.New()
	h.Write([]byte(secret))
	h.Write([]byte(name))
	h.Write([]byte(domain))
	return hex.EncodeToString(h.Sum(nil))
}
