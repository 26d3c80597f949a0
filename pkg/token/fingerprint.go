package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// FingerprintLength is the number of hex characters in a fingerprint.
const FingerprintLength = 12

const bearerPrefix = "bearer "

func bare(cred string) string {
	cred = strings.TrimSpace(cred)
	if len(cred) >= len(bearerPrefix) && strings.EqualFold(cred[:len(bearerPrefix)], bearerPrefix) {
		cred = strings.TrimSpace(cred[len(bearerPrefix):])
	}
	return cred
}

// Fingerprint returns a short stable identifier for cred, or "" when
// cred is blank.
func Fingerprint(cred string) string {
	cred = bare(cred)
	if cred == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(cred))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}

// Matches reports whether cred has fingerprint fp, in constant time.
func Matches(cred, fp string) bool {
	got := Fingerprint(cred)
	if got == "" || len(fp) != FingerprintLength {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(fp))) == 1
}

// Mask keeps the first and last four characters of cred and hides the
// rest. Short credentials are hidden entirely.
func Mask(cred string) string {
	cred = bare(cred)
	if cred == "" {
		return ""
	}
	if len(cred) <= 12 {
		return "****"
	}
	return cred[:4] + "..." + cred[len(cred)-4:]
}
