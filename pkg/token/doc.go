// Package token generates opaque random tokens and derives short
// fingerprints of credentials.
//
// Fingerprints let a credential be identified in logs and CLI output
// without revealing it: the fingerprint is the first FingerprintLength
// hex characters of the SHA-256 of the bare token, so a stored credential
// and the same credential with a "Bearer " marker share one fingerprint.
package token
