// Package adaptive seals byte values with an AEAD chosen for the host:
// AES-256-GCM when the CPU accelerates AES, ChaCha20-Poly1305 otherwise.
//
// Sealed output is nonce || ciphertext || tag, so a value can be opened
// by any Cipher built from the same key and algorithm.
//
//	c, err := adaptive.New(key, adaptive.Auto)
//	sealed, err := c.Seal(plain, []byte("credential"))
//	plain, err = c.Open(sealed, []byte("credential"))
package adaptive
