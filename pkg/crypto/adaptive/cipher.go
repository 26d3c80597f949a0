package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/sys/cpu"
)

// KeySize is the key length every algorithm here expects.
const KeySize = 32

// Algorithm names an AEAD construction.
type Algorithm string

const (
	Auto     Algorithm = "auto"
	AESGCM   Algorithm = "aes-gcm"
	ChaCha20 Algorithm = "chacha20-poly1305"
)

var (
	ErrKeySize   = fmt.Errorf("adaptive: key must be %d bytes", KeySize)
	ErrOpen      = errors.New("adaptive: message authentication failed")
	ErrAlgorithm = errors.New("adaptive: unknown algorithm")
)

// ParseAlgorithm accepts the names above; empty means Auto.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return Auto, nil
	case Auto, AESGCM, ChaCha20:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrAlgorithm, s)
	}
}

// Preferred reports the algorithm Auto resolves to on this machine.
func Preferred() Algorithm {
	if hardwareAES() {
		return AESGCM
	}
	return ChaCha20
}

func hardwareAES() bool {
	switch {
	case cpu.X86.HasAES && cpu.X86.HasPCLMULQDQ:
		return true
	case cpu.ARM64.HasAES && cpu.ARM64.HasPMULL:
		return true
	case cpu.S390X.HasAES && cpu.S390X.HasAESGCM:
		return true
	}
	return false
}

// Cipher seals and opens values. It is safe for concurrent use.
type Cipher struct {
	alg  Algorithm
	aead cipher.AEAD
}

// New builds a Cipher for alg, resolving Auto with Preferred.
func New(key []byte, alg Algorithm) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	if alg == Auto || alg == "" {
		alg = Preferred()
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch alg {
	case AESGCM:
		var block cipher.Block
		if block, err = aes.NewCipher(key); err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case ChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrAlgorithm, alg)
	}
	if err != nil {
		return nil, fmt.Errorf("adaptive: %s: %w", alg, err)
	}
	return &Cipher{alg: alg, aead: aead}, nil
}

// Algorithm returns the resolved algorithm, never Auto.
func (c *Cipher) Algorithm() Algorithm { return c.alg }

// Overhead is the number of bytes Seal adds to a value.
func (c *Cipher) Overhead() int { return c.aead.NonceSize() + c.aead.Overhead() }

// Seal encrypts plain under a fresh random nonce, binding ad.
func (c *Cipher) Seal(plain, ad []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	out := make([]byte, n, n+len(plain)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, fmt.Errorf("adaptive: nonce: %w", err)
	}
	return c.aead.Seal(out, out[:n], plain, ad), nil
}

// Open reverses Seal. Any mismatch in key, algorithm, ad or bytes yields ErrOpen.
func (c *Cipher) Open(sealed, ad []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n+c.aead.Overhead() {
		return nil, ErrOpen
	}
	plain, err := c.aead.Open(nil, sealed[:n], sealed[n:], ad)
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}
