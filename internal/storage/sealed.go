package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/PHJ369906/aox-miniapp/pkg/crypto/adaptive"
)

// Sealing errors.
var (
	ErrPassphraseTooShort = errors.New("storage: passphrase too short (minimum 8 characters)")
	ErrDecryptionFailed   = errors.New("storage: decryption failed - wrong passphrase or corrupted data")
	ErrCipherMismatch     = errors.New("storage: store was sealed with a different cipher")
)

// Reserved keys Sealed keeps in clear.
const (
	SaltKey   = "__aox_salt"
	CipherKey = "__aox_cipher"
)

const (
	saltLength    = 16
	minPassphrase = 8

	// Argon2id parameters
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// Sealed encrypts values before handing them to the wrapped KV.
//
// Stored format: nonce || ciphertext || tag. The key name is bound as
// additional data, so a value copied under another key fails to open.
type Sealed struct {
	inner  KV
	cipher *adaptive.Cipher
}

// NewSealed derives the key from passphrase and the store's salt,
// creating the salt on first use. The algorithm is fixed the first time a
// store is sealed; later opens reuse it, and an explicit alg that differs
// fails with ErrCipherMismatch.
func NewSealed(ctx context.Context, inner KV, passphrase string, alg adaptive.Algorithm) (*Sealed, error) {
	if len(passphrase) < minPassphrase {
		return nil, ErrPassphraseTooShort
	}

	salt, err := loadOrCreateSalt(ctx, inner)
	if err != nil {
		return nil, err
	}
	alg, err = resolveCipher(ctx, inner, alg)
	if err != nil {
		return nil, err
	}

	key := argon2.IDKey([]byte(passphrase), salt, argon2Time, argon2Memory, argon2Threads, adaptive.KeySize)
	c, err := adaptive.New(key, alg)
	if err != nil {
		return nil, fmt.Errorf("storage: create cipher: %w", err)
	}
	return &Sealed{inner: inner, cipher: c}, nil
}

func loadOrCreateSalt(ctx context.Context, inner KV) ([]byte, error) {
	salt, err := inner.Get(ctx, SaltKey)
	if err == nil {
		if len(salt) != saltLength {
			return nil, fmt.Errorf("storage: invalid salt length %d", len(salt))
		}
		return salt, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("storage: read salt: %w", err)
	}

	salt = make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("storage: generate salt: %w", err)
	}
	if err := inner.Set(ctx, SaltKey, salt); err != nil {
		return nil, fmt.Errorf("storage: write salt: %w", err)
	}
	return salt, nil
}

func resolveCipher(ctx context.Context, inner KV, want adaptive.Algorithm) (adaptive.Algorithm, error) {
	stored, err := GetString(ctx, inner, CipherKey)
	if err != nil {
		return "", fmt.Errorf("storage: read cipher: %w", err)
	}
	if stored != "" {
		alg, err := adaptive.ParseAlgorithm(stored)
		if err != nil {
			return "", fmt.Errorf("storage: stored cipher: %w", err)
		}
		if want != "" && want != adaptive.Auto && want != alg {
			return "", fmt.Errorf("%w: have %s, want %s", ErrCipherMismatch, alg, want)
		}
		return alg, nil
	}

	if want == "" || want == adaptive.Auto {
		want = adaptive.Preferred()
	}
	if err := inner.Set(ctx, CipherKey, []byte(want)); err != nil {
		return "", fmt.Errorf("storage: write cipher: %w", err)
	}
	return want, nil
}

// Algorithm returns the cipher in use.
func (s *Sealed) Algorithm() adaptive.Algorithm { return s.cipher.Algorithm() }

func (s *Sealed) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.cipher.Open(data, []byte(key))
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plain, nil
}

func (s *Sealed) Set(ctx context.Context, key string, value []byte) error {
	if key == SaltKey || key == CipherKey {
		return fmt.Errorf("storage: key %q is reserved", key)
	}
	sealed, err := s.cipher.Seal(value, []byte(key))
	if err != nil {
		return fmt.Errorf("storage: seal: %w", err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Sealed) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

func (s *Sealed) Close() error {
	return s.inner.Close()
}
