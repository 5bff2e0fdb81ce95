package credentials

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var ErrSealedTokenInvalid = errors.New("sealed token invalid or wrong passphrase")

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// SealToken encrypts a bearer token with a passphrase-derived key so it can
// be kept in the durable snapshot between runs.
func SealToken(token, passphrase string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := make([]byte, 0, saltSize+nonceSize+len(token)+secretbox.Overhead)
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce[:]...)
	return secretbox.Seal(sealed, []byte(token), &nonce, key), nil
}

// OpenToken decrypts a token previously sealed with SealToken.
func OpenToken(sealed []byte, passphrase string) (string, error) {
	if len(sealed) < saltSize+nonceSize+secretbox.Overhead {
		return "", ErrSealedTokenInvalid
	}

	salt := sealed[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[saltSize:saltSize+nonceSize])

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return "", err
	}

	token, ok := secretbox.Open(nil, sealed[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", ErrSealedTokenInvalid
	}
	return string(token), nil
}

func deriveKey(passphrase string, salt []byte) (*[keySize]byte, error) {
	raw, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	key := new([keySize]byte)
	copy(key[:], raw)
	return key, nil
}
