// Package vault provides AES-GCM encryption for credentials that live
// inside synced collections, such as the stored spreadsheet OAuth token.
// Values are encrypted before they reach the store, so neither the local
// files nor the relay ever carry the plaintext.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

var errCiphertext = errors.New("decryption failed (wrong key or tampered data)")

// Encrypt seals plaintext under a 32-byte key and returns a hex string with
// the nonce prepended.
func Encrypt(plaintext string, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails on a wrong key, a tampered value, or
// anything that is not the hex output of Encrypt.
func Decrypt(cipherHex string, key []byte) (string, error) {
	sealed, err := hex.DecodeString(cipherHex)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}
	if len(sealed) < gcm.NonceSize() {
		return "", errCiphertext
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errCiphertext
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
