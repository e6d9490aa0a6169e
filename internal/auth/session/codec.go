// Package session seals session records into tamper-proof cookie values.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrShortSecret is returned when the sealing secret is under 32 bytes
	ErrShortSecret = errors.New("session secret must be at least 32 bytes long")

	// ErrMalformed is returned when a cookie value cannot be opened
	ErrMalformed = errors.New("malformed session cookie")
)

// Codec encrypts and authenticates session records with AES-256-GCM
type Codec struct {
	aead   cipher.AEAD
	secure bool
}

// NewCodec creates a codec keyed by the first 32 bytes of secret.
// secure controls the Secure attribute of the cookies it builds.
func NewCodec(secret string, secure bool) (*Codec, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}

	block, err := aes.NewCipher([]byte(secret)[:32])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{aead: gcm, secure: secure}, nil
}

// Seal marshals v to JSON and returns the encrypted, URL-safe encoding
func (c *Codec) Seal(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session data: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal into v
func (c *Codec) Open(value string, v any) error {
	encrypted, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(encrypted) < nonceSize {
		return fmt.Errorf("%w: encrypted data too short", ErrMalformed)
	}

	nonce, ciphertext := encrypted[:nonceSize], encrypted[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Cookie seals v into an HttpOnly cookie named name that lives for maxAge
func (c *Codec) Cookie(name string, v any, maxAge time.Duration) (*http.Cookie, error) {
	if maxAge <= 0 {
		return nil, fmt.Errorf("invalid cookie expiration time")
	}

	value, err := c.Seal(v)
	if err != nil {
		return nil, err
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	}, nil
}

// Clear returns a cookie that deletes name on the client
func (c *Codec) Clear(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	}
}

// Find returns the named cookie from a cookie set
func Find(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie != nil && cookie.Name == name {
			return cookie
		}
	}
	return nil
}
