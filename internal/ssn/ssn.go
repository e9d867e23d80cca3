// Package ssn encrypts, decrypts and masks Social Security Numbers.
//
// Encrypted values are Fernet tokens so workbooks produced by the legacy
// tooling (Python cryptography.Fernet) stay readable. Encrypt and Decrypt
// report failures; Mask and Last4 never do and fall back to full redaction.
package ssn

import (
	"errors"
	"fmt"
	"os"

	"github.com/fernet/fernet-go"
)

// EnvKey is the environment variable holding the process encryption key.
const EnvKey = "ENCRYPTION_KEY"

const (
	// Redacted is returned by Mask whenever the last four digits are unavailable.
	Redacted = "***-**-****"
	// RedactedLast4 is returned by Last4 whenever the last four digits are unavailable.
	RedactedLast4 = "****"

	maskPrefix = "***-**-"
	// Inputs longer than a formatted plaintext SSN are treated as ciphertext.
	encryptedThreshold = 15
)

var (
	ErrNotConfigured = errors.New("ssn: encryption key not configured")
	ErrInvalidKey    = errors.New("ssn: invalid encryption key")
	ErrDecryption    = errors.New("ssn: decryption failed")
)

// Protector performs SSN operations with one key. The zero value and a
// Protector built from an empty key are valid but unconfigured.
type Protector struct {
	s *sealer
}

// New builds a Protector. An empty key yields an unconfigured Protector;
// a malformed key is an error.
func New(key string) (*Protector, error) {
	if key == "" {
		return &Protector{}, nil
	}
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}
	return &Protector{s: s}, nil
}

// FromEnv builds a Protector from ENCRYPTION_KEY.
func FromEnv() (*Protector, error) {
	return New(os.Getenv(EnvKey))
}

// Configured reports whether a key is loaded.
func (p *Protector) Configured() bool {
	return p != nil && p.s != nil
}

// Encrypt returns an opaque token for plaintext. Repeated calls produce
// different tokens.
func (p *Protector) Encrypt(plaintext string) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}
	return p.s.seal([]byte(plaintext))
}

// Decrypt reverses Encrypt.
func (p *Protector) Decrypt(token string) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}
	b, err := p.s.open(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Mask renders input as ***-**-DDDD. Input may be a plaintext SSN or a token.
func (p *Protector) Mask(input string) string {
	last4, ok := p.last4(input)
	if !ok {
		return Redacted
	}
	return maskPrefix + last4
}

// Last4 returns the trailing four characters of the plaintext SSN, or ****.
func (p *Protector) Last4(input string) string {
	last4, ok := p.last4(input)
	if !ok {
		return RedactedLast4
	}
	return last4
}

func (p *Protector) last4(input string) (string, bool) {
	if input == "" {
		return "", false
	}
	plain := input
	if len(input) > encryptedThreshold {
		dec, err := p.Decrypt(input)
		if err != nil {
			return "", false
		}
		plain = dec
	}
	if len(plain) < 4 {
		return "", false
	}
	return plain[len(plain)-4:], true
}

// MaskLast4 builds the masked display form from a bare last-four fragment.
func MaskLast4(fragment string) string {
	if len(fragment) < 4 {
		return Redacted
	}
	return maskPrefix + fragment[len(fragment)-4:]
}

// GenerateKey returns a new random key in the format New accepts.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return k.Encode(), nil
}
