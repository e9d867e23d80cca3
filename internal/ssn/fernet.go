package ssn

import (
	"fmt"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
)

// Tokens never expire; the workbooks hold them indefinitely.
const tokenTTL time.Duration = 0

// sealer wraps one Fernet key.
type sealer struct {
	key *fernet.Key
}

func newSealer(key string) (*sealer, error) {
	k, err := fernet.DecodeKey(strings.TrimSpace(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &sealer{key: k}, nil
}

func (s *sealer) seal(plaintext []byte) (string, error) {
	tok, err := fernet.EncryptAndSign(plaintext, s.key)
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return string(tok), nil
}

// open returns ErrDecryption for malformed tokens, tokens signed with a
// different key, and tampered tokens alike.
func (s *sealer) open(token string) ([]byte, error) {
	msg := fernet.VerifyAndDecrypt([]byte(strings.TrimSpace(token)), tokenTTL, []*fernet.Key{s.key})
	if msg == nil {
		return nil, fmt.Errorf("%w: invalid token", ErrDecryption)
	}
	return msg, nil
}
