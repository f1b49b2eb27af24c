// Package crypto seals salary columns at rest.
//
// Sealed values are laid out as version(1) || nonce(24) || ciphertext+tag and use
// XChaCha20-Poly1305. The version byte lets a later key or cipher change coexist
// with rows written before it.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealVersion byte = 1

const minPassphraseLen = 32

var ErrMalformed = errors.New("sealed value is malformed")

type Service struct {
	aead cipher.AEAD
}

// New builds a sealer from DATA_ENCRYPTION_KEY. An empty key yields a pass-through
// service. A key that decodes to 32 bytes (hex or base64) is used directly; any other
// key of at least 32 characters is stretched with HKDF-SHA256.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	raw, err := deriveKey(key)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return plain, nil
	}
	out := make([]byte, 1+s.aead.NonceSize(), 1+s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	out[0] = sealVersion
	nonce := out[1:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(out, nonce, plain, []byte{sealVersion}), nil
}

func (s *Service) Decrypt(sealed []byte) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return sealed, nil
	}
	headerLen := 1 + s.aead.NonceSize()
	if len(sealed) < headerLen+s.aead.Overhead() {
		return nil, ErrMalformed
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("%w: unknown version %d", ErrMalformed, sealed[0])
	}
	return s.aead.Open(nil, sealed[1:headerLen], sealed[headerLen:], sealed[:1])
}

func (s *Service) EncryptString(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	return s.Encrypt([]byte(value))
}

func (s *Service) DecryptString(value []byte) (string, error) {
	plain, err := s.Decrypt(value)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// SealDecimal seals a money value. It returns nil for a nil value or an
// unconfigured service, in which case callers store the plain column instead.
func (s *Service) SealDecimal(value *decimal.Decimal) ([]byte, error) {
	if value == nil || !s.Configured() {
		return nil, nil
	}
	return s.EncryptString(value.String())
}

// OpenDecimal reads a money column pair. The sealed value wins; the plain one is
// used for rows written before sealing was configured or when opening fails.
func (s *Service) OpenDecimal(sealed []byte, plain *string) (*decimal.Decimal, error) {
	if len(sealed) > 0 && s.Configured() {
		raw, err := s.DecryptString(sealed)
		if err == nil {
			d, parseErr := decimal.NewFromString(raw)
			if parseErr == nil {
				return &d, nil
			}
			err = parseErr
		}
		if plain == nil {
			return nil, fmt.Errorf("open sealed amount: %w", err)
		}
	}
	if plain == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*plain)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func deriveKey(key string) ([]byte, error) {
	if decoded, ok := decodeKey(key); ok && len(decoded) == chacha20poly1305.KeySize {
		return decoded, nil
	}
	if len(key) < minPassphraseLen {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must decode to 32 bytes or be at least %d characters", minPassphraseLen)
	}
	out := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(key), nil, []byte("hrportal salary columns")), out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeKey(raw string) ([]byte, bool) {
	if decoded, err := hex.DecodeString(raw); err == nil {
		return decoded, true
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return decoded, true
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return decoded, true
	}
	return nil, false
}
