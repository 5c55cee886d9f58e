package security

import (
	"PropDesk/internal/core/ports"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// sealedPrefix marks values written by this service. Rows without it are
// legacy plaintext from sources that predate sealing.
const sealedPrefix = "enc:v1:"

// aesSealer implements ports.SecretSealer with AES-GCM.
type aesSealer struct {
	gcm cipher.AEAD
	log zerolog.Logger
}

var _ ports.SecretSealer = (*aesSealer)(nil)

// NewAESSealer creates a sealer from a 16 or 32 byte key.
func NewAESSealer(encryptionKey []byte, baseLogger *zerolog.Logger) (ports.SecretSealer, error) {
	if len(encryptionKey) != 16 && len(encryptionKey) != 32 {
		return nil, errors.New("encryptionKey must be 16 or 32 bytes")
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("could not create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not create GCM: %w", err)
	}

	log := baseLogger.With().Str("component", "secret_sealer").Logger()
	log.Info().Msg("Secret sealer initialized")

	return &aesSealer{gcm: gcm, log: log}, nil
}

// Seal encrypts plaintext and returns a prefixed base64 string.
func (s *aesSealer) Seal(plaintext string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		s.log.Error().Err(err).Msg("Failed to generate nonce")
		return "", fmt.Errorf("could not generate nonce: %w", err)
	}

	ciphertext := s.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Open decrypts a value produced by Seal.
func (s *aesSealer) Open(stored string) (string, error) {
	if !s.IsSealed(stored) {
		return "", errors.New("value is not sealed")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("could not decode sealed value: %w", err)
	}

	nonceSize := s.gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", errors.New("ciphertext is too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to open sealed value (tampered or wrong key?)")
		return "", fmt.Errorf("could not decrypt: %w", err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether stored was produced by Seal.
func (s *aesSealer) IsSealed(stored string) bool {
	return strings.HasPrefix(stored, sealedPrefix)
}
