package util

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Reset token layout: "<uuid>.<secret>". The uuid is the primary key of
// the stored record, so a presented token can be looked up by indexed ID
// and then verified against the stored salted hash. Only the hash and
// salt are ever persisted.

const (
	// DefaultResetSecretLength is the hex length of the secret half of
	// the token. 64 hex characters carry 256 bits of entropy.
	DefaultResetSecretLength = 64

	resetSaltBytes = 16
)

var ErrMalformedResetToken = errors.New("malformed reset token")

// GeneratedResetToken carries a freshly minted token. Raw goes into the
// email, Hash and Salt go into the database.
type GeneratedResetToken struct {
	ID   uuid.UUID
	Raw  string
	Hash string
	Salt string
}

// ResetTokenCodec mints and verifies opaque reset tokens. The random
// source is pluggable so tests can be deterministic; production code
// uses crypto/rand.
type ResetTokenCodec struct {
	random       io.Reader
	secretLength int
}

func NewResetTokenCodec(secretLength int) *ResetTokenCodec {
	if secretLength <= 0 {
		secretLength = DefaultResetSecretLength
	}
	return &ResetTokenCodec{
		random:       rand.Reader,
		secretLength: secretLength,
	}
}

// NewResetTokenCodecWithRandom is for tests that need a fixed source.
func NewResetTokenCodecWithRandom(secretLength int, random io.Reader) *ResetTokenCodec {
	codec := NewResetTokenCodec(secretLength)
	codec.random = random
	return codec
}

// Generate mints a new token with a fresh ID, secret and per-token salt.
func (c *ResetTokenCodec) Generate() (*GeneratedResetToken, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token id: %w", err)
	}

	secretBytes := make([]byte, c.secretLength/2)
	if _, err := io.ReadFull(c.random, secretBytes); err != nil {
		return nil, fmt.Errorf("failed to read random secret: %w", err)
	}
	secret := hex.EncodeToString(secretBytes)

	saltBytes := make([]byte, resetSaltBytes)
	if _, err := io.ReadFull(c.random, saltBytes); err != nil {
		return nil, fmt.Errorf("failed to read random salt: %w", err)
	}
	salt := hex.EncodeToString(saltBytes)

	return &GeneratedResetToken{
		ID:   id,
		Raw:  id.String() + "." + secret,
		Hash: hashResetSecret(salt, secret),
		Salt: salt,
	}, nil
}

// Verify recomputes the salted hash of a presented secret and compares
// it to the stored hash in constant time. It returns a boolean only;
// mismatch is not an error.
func (c *ResetTokenCodec) Verify(secret, salt, storedHash string) bool {
	computed := hashResetSecret(salt, secret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// SplitResetToken parses a raw token into its ID and secret halves.
func SplitResetToken(raw string) (uuid.UUID, string, error) {
	idPart, secret, found := strings.Cut(raw, ".")
	if !found || secret == "" {
		return uuid.Nil, "", ErrMalformedResetToken
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", ErrMalformedResetToken
	}
	return id, secret, nil
}

func hashResetSecret(salt, secret string) string {
	sum := sha512.Sum512([]byte(salt + secret))
	return hex.EncodeToString(sum[:])
}
