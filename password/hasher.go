package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultMinLength is the shortest password accepted by [Hasher.Hash].
	DefaultMinLength = 6
	// DefaultMaxBytes caps password size to bound hashing cost.
	DefaultMaxBytes = 1024
)

var (
	// ErrTooShort is returned by Hash for passwords under Config.MinLength.
	ErrTooShort = errors.New("password too short")
	// ErrTooLong is returned for passwords over Config.MaxBytes.
	ErrTooLong = errors.New("password too long")
	// ErrUnsupportedHash is returned for stored hashes in an unknown format.
	ErrUnsupportedHash = errors.New("unsupported password hash")
)

// Config holds argon2id cost parameters and the length policy.
type Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	// MinLength is counted in runes. Zero selects DefaultMinLength.
	MinLength int
	// MaxBytes is counted in bytes. Zero selects DefaultMaxBytes.
	MaxBytes int
}

// DefaultConfig returns the argon2id parameters used when none are supplied.
func DefaultConfig() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   DefaultMinLength,
		MaxBytes:    DefaultMaxBytes,
	}
}

// Hasher produces argon2id hashes and verifies argon2id or legacy bcrypt ones.
// It is immutable after construction and safe for concurrent use.
type Hasher struct {
	config Config
}

// New validates cfg and returns a [Hasher].
func New(cfg Config) (*Hasher, error) {
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MinLength < 1 || cfg.MaxBytes < cfg.MinLength {
		return nil, errors.New("invalid password length policy")
	}
	if err := validateArgon2(cfg); err != nil {
		return nil, err
	}
	return &Hasher{config: cfg}, nil
}

// MinLength returns the effective minimum password length.
func (h *Hasher) MinLength() int { return h.config.MinLength }

// CheckPolicy reports whether password satisfies the length policy.
func (h *Hasher) CheckPolicy(password string) error {
	if len([]rune(password)) < h.config.MinLength {
		return fmt.Errorf("%w: minimum %d characters", ErrTooShort, h.config.MinLength)
	}
	if len(password) > h.config.MaxBytes {
		return ErrTooLong
	}
	return nil
}

// Hash returns the PHC-encoded argon2id hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if err := h.CheckPolicy(password); err != nil {
		return "", err
	}
	return hashArgon2(h.config, password)
}

// Verify reports whether password matches encoded. A mismatch is (false, nil);
// an error means encoded could not be interpreted.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	if len(password) > h.config.MaxBytes {
		return false, ErrTooLong
	}

	switch {
	case strings.HasPrefix(encoded, "$"+argon2ID+"$"):
		return verifyArgon2(password, encoded)
	case isBcrypt(encoded):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsRehash reports whether encoded should be replaced by a fresh Hash.
func (h *Hasher) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false
	}
	return h.config.Memory > parsed.memory ||
		h.config.Time > parsed.time ||
		h.config.Parallelism > parsed.parallelism ||
		h.config.KeyLength != parsed.keyLength
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
