// Package crypto wraps bcrypt password hashing behind a concurrency-bounded
// hasher so adaptive hashing cannot monopolize the schedulable CPUs under
// concurrent sign-ups.
package crypto

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// hashCost is the fixed bcrypt cost factor.
const hashCost = 10

var (
	// ErrHash reports an infrastructure failure while deriving a hash.
	ErrHash = errors.New("password hashing failed")
	// ErrVerify reports an infrastructure failure while checking a hash.
	ErrVerify = errors.New("password verification failed")
)

// Hasher derives and checks bcrypt hashes. At most GOMAXPROCS derivations run
// at once; callers queue on their request context.
type Hasher struct {
	sem *semaphore.Weighted
}

// NewHasher constructs a Hasher sized to the available CPUs.
func NewHasher() *Hasher {
	return &Hasher{sem: semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))}
}

// Hash derives a salted hash from the plaintext. Malformed-input failures from
// the primitive surface verbatim; anything else wraps ErrHash.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHash, err)
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		if isInputError(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrHash, err)
	}
	return string(hashed), nil
}

// Verify recomputes and compares using bcrypt's own comparator. A plain
// mismatch returns (false, nil); only infrastructure failures return an error,
// with the same malformed-input carve-out as Hash.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerify, err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case isInputError(err):
		return false, err
	default:
		return false, fmt.Errorf("%w: %v", ErrVerify, err)
	}
}

// isInputError classifies bcrypt failures caused by the shape of the input
// rather than by the primitive itself.
func isInputError(err error) bool {
	var version bcrypt.HashVersionTooNewError
	var prefix bcrypt.InvalidHashPrefixError
	var cost bcrypt.InvalidCostError
	return errors.Is(err, bcrypt.ErrPasswordTooLong) ||
		errors.Is(err, bcrypt.ErrHashTooShort) ||
		errors.As(err, &version) ||
		errors.As(err, &prefix) ||
		errors.As(err, &cost)
}
