// Package credential issues short numeric codes used to verify domestic
// help and visitors at the gate.
package credential

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/evcraddock/gatepass/internal/apperr"
)

const (
	// MinCode and MaxCode bound the 6-digit code space, inclusive.
	MinCode = 100000
	MaxCode = 999999

	spaceSize = MaxCode - MinCode + 1

	// maxRandomAttempts is how many colliding draws happen before falling
	// back to a linear scan for a free code.
	maxRandomAttempts = 64
)

// Source returns a uniformly distributed int in [0, n).
type Source interface {
	IntN(n int) (int, error)
}

type cryptoSource struct{}

func (cryptoSource) IntN(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// Issuer produces codes that do not collide with a given set of codes.
type Issuer struct {
	src Source
}

// NewIssuer creates an issuer backed by crypto/rand.
func NewIssuer() *Issuer {
	return &Issuer{src: cryptoSource{}}
}

// NewIssuerWithSource creates an issuer using src for randomness.
func NewIssuerWithSource(src Source) *Issuer {
	return &Issuer{src: src}
}

// Issue returns a 6-digit code not present in existing.
// Returns *apperr.ExhaustionError if the whole space is occupied.
func (i *Issuer) Issue(existing map[string]struct{}) (string, error) {
	if occupied(existing) >= spaceSize {
		return "", &apperr.ExhaustionError{Space: spaceSize}
	}

	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		n, err := i.src.IntN(spaceSize)
		if err != nil {
			return "", fmt.Errorf("drawing code: %w", err)
		}
		code := format(n)
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}

	// Dense set: walk the space from a random offset.
	start, err := i.src.IntN(spaceSize)
	if err != nil {
		return "", fmt.Errorf("drawing scan offset: %w", err)
	}
	for step := 0; step < spaceSize; step++ {
		code := format((start + step) % spaceSize)
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}

	return "", &apperr.ExhaustionError{Space: spaceSize}
}

// Valid reports whether code is a well-formed 6-digit code.
func Valid(code string) bool {
	if len(code) != 6 {
		return false
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return false
	}
	return n >= MinCode && n <= MaxCode
}

// occupied counts the codes in existing that fall inside the code space.
func occupied(existing map[string]struct{}) int {
	if len(existing) < spaceSize {
		return len(existing)
	}
	count := 0
	for code := range existing {
		if Valid(code) {
			count++
		}
	}
	return count
}

func format(offset int) string {
	return strconv.Itoa(MinCode + offset)
}
