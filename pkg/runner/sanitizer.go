package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds a single user message in bytes.
const DefaultMaxInputSize = 16 << 10

// EnvMaxInputSize names the variable that overrides DefaultMaxInputSize.
const EnvMaxInputSize = "CINEBRAIN_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// InputPolicy decides what a user message may contain.
type InputPolicy struct {
	MaxBytes int
}

// PolicyFromEnv returns the default policy, with MaxBytes taken from
// EnvMaxInputSize when that holds a positive integer.
func PolicyFromEnv() InputPolicy {
	p := InputPolicy{MaxBytes: DefaultMaxInputSize}
	if n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && n > 0 {
		p.MaxBytes = n
	}
	return p
}

// Clean rejects oversized or malformed input and drops control characters
// except newline, tab and carriage return. Input is never truncated.
func (p InputPolicy) Clean(input string) (string, error) {
	if len(input) > p.MaxBytes {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), p.MaxBytes)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(keepRune, input), nil
}

// SanitizeInput applies PolicyFromEnv to input.
func SanitizeInput(input string) (string, error) {
	return PolicyFromEnv().Clean(input)
}

func keepRune(r rune) rune {
	switch r {
	case '\n', '\t', '\r':
		return r
	}
	if unicode.IsControl(r) {
		return -1
	}
	return r
}
