package services

import (
	"fmt"
	"regexp"
)

// UnlockMatcher finds the unlock code an assistant emits when a learner has
// passed a recitation.
type UnlockMatcher struct {
	re *regexp.Regexp
}

// NewUnlockMatcher compiles pattern, which must contain a capture group.
func NewUnlockMatcher(pattern string) (*UnlockMatcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("unlock pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("unlock pattern %q has no capture group", pattern)
	}
	return &UnlockMatcher{re: re}, nil
}

// MustUnlockMatcher is NewUnlockMatcher that panics on error.
func MustUnlockMatcher(pattern string) *UnlockMatcher {
	m, err := NewUnlockMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Find returns the first full match in reply and its captured suffix.
func (m *UnlockMatcher) Find(reply string) (code, suffix string, ok bool) {
	sub := m.re.FindStringSubmatch(reply)
	if sub == nil {
		return "", "", false
	}
	return sub[0], sub[1], true
}
