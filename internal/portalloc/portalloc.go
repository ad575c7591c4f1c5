// Package portalloc derives a per-tenant network port from an identifier
// without any shared allocation table. The mapping is pure and reproducible
// across hosts, so two invocations never disagree about a tenant's port.
package portalloc

import "strconv"

const (
	// suffixLen is how many trailing characters of the identifier feed the
	// offset computation.
	suffixLen = 3
	// offsetSpan caps the character-sum branch to a thousand-port window.
	offsetSpan = 1000
)

// Allocate maps identifier to a port at or above basePort. The last three
// characters of the identifier form the offset: parsed as a decimal number
// when they are all ASCII digits (leading zeros stay decimal), otherwise
// summed by code point and reduced modulo 1000. An empty identifier yields
// basePort unchanged. Distinct identifiers may collide; callers that need
// uniqueness across a large tenant pool must check for it themselves.
func Allocate(identifier string, basePort int) int {
	return basePort + Offset(identifier)
}

// Offset returns the port offset Allocate adds to the base.
func Offset(identifier string) int {
	suffix := tail(identifier, suffixLen)
	if suffix == "" {
		return 0
	}
	if allDigits(suffix) {
		n, _ := strconv.Atoi(suffix)
		return n
	}
	sum := 0
	for _, r := range suffix {
		sum += int(r)
	}
	return sum % offsetSpan
}

// tail returns the last n characters of s, or s itself when shorter.
// Characters are runes, so a multi-byte character counts once.
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
