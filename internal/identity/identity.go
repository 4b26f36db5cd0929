// Package identity defines the participant identifier shared by every
// graphtrust package: a 64-character hexadecimal public key. Values enter
// the domain only through Parse, so anything holding an Identity has
// already matched the pattern.
package identity

import (
	"fmt"
	"regexp"
)

// pattern matches a 64-character hex string. The oracle emits lowercase
// keys but matching is case-insensitive; the original casing is kept.
var pattern = regexp.MustCompile(`^(?i)[0-9a-f]{64}$`)

// Identity is a participant's public key. It is opaque: used as a map key
// and a query parameter, never parsed further.
type Identity string

// Parse validates s against the 64-hex-character pattern and returns it
// as an Identity.
func Parse(s string) (Identity, error) {
	if !Valid(s) {
		return "", fmt.Errorf("identity: %q is not a 64-character hex string", s)
	}
	return Identity(s), nil
}

// MustParse is Parse for known-good literals; it panics on invalid input.
// Intended for tests and hardcoded fixtures only.
func MustParse(s string) Identity {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Valid reports whether s matches the identity pattern. Response
// validation uses this directly on untrusted map keys and array elements.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

func (id Identity) String() string { return string(id) }
