package abuse

import (
	"strings"
)

const walletAddressLen = 42

// ValidWallet reports whether the address is parseable as an EVM-style
// wallet: 0x plus 40 hex characters.
func ValidWallet(addr string) bool {
	addr = strings.TrimSpace(addr)
	if len(addr) != walletAddressLen {
		return false
	}
	if !strings.HasPrefix(addr, "0x") {
		return false
	}
	for _, c := range addr[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// MalformedAddress flags invalid or placeholder identities: wrong shape, or
// an all-zero prefix typical of burner/test addresses.
func MalformedAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if !ValidWallet(addr) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(addr), "0x00000000")
}
