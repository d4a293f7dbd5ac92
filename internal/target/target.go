// Package target classifies the probe target before a connection mode is chosen.
package target

import (
	"net/netip"
	"strings"
)

// Kind represents how a target host is named.
type Kind string

const (
	// KindAddress is an IPv4 or IPv6 literal.
	KindAddress Kind = "address"
	// KindName is anything else, typically a hostname or FQDN.
	KindName Kind = "name"
)

// Classify detects whether the target is an IP literal or a name.
//
// Examples:
//   - "10.0.0.5" -> KindAddress
//   - "2001:db8::1" -> KindAddress
//   - "dc01.domain.local" -> KindName
func Classify(value string) Kind {
	value = strings.TrimSpace(value)

	if _, err := netip.ParseAddr(value); err == nil {
		return KindAddress
	}

	return KindName
}
