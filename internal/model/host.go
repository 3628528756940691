package model

import (
	"net/netip"
	"strings"
)

// ClassifyHost interprets host text the way RFC 3986 section 3.2.2 does.
// A bracketed literal is an IPv6 (or IPvFuture) host and is returned without
// its brackets; strict dotted-decimal text is IPv4; anything else, including
// the empty host, is a registered name.
func ClassifyHost(text string) (string, HostKind) {
	if len(text) >= 2 && text[0] == '[' && text[len(text)-1] == ']' {
		return text[1 : len(text)-1], HostIPv6
	}
	if IsIPv4Literal(text) {
		return text, HostIPv4
	}
	return text, HostName
}

// IsIPv4Literal reports whether s is an RFC 3986 IPv4address: four
// dec-octets without leading zeros.
func IsIPv4Literal(s string) bool {
	if strings.Count(s, ".") != 3 {
		return false
	}
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}
