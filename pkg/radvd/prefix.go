package radvd

import (
	"errors"
	"fmt"

	"inet.af/netaddr"
)

var ErrInvalidPrefix = errors.New("invalid IPv6 prefix")

// Prefix is an IPv6 network prefix. The zero value is not a valid prefix.
type Prefix struct {
	p netaddr.IPPrefix
}

// ParsePrefix parses "addr/len" and rejects anything that is not a plain
// IPv6 prefix. The address is kept as written; host bits are not masked.
func ParsePrefix(s string) (Prefix, error) {
	p, err := netaddr.ParseIPPrefix(s)
	if err != nil {
		return Prefix{}, fmt.Errorf("%w: %q: %v", ErrInvalidPrefix, s, err)
	}
	pfx := Prefix{p: p}
	if !pfx.Valid() {
		return Prefix{}, fmt.Errorf("%w: %q is not an IPv6 prefix", ErrInvalidPrefix, s)
	}
	return pfx, nil
}

func MustParsePrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PrefixFrom builds a Prefix from an address and a length.
func PrefixFrom(ip netaddr.IP, bits uint8) (Prefix, error) {
	pfx := Prefix{p: netaddr.IPPrefixFrom(ip, bits)}
	if !pfx.Valid() {
		return Prefix{}, fmt.Errorf("%w: %s/%d", ErrInvalidPrefix, ip, bits)
	}
	return pfx, nil
}

func (p Prefix) Valid() bool {
	if !p.p.IsValid() {
		return false
	}
	ip := p.p.IP()
	if !ip.Is6() || ip.Is4in6() || ip.Zone() != "" {
		return false
	}
	return p.p.Bits() <= 128
}

func (p Prefix) Addr() netaddr.IP { return p.p.IP() }

func (p Prefix) Bits() uint8 { return p.p.Bits() }

func (p Prefix) IPPrefix() netaddr.IPPrefix { return p.p }

func (p Prefix) String() string {
	if !p.p.IsValid() {
		return "invalid Prefix"
	}
	return fmt.Sprintf("%s/%d", p.p.IP(), p.p.Bits())
}
