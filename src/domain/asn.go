package domain

import (
	"net/netip"
	"time"
)

// Real ASNs fit into 32 bits; anything at or above PseudoAsnOffset is a
// project pseudo ASN managed by project.create.
const AsnMaxNumber = int64(1) << 32

type Asn struct {
	ID       int       `json:"id"`
	MemberID int       `json:"member_id" db:"member_id"`
	Number   int64     `json:"number"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}

func (self Asn) Pseudo() bool {
	return self.Number >= PseudoAsnOffset
}

type Allocation struct {
	ID           int       `json:"id"`
	AsnID        int       `json:"asn_id" db:"asn_id"`
	AddressID    int       `json:"address_id" db:"address_id"`
	AddressRange string    `json:"address_range" db:"address_range"`
	Name         string    `json:"name"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}

// The IANA ranges a member may allocate from without owning the ASN.
var PrivateRanges = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("169.254.0.0/16"),
}

// PrivateRange reports whether the prefix lies entirely inside one of
// the IANA private ranges.
func PrivateRange(prefix netip.Prefix) bool {
	for _, private := range PrivateRanges {
		if private.Contains(prefix.Addr()) && prefix.Bits() >= private.Bits() {
			return true
		}
	}
	return false
}
