package domain

import "net/netip"

// IPCheck is the per-input report of the ip_validator service.
type IPCheck struct {
	Input     string  `json:"input"`
	Valid     bool    `json:"valid"`
	Version   int     `json:"version,omitempty"`
	Private   bool    `json:"private"`
	Reserved  bool    `json:"reserved"`
	Network   *string `json:"network,omitempty"`
	Broadcast *string `json:"broadcast,omitempty"`
}

func CheckIPAddress(input string) IPCheck {
	check := IPCheck{Input: input}

	address, err := netip.ParseAddr(input)
	if err != nil {
		return check
	}

	check.Valid = true
	if address.Is4() {
		check.Version = 4
	} else {
		check.Version = 6
	}
	check.Private = address.IsPrivate() || address.IsLinkLocalUnicast()
	check.Reserved = address.IsLoopback() || address.IsMulticast() || address.IsUnspecified()

	return check
}

func CheckIPRange(input string) IPCheck {
	check := IPCheck{Input: input}

	prefix, err := netip.ParsePrefix(input)
	if err != nil {
		return check
	}

	check.Valid = true
	address := prefix.Masked().Addr()
	if address.Is4() {
		check.Version = 4
	} else {
		check.Version = 6
	}
	check.Private = address.IsPrivate() || address.IsLinkLocalUnicast()
	check.Reserved = address.IsLoopback() || address.IsMulticast() || address.IsUnspecified()

	network := prefix.Masked().Addr().String()
	check.Network = &network

	// The broadcast address only exists for v4 networks.
	if address.Is4() && prefix.Bits() < 32 {
		octets := prefix.Masked().Addr().As4()
		hostBits := 32 - prefix.Bits()
		value := uint32(octets[0])<<24 | uint32(octets[1])<<16 | uint32(octets[2])<<8 | uint32(octets[3])
		value |= 1<<uint(hostBits) - 1
		broadcast := netip.AddrFrom4([4]byte{
			byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value),
		}).String()
		check.Broadcast = &broadcast
	}

	return check
}
