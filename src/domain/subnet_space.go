package domain

import (
	"encoding/binary"
	"math/bits"
	"net/netip"
	"sort"
)

// SubnetSpaceReport lists the used and free blocks of an allocation in
// address order. Free v4 gaps are decomposed into maximal CIDR blocks;
// v6 allocations only report the used blocks (a v6 gap rarely fits a
// readable block list).
func SubnetSpaceReport(allocation netip.Prefix, subnets []Subnet) []SubnetSpace {
	type used struct {
		prefix netip.Prefix
		id     int
	}
	useds := make([]used, 0, len(subnets))
	for _, subnet := range subnets {
		prefix, err := subnet.Prefix()
		if err != nil {
			continue
		}
		useds = append(useds, used{prefix.Masked(), subnet.ID})
	}
	sort.Slice(useds, func(i, j int) bool {
		return useds[i].prefix.Addr().Less(useds[j].prefix.Addr())
	})

	report := []SubnetSpace{}

	if !allocation.Addr().Is4() {
		for _, entry := range useds {
			id := entry.id
			report = append(report, SubnetSpace{AddressRange: entry.prefix.String(), SubnetID: &id})
		}
		return report
	}

	cursor := v4Value(allocation.Masked().Addr())
	end := v4End(allocation)

	for _, entry := range useds {
		start := v4Value(entry.prefix.Addr())
		for _, free := range v4Blocks(cursor, start) {
			report = append(report, SubnetSpace{AddressRange: free.String(), Free: true})
		}
		id := entry.id
		report = append(report, SubnetSpace{AddressRange: entry.prefix.String(), SubnetID: &id})
		if next := v4End(entry.prefix) + 1; next > cursor {
			cursor = next
		}
	}
	for _, free := range v4Blocks(cursor, end+1) {
		report = append(report, SubnetSpace{AddressRange: free.String(), Free: true})
	}
	return report
}

func v4Value(address netip.Addr) uint32 {
	octets := address.As4()
	return binary.BigEndian.Uint32(octets[:])
}

func v4Addr(value uint32) netip.Addr {
	var octets [4]byte
	binary.BigEndian.PutUint32(octets[:], value)
	return netip.AddrFrom4(octets)
}

func v4End(prefix netip.Prefix) uint32 {
	return v4Value(prefix.Masked().Addr()) | (1<<uint(32-prefix.Bits()) - 1)
}

// v4Blocks decomposes the half-open range [start, end) into maximal
// CIDR blocks.
func v4Blocks(start, end uint32) []netip.Prefix {
	blocks := []netip.Prefix{}
	for start < end {
		size := uint32(1) << uint(bits.TrailingZeros32(start))
		if start == 0 {
			size = 1 << 31
		}
		for size > end-start {
			size >>= 1
		}
		bitsUsed := 32 - bits.TrailingZeros32(size)
		blocks = append(blocks, netip.PrefixFrom(v4Addr(start), bitsUsed))
		start += size
	}
	return blocks
}
