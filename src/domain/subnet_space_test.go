package domain

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubnetSpaceReport(t *testing.T) {
	t.Parallel()

	t.Run("empty allocation is one free block", func(t *testing.T) {
		t.Parallel()

		report := SubnetSpaceReport(netip.MustParsePrefix("10.0.0.0/16"), nil)

		if assert.Len(t, report, 1) {
			assert.Equal(t, "10.0.0.0/16", report[0].AddressRange)
			assert.True(t, report[0].Free)
			assert.Nil(t, report[0].SubnetID)
		}
	})

	t.Run("gaps decompose into maximal blocks", func(t *testing.T) {
		t.Parallel()

		report := SubnetSpaceReport(netip.MustParsePrefix("10.0.0.0/22"), []Subnet{
			{ID: 7, AddressRange: "10.0.1.0/24"},
		})

		if assert.Len(t, report, 3) {
			assert.Equal(t, "10.0.0.0/24", report[0].AddressRange)
			assert.True(t, report[0].Free)

			assert.Equal(t, "10.0.1.0/24", report[1].AddressRange)
			assert.False(t, report[1].Free)
			if assert.NotNil(t, report[1].SubnetID) {
				assert.Equal(t, 7, *report[1].SubnetID)
			}

			// The rest of the allocation collapses into one maximal block.
			assert.Equal(t, "10.0.2.0/23", report[2].AddressRange)
			assert.True(t, report[2].Free)
		}
	})

	t.Run("subnets sort by address", func(t *testing.T) {
		t.Parallel()

		report := SubnetSpaceReport(netip.MustParsePrefix("192.168.0.0/24"), []Subnet{
			{ID: 2, AddressRange: "192.168.0.128/26"},
			{ID: 1, AddressRange: "192.168.0.0/26"},
		})

		var ids []int
		for _, entry := range report {
			if entry.SubnetID != nil {
				ids = append(ids, *entry.SubnetID)
			}
		}
		assert.Equal(t, []int{1, 2}, ids)
	})

	t.Run("unparseable subnets are skipped", func(t *testing.T) {
		t.Parallel()

		report := SubnetSpaceReport(netip.MustParsePrefix("10.0.0.0/24"), []Subnet{
			{ID: 1, AddressRange: "bogus"},
		})

		if assert.Len(t, report, 1) {
			assert.True(t, report[0].Free)
		}
	})

	t.Run("v6 only lists used blocks", func(t *testing.T) {
		t.Parallel()

		report := SubnetSpaceReport(netip.MustParsePrefix("2001:db8::/32"), []Subnet{
			{ID: 3, AddressRange: "2001:db8:1::/48"},
		})

		if assert.Len(t, report, 1) {
			assert.Equal(t, "2001:db8:1::/48", report[0].AddressRange)
			assert.False(t, report[0].Free)
		}
	})
}
