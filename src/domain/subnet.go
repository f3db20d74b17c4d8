package domain

import (
	"net/netip"
	"time"

	"github.com/pkg/errors"
)

const (
	SubnetRangeMaxLength = 49
	SubnetNameMaxLength  = 128
)

type Subnet struct {
	ID              int       `json:"id"`
	AddressID       int       `json:"address_id" db:"address_id"`
	AddressRange    string    `json:"address_range" db:"address_range"`
	AllocationID    int       `json:"allocation_id" db:"allocation_id"`
	Gateway         *string   `json:"gateway"`
	Name            string    `json:"name"`
	ParentID        *int      `json:"parent_id" db:"parent_id"`
	VirtualRouterID *int      `json:"virtual_router_id" db:"virtual_router_id"`
	VLAN            *int      `json:"vlan"`
	VxLAN           *int      `json:"vxlan"`
	Created         time.Time `json:"created"`
	Updated         time.Time `json:"updated"`
}

// Cloud subnets hang off a project's virtual router.
func (self Subnet) Cloud() bool {
	return self.VirtualRouterID != nil
}

func (self Subnet) Prefix() (netip.Prefix, error) {
	prefix, err := netip.ParsePrefix(self.AddressRange)
	return prefix, errors.WithMessagef(err, "Subnet %d has an unparseable range %q", self.ID, self.AddressRange)
}

// Contains reports whether the address lies inside the subnet's range.
func (self Subnet) Contains(address netip.Addr) bool {
	prefix, err := self.Prefix()
	if err != nil {
		return false
	}
	return prefix.Contains(address)
}

// Overlaps reports whether two prefixes share any addresses.
func Overlaps(a, b netip.Prefix) bool {
	return a.Contains(b.Addr()) || b.Contains(a.Addr())
}

// SubnetSpace is one block in an allocation's space report.
type SubnetSpace struct {
	AddressRange string `json:"address_range"`
	Free         bool   `json:"free"`
	SubnetID     *int   `json:"subnet_id,omitempty"`
}
