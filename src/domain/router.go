package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Router is a physical region router. Its VLAN range string
// ("1000-1999") bounds the VLANs handed to the cloud subnets of the
// projects it carries.
type Router struct {
	ID            int       `json:"id"`
	RegionID      int       `json:"region_id" db:"region_id"`
	AssetTag      *string   `json:"asset_tag" db:"asset_tag"`
	Capacity      *int      `json:"capacity"`
	Credentials   *string   `json:"credentials"`
	Enabled       bool      `json:"enabled"`
	Username      *string   `json:"username"`
	VLANs         string    `json:"vlans"`
	PublicSubnets []string  `json:"public_subnets" db:"public_subnets"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`

	// Number of projects currently on the router, loaded by the repository.
	ProjectsInUse int `json:"projects_in_use" db:"projects_in_use"`
}

// VLANRange parses the router's VLAN range string.
func (self Router) VLANRange() (low, high int, err error) {
	parts := strings.SplitN(self.VLANs, "-", 2)
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("Router %d has an unparseable VLAN range %q", self.ID, self.VLANs)
	}
	if low, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return 0, 0, errors.WithMessagef(err, "Router %d has an unparseable VLAN range %q", self.ID, self.VLANs)
	}
	if high, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return 0, 0, errors.WithMessagef(err, "Router %d has an unparseable VLAN range %q", self.ID, self.VLANs)
	}
	return low, high, nil
}

// NextVLAN picks the lowest VLAN of the router's range not in use.
func (self Router) NextVLAN(inUse []int) (int, error) {
	low, high, err := self.VLANRange()
	if err != nil {
		return 0, err
	}

	used := make(map[int]bool, len(inUse))
	for _, vlan := range inUse {
		used[vlan] = true
	}
	for vlan := low; vlan <= high; vlan += 1 {
		if !used[vlan] {
			return vlan, nil
		}
	}
	return 0, errors.Errorf("Router %d has no free VLAN", self.ID)
}

// VirtualRouter is a project's routing instance on a physical router.
type VirtualRouter struct {
	ID          int       `json:"id"`
	IPAddressID int       `json:"ip_address_id" db:"ip_address_id"`
	ProjectID   int       `json:"project_id" db:"project_id"`
	RouterID    int       `json:"router_id" db:"router_id"`
	State       State     `json:"state"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}
