package domain

import "golang.org/x/exp/slices"

// The id of the user that bypasses permission checks.
const SuperuserID = 1

// Requester is the identity decoded from the X-Auth-Token header.
// Tokens are issued by the identity service; the Addresses claim carries
// every address id in the requester's member so that member-wide scoping
// needs no directory lookup here.
type Requester struct {
	ID        int   `json:"id"`
	AddressID int   `json:"address_id"`
	MemberID  int   `json:"member_id"`
	Addresses []int `json:"addresses"`

	Robot         bool `json:"robot"`
	Administrator bool `json:"administrator"`
	IsPrivate     bool `json:"is_private"`
	IsGlobal      bool `json:"is_global"`
	GlobalActive  bool `json:"global_active"`
}

func (self Requester) Superuser() bool {
	return self.ID == SuperuserID
}

// CanSeeAddress reports whether resources owned by the address are visible.
func (self Requester) CanSeeAddress(addressID int) bool {
	if self.Superuser() {
		return true
	}
	if self.AddressID == addressID {
		return true
	}
	if self.GlobalActive {
		return slices.Contains(self.Addresses, addressID)
	}
	return false
}

// VisibleAddresses returns the address ids list endpoints should filter on.
func (self Requester) VisibleAddresses() []int {
	if self.GlobalActive && len(self.Addresses) > 0 {
		return self.Addresses
	}
	return []int{self.AddressID}
}

// RegionID is only meaningful for robot requesters, whose address is the
// region's operator account.
func (self Requester) RegionID() int {
	return self.AddressID
}
