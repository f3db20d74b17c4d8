package domain

import "time"

// Pseudo ASNs are derived from project ids and live far above the
// 32 bit space of real ASNs.
const PseudoAsnOffset = int64(1_000_000_000_000)

// A project's infrastructure may run on after closure for this many
// hours before the robot scrubs it.
const DefaultGracePeriod = 168

type Project struct {
	ID          int       `json:"id"`
	AddressID   int       `json:"address_id" db:"address_id"`
	Archived    bool      `json:"archived"`
	Closed      bool      `json:"closed"`
	GracePeriod int       `json:"grace_period" db:"grace_period"`
	ManagerID   *int      `json:"manager_id" db:"manager_id"`
	Name        string    `json:"name"`
	Note        *string   `json:"note"`
	RegionID    int       `json:"region_id" db:"region_id"`
	ResellerID  *int      `json:"reseller_id" db:"reseller_id"`
	RunIcarus   bool      `json:"run_icarus" db:"run_icarus"`
	RunRobot    bool      `json:"run_robot" db:"run_robot"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`

	// Loaded by the repository from the project's infrastructure.
	// A project without infrastructure is stable.
	VirtualRouterID *int   `json:"virtual_router_id" db:"virtual_router_id"`
	MinState        *State `json:"min_state" db:"min_state"`
	MaxState        *State `json:"max_state" db:"max_state"`
	Stable          bool   `json:"stable"`
}

// PseudoAsn is the ASN number reserved for the project's private routing.
func (self Project) PseudoAsn() int64 {
	return PseudoAsnOffset + int64(self.ID)
}
