package domain

import "time"

const (
	IPAddressNameMaxLength      = 64
	IPAddressGroupNameMaxLength = 50
)

type IPAddress struct {
	ID          int       `json:"id"`
	Address     string    `json:"address"`
	Credentials *string   `json:"credentials"`
	Location    *string   `json:"location"`
	MacAddress  *string   `json:"mac_address" db:"mac_address"`
	Name        string    `json:"name"`
	Ping        bool      `json:"ping"`
	PublicIPID  *int      `json:"public_ip_id" db:"public_ip_id"`
	Scan        bool      `json:"scan"`
	SubnetID    int       `json:"subnet_id" db:"subnet_id"`
	VMID        *int      `json:"vm_id" db:"vm_id"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// NAT reports whether a floating public IP is bound to this address.
func (self IPAddress) NAT() bool {
	return self.PublicIPID != nil
}

// IPAddressGroup is a named CIDR set referenced by firewall tooling.
type IPAddressGroup struct {
	ID       int       `json:"id"`
	MemberID int       `json:"member_id" db:"member_id"`
	Name     string    `json:"name"`
	Version  int       `json:"version"`
	Cidrs    []string  `json:"cidrs"`
	Created  time.Time `json:"created"`
	Updated  time.Time `json:"updated"`
}
