package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	VMNameMaxLength     = 128
	UserdataMaxLength   = 16384
	StorageMinGB        = 10
	WindowsPrimaryMinGB = 32
)

type VM struct {
	ID              int       `json:"id"`
	CPU             int       `json:"cpu"`
	DNS             string    `json:"dns"`
	GatewaySubnetID *int      `json:"gateway_subnet_id" db:"gateway_subnet_id"`
	GPU             int       `json:"gpu"`
	GUID            uuid.UUID `json:"guid"`
	ImageID         int       `json:"image_id" db:"image_id"`
	Name            string    `json:"name"`
	ProjectID       int       `json:"project_id" db:"project_id"`
	PublicKey       *string   `json:"public_key" db:"public_key"`
	RAM             int       `json:"ram"`
	ServerID        int       `json:"server_id" db:"server_id"`
	State           State     `json:"state"`
	Userdata        *string   `json:"userdata"`
	Created         time.Time `json:"created"`
	Updated         time.Time `json:"updated"`

	Storages    []Storage   `json:"storages" db:"-"`
	IPAddresses []IPAddress `json:"ip_addresses" db:"-"`
}

// TotalStorageGB sums all storages, for placement and billing.
func (self VM) TotalStorageGB() int {
	total := 0
	for _, storage := range self.Storages {
		total += storage.GB
	}
	return total
}

// RequirementVector is the VM's placement requirement as [ram, gb, vcpu].
func (self VM) RequirementVector() []int {
	return []int{self.RAM, self.TotalStorageGB(), self.CPU}
}

type Storage struct {
	ID      int       `json:"id"`
	VMID    int       `json:"vm_id" db:"vm_id"`
	Name    string    `json:"name"`
	GB      int       `json:"gb"`
	Primary bool      `json:"primary" db:"is_primary"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// VMHistory is an audit row written for every effective VM change,
// carrying the SKU quantities billing reads.
type VMHistory struct {
	ID              int           `json:"id"`
	VMID            int           `json:"vm_id" db:"vm_id"`
	State           State         `json:"state"`
	CustomerAddress int           `json:"customer_address" db:"customer_address"`
	ProjectVMName   string        `json:"project_vm_name" db:"project_vm_name"`
	Skus            SkuQuantities `json:"skus"`
	Created         time.Time     `json:"created"`
}

var userdataHeaders = []string{
	"#!",
	"#include",
	"#cloud-config",
	"#upstart-job",
	"#cloud-boothook",
}

// ValidUserdata reports whether the payload looks like something
// cloud-init will accept: a known header line or a MIME multipart.
func ValidUserdata(userdata string) bool {
	for _, header := range userdataHeaders {
		if strings.HasPrefix(userdata, header) {
			return true
		}
	}
	return strings.Contains(userdata, "MIME-Version:")
}
