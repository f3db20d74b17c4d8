package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type SubnetFilter struct {
	AllocationID    *int
	AddressID       *int
	AddressIDs      []int
	VirtualRouterID *int
	ParentID        *int
}

type SubnetRepository interface {
	WithQuerier(config.PgxIface) SubnetRepository

	GetByPage(*Page, SubnetFilter, string) ([]domain.Subnet, error)
	GetById(int) (*domain.Subnet, error)
	GetByAllocation(allocationID int) ([]domain.Subnet, error)
	GetByVirtualRouter(virtualRouterID int) ([]domain.Subnet, error)
	GetByRange(addressRange string) (*domain.Subnet, error)
	Save(*domain.Subnet) error
	Update(*domain.Subnet) error
	Delete(int) error

	CountIPAddresses(subnetID int) (int, error)
	CountChildren(subnetID int) (int, error)

	// GetVLANsInUse returns the VLANs of all subnets on virtual routers
	// of the physical router.
	GetVLANsInUse(routerID int) ([]int, error)
}
