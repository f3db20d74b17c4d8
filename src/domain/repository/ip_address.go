package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type IPAddressFilter struct {
	SubnetID        *int
	VMID            *int
	Address         *string
	VirtualRouterID *int
	AddressIDs      []int
}

type IPAddressRepository interface {
	WithQuerier(config.PgxIface) IPAddressRepository

	GetByPage(*Page, IPAddressFilter, string) ([]domain.IPAddress, error)
	GetById(int) (*domain.IPAddress, error)
	GetByVM(vmID int) ([]domain.IPAddress, error)
	GetBySubnet(subnetID int) ([]domain.IPAddress, error)
	Save(*domain.IPAddress) error
	Update(*domain.IPAddress) error
	Delete(int) error

	CountByAddress(subnetID int, address string) (int, error)

	// CountNATBindings counts the addresses the public IP is bound to.
	CountNATBindings(publicIPID int) (int, error)

	// DeleteByVM removes all of a VM's IP addresses and returns the ids
	// of the public IPs that were bound to them for NAT.
	DeleteByVM(vmID int) ([]int, error)
}

type IPAddressGroupFilter struct {
	MemberID *int
	Name     *string
	Version  *int
}

type IPAddressGroupRepository interface {
	WithQuerier(config.PgxIface) IPAddressGroupRepository

	GetByPage(*Page, IPAddressGroupFilter, string) ([]domain.IPAddressGroup, error)
	GetById(int) (*domain.IPAddressGroup, error)
	Save(*domain.IPAddressGroup) error
	Update(*domain.IPAddressGroup) error
	Delete(int) error
}
