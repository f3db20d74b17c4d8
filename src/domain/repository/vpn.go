package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type VpnFilter struct {
	VirtualRouterID *int
	VPNType         *string
	AddressIDs      []int
	RegionID        *int
}

type VpnRepository interface {
	WithQuerier(config.PgxIface) VpnRepository

	GetByPage(*Page, VpnFilter, string) ([]domain.VPN, error)
	GetById(int) (*domain.VPN, error)
	GetByVirtualRouter(virtualRouterID int) ([]domain.VPN, error)
	Save(*domain.VPN) error
	Update(*domain.VPN) error
	Delete(int) error

	GetRoutes(vpnID int) ([]domain.VPNRoute, error)
	SaveRoute(*domain.VPNRoute) error
	DeleteRoutes(vpnID int) error

	// NextStifNumber picks the next free secure tunnel interface number
	// on the virtual router.
	NextStifNumber(virtualRouterID int) (int, error)

	GetHistoryByPage(vpnID int, page *Page) ([]domain.VPNHistory, error)
	SaveHistory(*domain.VPNHistory) error
}
