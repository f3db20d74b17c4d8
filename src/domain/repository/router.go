package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type RouterFilter struct {
	RegionID *int
	Enabled  *bool
}

type RouterRepository interface {
	WithQuerier(config.PgxIface) RouterRepository

	GetByPage(*Page, RouterFilter, string) ([]domain.Router, error)
	GetById(int) (*domain.Router, error)
	Save(*domain.Router) error
	Update(*domain.Router) error

	// GetLeastUsedEnabledByRegion returns the enabled region router
	// carrying the fewest projects that still has capacity.
	GetLeastUsedEnabledByRegion(regionID int) (*domain.Router, error)
}

type VirtualRouterFilter struct {
	ProjectID  *int
	RouterID   *int
	State      *domain.State
	RegionID   *int
	AddressIDs []int
}

type VirtualRouterRepository interface {
	WithQuerier(config.PgxIface) VirtualRouterRepository

	GetByPage(*Page, VirtualRouterFilter, string) ([]domain.VirtualRouter, error)
	GetById(int) (*domain.VirtualRouter, error)
	GetByProject(projectID int) (*domain.VirtualRouter, error)
	GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.VirtualRouter, error)
	Save(*domain.VirtualRouter) error
	Update(*domain.VirtualRouter) error

	CountByStateInRegion(regionID int) (map[domain.State]int, error)
}
