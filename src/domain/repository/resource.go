package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type ResourceFilter struct {
	ProjectID    *int
	ParentID     *int
	State        *domain.State
	Name         *string
	RegionID     *int
	AddressID    *int
	AddressIDs   []int
	ResourceType *domain.ResourceType
}

type ResourceRepository interface {
	WithQuerier(config.PgxIface) ResourceRepository

	GetByPage(*Page, ResourceFilter, string) ([]domain.Resource, error)
	GetById(int) (*domain.Resource, error)
	GetByProject(projectID int) ([]domain.Resource, error)
	Save(*domain.Resource) error
	Update(*domain.Resource) error

	// CountNameInRegion counts the address's non-closed resources of
	// the type with the name in the region, excluding the given id.
	CountNameInRegion(name string, resourceType domain.ResourceType, addressID, regionID, excludeID int) (int, error)

	CountByStateInRegion(regionID int) (map[domain.State]int, error)
}
