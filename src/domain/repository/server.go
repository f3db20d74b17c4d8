package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type ServerFilter struct {
	RegionID      *int
	Enabled       *bool
	TypeID        *int
	StorageTypeID *int
}

type ServerRepository interface {
	WithQuerier(config.PgxIface) ServerRepository

	GetByPage(*Page, ServerFilter, string) ([]domain.Server, error)
	GetById(int) (*domain.Server, error)
	Save(*domain.Server) error
	Update(*domain.Server) error

	// GetCandidates returns the enabled servers of the region matching
	// the server and storage type, with their usage sums loaded.
	GetCandidates(regionID, serverTypeID, storageTypeID int) ([]domain.Server, error)

	GetInterfaces(serverID int) ([]domain.Interface, error)
	SaveInterface(*domain.Interface) error

	CountEnabledByRegion(regionID int) (int, error)
	CountByRegion(regionID int, enabledOnly bool) (int, error)
}

type ServerTypeRepository interface {
	WithQuerier(config.PgxIface) ServerTypeRepository

	GetAll() ([]domain.ServerType, error)
	GetById(int) (*domain.ServerType, error)
}

type StorageTypeRepository interface {
	WithQuerier(config.PgxIface) StorageTypeRepository

	GetAll() ([]domain.StorageType, error)
	GetById(int) (*domain.StorageType, error)

	// OfferedInRegion reports whether any enabled server of the region
	// carries the storage type.
	OfferedInRegion(storageTypeID, regionID int) (bool, error)
}
