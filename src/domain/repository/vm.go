package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type VmFilter struct {
	ProjectID  *int
	ServerID   *int
	State      *domain.State
	ImageID    *int
	Name       *string
	RegionID   *int
	AddressID  *int
	AddressIDs []int
}

type VmRepository interface {
	WithQuerier(config.PgxIface) VmRepository

	GetByPage(*Page, VmFilter, string) ([]domain.VM, error)
	GetById(int) (*domain.VM, error)
	GetByProject(projectID int) ([]domain.VM, error)
	GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.VM, error)
	Save(*domain.VM) error
	Update(*domain.VM) error

	// CountNameInProject counts the project's non-closed VMs with the
	// name, excluding the given VM id (0 for none).
	CountNameInProject(name string, projectID, excludeID int) (int, error)

	GetStorages(vmID int) ([]domain.Storage, error)
	SaveStorage(*domain.Storage) error
	UpdateStorage(*domain.Storage) error

	GetHistoryByPage(vmID int, page *Page) ([]domain.VMHistory, error)
	SaveHistory(*domain.VMHistory) error

	CountByStateInRegion(regionID int) (map[domain.State]int, error)
}
