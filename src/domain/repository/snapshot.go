package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type SnapshotFilter struct {
	VMID       *int
	State      *domain.State
	Active     *bool
	ProjectID  *int
	AddressIDs []int
	RegionID   *int
}

type SnapshotRepository interface {
	WithQuerier(config.PgxIface) SnapshotRepository

	GetByPage(*Page, SnapshotFilter, string) ([]domain.Snapshot, error)
	GetById(int) (*domain.Snapshot, error)
	GetByVM(vmID int) ([]domain.Snapshot, error)
	GetActiveByVM(vmID int) (*domain.Snapshot, error)
	GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.Snapshot, error)
	Save(*domain.Snapshot) error
	Update(*domain.Snapshot) error

	CountUnstableByVM(vmID int) (int, error)
	CountOpenByVM(vmID int) (int, error)

	GetHistoryByPage(snapshotID int, page *Page) ([]domain.SnapshotHistory, error)
	SaveHistory(*domain.SnapshotHistory) error
}
