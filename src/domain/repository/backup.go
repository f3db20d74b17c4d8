package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type BackupFilter struct {
	VMID       *int
	State      *domain.State
	Repository *int
	AddressIDs []int
	RegionID   *int
}

type BackupRepository interface {
	WithQuerier(config.PgxIface) BackupRepository

	GetByPage(*Page, BackupFilter, string) ([]domain.Backup, error)
	GetById(int) (*domain.Backup, error)
	GetByVM(vmID int) ([]domain.Backup, error)
	GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.Backup, error)
	Save(*domain.Backup) error
	Update(*domain.Backup) error

	CountUnstableByVM(vmID int) (int, error)

	GetHistoryByPage(backupID int, page *Page) ([]domain.BackupHistory, error)
	SaveHistory(*domain.BackupHistory) error
}
