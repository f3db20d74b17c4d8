package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type BackupService interface {
	WithQuerier(config.PgxIface) BackupService

	GetByPage(domain.Requester, *repository.Page, repository.BackupFilter) ([]domain.Backup, error)
	GetById(domain.Requester, int) (*domain.Backup, error)
	Create(domain.Requester, *BackupCreate) (*domain.Backup, error)
	Update(domain.Requester, int, BackupUpdate) (*domain.Backup, error)

	GetHistoryByPage(domain.Requester, int, *repository.Page) ([]domain.BackupHistory, error)
}

type BackupCreate struct {
	VMID       int    `json:"vm_id"`
	Name       string `json:"name"`
	Repository int    `json:"repository"`
}

type BackupUpdate struct {
	Name      *string       `json:"name"`
	State     *domain.State `json:"state"`
	TimeValid *time.Time    `json:"time_valid"`
}

type backupService struct {
	logger zerolog.Logger
	db     config.PgxIface

	backupRepository  repository.BackupRepository
	vmRepository      repository.VmRepository
	projectRepository repository.ProjectRepository

	projectService ProjectService
}

func NewBackupService(db config.PgxIface, projectService ProjectService, logger *zerolog.Logger) BackupService {
	return &backupService{
		logger:            logger.With().Str("component", "BackupService").Logger(),
		db:                db,
		backupRepository:  persistence.NewBackupRepository(db),
		vmRepository:      persistence.NewVmRepository(db),
		projectRepository: persistence.NewProjectRepository(db),
		projectService:    projectService,
	}
}

func (self *backupService) WithQuerier(querier config.PgxIface) BackupService {
	return &backupService{
		logger:            self.logger,
		db:                querier,
		backupRepository:  self.backupRepository.WithQuerier(querier),
		vmRepository:      self.vmRepository.WithQuerier(querier),
		projectRepository: self.projectRepository.WithQuerier(querier),
		projectService:    self.projectService.WithQuerier(querier),
	}
}

var backupOrders = map[string]string{
	"id":      "backup.id",
	"created": "backup.created",
	"name":    "backup.name",
	"state":   "backup.state",
	"vm_id":   "backup.vm_id",
}

func (self *backupService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.BackupFilter) (backups []domain.Backup, err error) {
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing Backups")
	backups, err = self.backupRepository.GetByPage(page, filter, page.OrderBy(backupOrders, "backup.id"))
	err = errors.WithMessage(err, "Could not select Backups")
	return
}

func (self *backupService) visibleVM(requester domain.Requester, vmID int, code string) (*domain.VM, error) {
	vm, err := self.vmRepository.GetById(vmID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VM %d", vmID)
	}
	if vm == nil {
		return nil, domain.NewApiError(code)
	}
	project, err := self.projectRepository.GetById(vm.ProjectID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", vm.ProjectID)
	}
	if project == nil {
		return nil, domain.NewApiError(code)
	}
	if requester.Robot {
		if project.RegionID != requester.RegionID() {
			return nil, domain.NewApiError(code)
		}
	} else if !requester.CanSeeAddress(project.AddressID) {
		return nil, domain.NewApiError(code)
	}
	return vm, nil
}

func (self *backupService) GetById(requester domain.Requester, id int) (*domain.Backup, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Backup by ID")
	backup, err := self.backupRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Backup %d", id)
	}
	if backup == nil {
		return nil, domain.NewApiError("iaas_backup_read_001")
	}
	if _, err := self.visibleVM(requester, backup.VMID, "iaas_backup_read_001"); err != nil {
		return nil, err
	}
	return backup, nil
}

func (self *backupService) Create(requester domain.Requester, create *BackupCreate) (*domain.Backup, error) {
	vm, err := self.visibleVM(requester, create.VMID, "iaas_backup_create_101")
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok {
			return nil, domain.FieldErrors{"vm_id": apiErr}
		}
		return nil, err
	}
	if vm.State != domain.StateRunning && vm.State != domain.StateQuiesced {
		return nil, domain.FieldErrors{"vm_id": domain.NewApiError("iaas_backup_create_101")}
	}

	if count, err := self.backupRepository.CountUnstableByVM(vm.ID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count unstable Backups of VM %d", vm.ID)
	} else if count > 0 {
		return nil, domain.FieldErrors{"vm_id": domain.NewApiError("iaas_backup_create_102")}
	}

	if create.Name == "" || len(create.Name) > domain.BackupNameMaxLength {
		return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_backup_create_103")}
	}
	if create.Repository != domain.BackupRepositoryPrimary && create.Repository != domain.BackupRepositorySecondary {
		return nil, domain.FieldErrors{"repository": domain.NewApiError("iaas_backup_create_104")}
	}

	backup := &domain.Backup{
		Name:       create.Name,
		Repository: create.Repository,
		State:      domain.StateRequested,
		VMID:       vm.ID,
	}
	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*backupService)

		if err := txSelf.backupRepository.Save(backup); err != nil {
			return errors.WithMessage(err, "Could not insert Backup")
		}
		if err := txSelf.backupRepository.SaveHistory(&domain.BackupHistory{
			BackupID: backup.ID,
			State:    backup.State,
			UserID:   requester.ID,
		}); err != nil {
			return errors.WithMessage(err, "Could not insert BackupHistory")
		}

		if vm.State == domain.StateRunning {
			vm.State = domain.StateRunningUpdate
		} else {
			vm.State = domain.StateQuiescedUpdate
		}
		if err := txSelf.vmRepository.Update(vm); err != nil {
			return errors.WithMessagef(err, "Could not update VM %d", vm.ID)
		}
		return txSelf.projectService.SetRunRobotFlags(vm.ProjectID)
	})
	if err != nil {
		return nil, err
	}
	self.logger.Info().Int("id", backup.ID).Int("vm_id", vm.ID).Msg("Created Backup")
	return backup, nil
}

func (self *backupService) Update(requester domain.Requester, id int, update BackupUpdate) (*domain.Backup, error) {
	backup, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_backup_read_001" {
			return nil, domain.NewApiError("iaas_backup_update_001")
		}
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" || len(*update.Name) > domain.BackupNameMaxLength {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_backup_create_103")}
		}
		backup.Name = *update.Name
	}

	// The robot stamps time_valid when the backup completes.
	if update.TimeValid != nil && requester.Robot {
		backup.TimeValid = update.TimeValid
	}

	stateChanged := false
	if update.State != nil && *update.State != backup.State {
		stateMap := domain.UserSnapshotStateMap
		if requester.Robot {
			stateMap = domain.RobotStateMap
		}
		if !backup.State.CanTransition(*update.State, stateMap) {
			return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_backup_update_101")}
		}
		backup.State = *update.State
		stateChanged = true
	}

	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*backupService)

		if err := txSelf.backupRepository.Update(backup); err != nil {
			return errors.WithMessagef(err, "Could not update Backup %d", id)
		}
		if stateChanged {
			if err := txSelf.backupRepository.SaveHistory(&domain.BackupHistory{
				BackupID: backup.ID,
				State:    backup.State,
				UserID:   requester.ID,
			}); err != nil {
				return errors.WithMessage(err, "Could not insert BackupHistory")
			}
		}
		if !requester.Robot && stateChanged && slices.Contains(domain.RobotProcessStates, backup.State) {
			vm, err := txSelf.vmRepository.GetById(backup.VMID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select VM %d", backup.VMID)
			}
			return txSelf.projectService.SetRunRobotFlags(vm.ProjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	self.logger.Debug().Int("id", id).Msg("Updated Backup")
	return backup, nil
}

func (self *backupService) GetHistoryByPage(requester domain.Requester, id int, page *repository.Page) ([]domain.BackupHistory, error) {
	if _, err := self.GetById(requester, id); err != nil {
		return nil, err
	}
	history, err := self.backupRepository.GetHistoryByPage(id, page)
	return history, errors.WithMessagef(err, "Could not select history of Backup %d", id)
}
