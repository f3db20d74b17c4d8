package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type SnapshotService interface {
	WithQuerier(config.PgxIface) SnapshotService

	GetByPage(domain.Requester, *repository.Page, repository.SnapshotFilter) ([]domain.Snapshot, error)
	GetById(domain.Requester, int) (*domain.Snapshot, error)
	Create(domain.Requester, *SnapshotCreate) (*domain.Snapshot, error)
	Update(domain.Requester, int, SnapshotUpdate) (*domain.Snapshot, error)

	// GetTree returns the VM's snapshots nested from the roots.
	GetTree(domain.Requester, int) ([]domain.SnapshotTree, error)
	GetHistoryByPage(domain.Requester, int, *repository.Page) ([]domain.SnapshotHistory, error)
}

type SnapshotCreate struct {
	VMID int    `json:"vm_id"`
	Name string `json:"name"`
}

type SnapshotUpdate struct {
	Name          *string       `json:"name"`
	State         *domain.State `json:"state"`
	RemoveSubtree *bool         `json:"remove_subtree"`
}

type snapshotService struct {
	logger zerolog.Logger
	db     config.PgxIface

	snapshotRepository repository.SnapshotRepository
	vmRepository       repository.VmRepository
	projectRepository  repository.ProjectRepository

	projectService ProjectService
}

func NewSnapshotService(db config.PgxIface, projectService ProjectService, logger *zerolog.Logger) SnapshotService {
	return &snapshotService{
		logger:             logger.With().Str("component", "SnapshotService").Logger(),
		db:                 db,
		snapshotRepository: persistence.NewSnapshotRepository(db),
		vmRepository:       persistence.NewVmRepository(db),
		projectRepository:  persistence.NewProjectRepository(db),
		projectService:     projectService,
	}
}

func (self *snapshotService) WithQuerier(querier config.PgxIface) SnapshotService {
	return &snapshotService{
		logger:             self.logger,
		db:                 querier,
		snapshotRepository: self.snapshotRepository.WithQuerier(querier),
		vmRepository:       self.vmRepository.WithQuerier(querier),
		projectRepository:  self.projectRepository.WithQuerier(querier),
		projectService:     self.projectService.WithQuerier(querier),
	}
}

var snapshotOrders = map[string]string{
	"id":      "snapshot.id",
	"created": "snapshot.created",
	"name":    "snapshot.name",
	"state":   "snapshot.state",
	"vm_id":   "snapshot.vm_id",
}

func (self *snapshotService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.SnapshotFilter) (snapshots []domain.Snapshot, err error) {
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing Snapshots")
	snapshots, err = self.snapshotRepository.GetByPage(page, filter, page.OrderBy(snapshotOrders, "snapshot.id"))
	err = errors.WithMessage(err, "Could not select Snapshots")
	return
}

// visibleVM resolves a VM and checks the requester may see its project.
func (self *snapshotService) visibleVM(requester domain.Requester, vmID int, code string) (*domain.VM, error) {
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

func (self *snapshotService) GetById(requester domain.Requester, id int) (*domain.Snapshot, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Snapshot by ID")
	snapshot, err := self.snapshotRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Snapshot %d", id)
	}
	if snapshot == nil {
		return nil, domain.NewApiError("iaas_snapshot_read_001")
	}
	if _, err := self.visibleVM(requester, snapshot.VMID, "iaas_snapshot_read_001"); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (self *snapshotService) Create(requester domain.Requester, create *SnapshotCreate) (*domain.Snapshot, error) {
	vm, err := self.visibleVM(requester, create.VMID, "iaas_snapshot_create_101")
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok {
			return nil, domain.FieldErrors{"vm_id": apiErr}
		}
		return nil, err
	}
	if vm.State != domain.StateRunning && vm.State != domain.StateQuiesced {
		return nil, domain.FieldErrors{"vm_id": domain.NewApiError("iaas_snapshot_create_101")}
	}

	if count, err := self.snapshotRepository.CountUnstableByVM(vm.ID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count unstable Snapshots of VM %d", vm.ID)
	} else if count > 0 {
		return nil, domain.FieldErrors{"vm_id": domain.NewApiError("iaas_snapshot_create_102")}
	}

	if create.Name == "" || len(create.Name) > domain.SnapshotNameMaxLength {
		return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_snapshot_create_103")}
	}

	snapshot := &domain.Snapshot{
		Active: true,
		Name:   create.Name,
		State:  domain.StateRequested,
		VMID:   vm.ID,
	}
	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*snapshotService)

		// The new snapshot becomes the active leaf under the previous
		// active one.
		previous, err := txSelf.snapshotRepository.GetActiveByVM(vm.ID)
		if err != nil {
			return errors.WithMessagef(err, "Could not select active Snapshot of VM %d", vm.ID)
		}
		if previous != nil {
			snapshot.ParentID = &previous.ID
			previous.Active = false
			if err := txSelf.snapshotRepository.Update(previous); err != nil {
				return errors.WithMessagef(err, "Could not update Snapshot %d", previous.ID)
			}
		}

		if err := txSelf.snapshotRepository.Save(snapshot); err != nil {
			return errors.WithMessage(err, "Could not insert Snapshot")
		}
		if err := txSelf.snapshotRepository.SaveHistory(&domain.SnapshotHistory{
			SnapshotID: snapshot.ID,
			State:      snapshot.State,
			UserID:     requester.ID,
		}); err != nil {
			return errors.WithMessage(err, "Could not insert SnapshotHistory")
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
	self.logger.Info().Int("id", snapshot.ID).Int("vm_id", vm.ID).Msg("Created Snapshot")
	return snapshot, nil
}

func (self *snapshotService) Update(requester domain.Requester, id int, update SnapshotUpdate) (*domain.Snapshot, error) {
	snapshot, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_snapshot_read_001" {
			return nil, domain.NewApiError("iaas_snapshot_update_001")
		}
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" || len(*update.Name) > domain.SnapshotNameMaxLength {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_snapshot_update_102")}
		}
		snapshot.Name = *update.Name
	}
	if update.RemoveSubtree != nil {
		snapshot.RemoveSubtree = *update.RemoveSubtree
	}

	stateChanged := false
	if update.State != nil && *update.State != snapshot.State {
		stateMap := domain.UserSnapshotStateMap
		if requester.Robot {
			stateMap = domain.RobotStateMap
		}
		if !snapshot.State.CanTransition(*update.State, stateMap) {
			return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_snapshot_update_101")}
		}
		snapshot.State = *update.State
		stateChanged = true
	}

	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*snapshotService)

		if err := txSelf.snapshotRepository.Update(snapshot); err != nil {
			return errors.WithMessagef(err, "Could not update Snapshot %d", id)
		}
		if stateChanged {
			if err := txSelf.snapshotRepository.SaveHistory(&domain.SnapshotHistory{
				SnapshotID: snapshot.ID,
				State:      snapshot.State,
				UserID:     requester.ID,
			}); err != nil {
				return errors.WithMessage(err, "Could not insert SnapshotHistory")
			}
		}

		if requester.Robot && stateChanged {
			switch snapshot.State {
			case domain.StateClosed:
				if err := txSelf.relinkAfterRemove(snapshot); err != nil {
					return err
				}
			case domain.StateRunning:
				// A completed restore makes the restored snapshot active.
				if err := txSelf.activate(snapshot); err != nil {
					return err
				}
			}
		}

		if !requester.Robot && stateChanged && slices.Contains(domain.RobotProcessStates, snapshot.State) {
			vm, err := txSelf.vmRepository.GetById(snapshot.VMID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select VM %d", snapshot.VMID)
			}
			return txSelf.projectService.SetRunRobotFlags(vm.ProjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	self.logger.Debug().Int("id", id).Msg("Updated Snapshot")
	return snapshot, nil
}

// relinkAfterRemove repairs the tree once the robot has removed a
// snapshot: children re-parent to the grandparent unless the removal
// took the whole subtree, and the active flag falls back to the parent.
func (self *snapshotService) relinkAfterRemove(removed *domain.Snapshot) error {
	snapshots, err := self.snapshotRepository.GetByVM(removed.VMID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Snapshots of VM %d", removed.VMID)
	}

	for i := range snapshots {
		child := &snapshots[i]
		if child.ParentID == nil || *child.ParentID != removed.ID || child.State == domain.StateClosed {
			continue
		}
		if removed.RemoveSubtree {
			child.State = domain.StateClosed
			if err := self.snapshotRepository.Update(child); err != nil {
				return errors.WithMessagef(err, "Could not update Snapshot %d", child.ID)
			}
			if err := self.relinkAfterRemove(child); err != nil {
				return err
			}
		} else {
			child.ParentID = removed.ParentID
			if err := self.snapshotRepository.Update(child); err != nil {
				return errors.WithMessagef(err, "Could not update Snapshot %d", child.ID)
			}
		}
	}

	if removed.Active {
		removed.Active = false
		if err := self.snapshotRepository.Update(removed); err != nil {
			return errors.WithMessagef(err, "Could not update Snapshot %d", removed.ID)
		}
		if removed.ParentID != nil {
			parent, err := self.snapshotRepository.GetById(*removed.ParentID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select Snapshot %d", *removed.ParentID)
			}
			if parent != nil && parent.State != domain.StateClosed {
				parent.Active = true
				if err := self.snapshotRepository.Update(parent); err != nil {
					return errors.WithMessagef(err, "Could not update Snapshot %d", parent.ID)
				}
			}
		}
	}
	return nil
}

func (self *snapshotService) activate(snapshot *domain.Snapshot) error {
	previous, err := self.snapshotRepository.GetActiveByVM(snapshot.VMID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select active Snapshot of VM %d", snapshot.VMID)
	}
	if previous != nil && previous.ID != snapshot.ID {
		previous.Active = false
		if err := self.snapshotRepository.Update(previous); err != nil {
			return errors.WithMessagef(err, "Could not update Snapshot %d", previous.ID)
		}
	}
	if !snapshot.Active {
		snapshot.Active = true
		if err := self.snapshotRepository.Update(snapshot); err != nil {
			return errors.WithMessagef(err, "Could not update Snapshot %d", snapshot.ID)
		}
	}
	return nil
}

func (self *snapshotService) GetTree(requester domain.Requester, vmID int) ([]domain.SnapshotTree, error) {
	if _, err := self.visibleVM(requester, vmID, "iaas_snapshot_read_001"); err != nil {
		return nil, err
	}
	snapshots, err := self.snapshotRepository.GetByVM(vmID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Snapshots of VM %d", vmID)
	}
	return domain.BuildSnapshotTree(snapshots), nil
}

func (self *snapshotService) GetHistoryByPage(requester domain.Requester, id int, page *repository.Page) ([]domain.SnapshotHistory, error) {
	if _, err := self.GetById(requester, id); err != nil {
		return nil, err
	}
	history, err := self.snapshotRepository.GetHistoryByPage(id, page)
	return history, errors.WithMessagef(err, "Could not select history of Snapshot %d", id)
}
