package service

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

// RobotWork is the region robot's worklist: every id bucketed by the
// state transition the robot has to perform.
type RobotWork struct {
	ProjectIDs     []int          `json:"project_ids"`
	VirtualRouters RobotWorkQueue `json:"virtual_routers"`
	VMs            RobotWorkQueue `json:"vms"`
	Snapshots      RobotWorkQueue `json:"snapshots"`
	Backups        RobotWorkQueue `json:"backups"`
}

type RobotWorkQueue struct {
	Build          []int `json:"build"`
	Quiesce        []int `json:"quiesce"`
	QuiescedUpdate []int `json:"quiesced_update"`
	Restart        []int `json:"restart"`
	RunningUpdate  []int `json:"running_update"`
	Scrub          []int `json:"scrub"`
}

func (self *RobotWorkQueue) add(id int, state domain.State) {
	switch state {
	case domain.StateRequested:
		self.Build = append(self.Build, id)
	case domain.StateQuiesce:
		self.Quiesce = append(self.Quiesce, id)
	case domain.StateQuiescedUpdate:
		self.QuiescedUpdate = append(self.QuiescedUpdate, id)
	case domain.StateRestart:
		self.Restart = append(self.Restart, id)
	case domain.StateRunningUpdate:
		self.RunningUpdate = append(self.RunningUpdate, id)
	case domain.StateScrub:
		self.Scrub = append(self.Scrub, id)
	}
}

type RunRobotService interface {
	WithQuerier(config.PgxIface) RunRobotService

	GetWork(domain.Requester) (*RobotWork, error)
	TurnOff(requester domain.Requester, projectIDs []int) error
}

type runRobotService struct {
	logger zerolog.Logger

	projectRepository       repository.ProjectRepository
	virtualRouterRepository repository.VirtualRouterRepository
	vmRepository            repository.VmRepository
	snapshotRepository      repository.SnapshotRepository
	backupRepository        repository.BackupRepository
}

func NewRunRobotService(db config.PgxIface, logger *zerolog.Logger) RunRobotService {
	return &runRobotService{
		logger:                  logger.With().Str("component", "RunRobotService").Logger(),
		projectRepository:       persistence.NewProjectRepository(db),
		virtualRouterRepository: persistence.NewVirtualRouterRepository(db),
		vmRepository:            persistence.NewVmRepository(db),
		snapshotRepository:      persistence.NewSnapshotRepository(db),
		backupRepository:        persistence.NewBackupRepository(db),
	}
}

func (self *runRobotService) WithQuerier(querier config.PgxIface) RunRobotService {
	return &runRobotService{
		logger:                  self.logger,
		projectRepository:       self.projectRepository.WithQuerier(querier),
		virtualRouterRepository: self.virtualRouterRepository.WithQuerier(querier),
		vmRepository:            self.vmRepository.WithQuerier(querier),
		snapshotRepository:      self.snapshotRepository.WithQuerier(querier),
		backupRepository:        self.backupRepository.WithQuerier(querier),
	}
}

func (self *runRobotService) GetWork(requester domain.Requester) (*RobotWork, error) {
	if !requester.Robot {
		return nil, domain.NewApiError("iaas_run_robot_list_201")
	}
	regionID := requester.RegionID()

	work := &RobotWork{ProjectIDs: []int{}}

	projects, err := self.projectRepository.GetRunRobotByRegion(regionID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select flagged Projects of region %d", regionID)
	}
	for _, project := range projects {
		work.ProjectIDs = append(work.ProjectIDs, project.ID)
	}

	// Only infrastructure of the flagged projects is handed out.
	if len(work.ProjectIDs) == 0 {
		return work, nil
	}

	virtualRouters, err := self.virtualRouterRepository.GetByProjectsAndStates(work.ProjectIDs, domain.RobotProcessStates)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VirtualRouters of region %d", regionID)
	}
	for _, virtualRouter := range virtualRouters {
		work.VirtualRouters.add(virtualRouter.ID, virtualRouter.State)
	}

	vms, err := self.vmRepository.GetByProjectsAndStates(work.ProjectIDs, domain.RobotProcessStates)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VMs of region %d", regionID)
	}
	for _, vm := range vms {
		work.VMs.add(vm.ID, vm.State)
	}

	snapshots, err := self.snapshotRepository.GetByProjectsAndStates(work.ProjectIDs, domain.RobotProcessStates)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Snapshots of region %d", regionID)
	}
	for _, snapshot := range snapshots {
		work.Snapshots.add(snapshot.ID, snapshot.State)
	}

	backups, err := self.backupRepository.GetByProjectsAndStates(work.ProjectIDs, domain.RobotProcessStates)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Backups of region %d", regionID)
	}
	for _, backup := range backups {
		work.Backups.add(backup.ID, backup.State)
	}

	self.logger.Trace().
		Int("region_id", regionID).
		Int("projects", len(work.ProjectIDs)).
		Msg("Collected robot work")
	return work, nil
}

func (self *runRobotService) TurnOff(requester domain.Requester, projectIDs []int) error {
	if !requester.Robot {
		return domain.NewApiError("iaas_run_robot_turn_off_201")
	}
	if len(projectIDs) == 0 {
		return nil
	}
	self.logger.Debug().Ints("project_ids", projectIDs).Msg("Clearing run_robot flags")
	return errors.WithMessage(
		self.projectRepository.ClearRunRobot(projectIDs, requester.RegionID()),
		"Could not clear run_robot flags",
	)
}
