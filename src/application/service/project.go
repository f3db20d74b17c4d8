package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type ProjectService interface {
	WithQuerier(config.PgxIface) ProjectService

	GetByPage(domain.Requester, *repository.Page, repository.ProjectFilter) ([]domain.Project, error)
	GetById(domain.Requester, int) (*domain.Project, error)
	Create(domain.Requester, *domain.Project) error
	Update(domain.Requester, int, ProjectUpdate) (*domain.Project, error)

	// SetRunRobotFlags marks the project for the next robot sweep.
	SetRunRobotFlags(projectID int) error
}

type ProjectUpdate struct {
	Name        *string `json:"name"`
	GracePeriod *int    `json:"grace_period"`
	ManagerID   *int    `json:"manager_id"`
	Note        *string `json:"note"`
	Archived    *bool   `json:"archived"`
	ResellerID  *int    `json:"reseller_id"`
	RunRobot    *bool   `json:"run_robot"`
	RunIcarus   *bool   `json:"run_icarus"`
}

type projectService struct {
	logger zerolog.Logger
	db     config.PgxIface

	projectRepository       repository.ProjectRepository
	serverRepository        repository.ServerRepository
	routerRepository        repository.RouterRepository
	virtualRouterRepository repository.VirtualRouterRepository
	asnRepository           repository.AsnRepository
	allocationRepository    repository.AllocationRepository
	subnetRepository        repository.SubnetRepository
	ipAddressRepository     repository.IPAddressRepository
}

func NewProjectService(db config.PgxIface, logger *zerolog.Logger) ProjectService {
	return &projectService{
		logger:                  logger.With().Str("component", "ProjectService").Logger(),
		db:                      db,
		projectRepository:       persistence.NewProjectRepository(db),
		serverRepository:        persistence.NewServerRepository(db),
		routerRepository:        persistence.NewRouterRepository(db),
		virtualRouterRepository: persistence.NewVirtualRouterRepository(db),
		asnRepository:           persistence.NewAsnRepository(db),
		allocationRepository:    persistence.NewAllocationRepository(db),
		subnetRepository:        persistence.NewSubnetRepository(db),
		ipAddressRepository:     persistence.NewIPAddressRepository(db),
	}
}

func (self *projectService) WithQuerier(querier config.PgxIface) ProjectService {
	return &projectService{
		logger:                  self.logger,
		db:                      querier,
		projectRepository:       self.projectRepository.WithQuerier(querier),
		serverRepository:        self.serverRepository.WithQuerier(querier),
		routerRepository:        self.routerRepository.WithQuerier(querier),
		virtualRouterRepository: self.virtualRouterRepository.WithQuerier(querier),
		asnRepository:           self.asnRepository.WithQuerier(querier),
		allocationRepository:    self.allocationRepository.WithQuerier(querier),
		subnetRepository:        self.subnetRepository.WithQuerier(querier),
		ipAddressRepository:     self.ipAddressRepository.WithQuerier(querier),
	}
}

var projectOrders = map[string]string{
	"id":        "project.id",
	"created":   "project.created",
	"name":      "project.name",
	"region_id": "project.region_id",
	"updated":   "project.updated",
}

func (self *projectService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.ProjectFilter) (projects []domain.Project, err error) {
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing Projects")
	projects, err = self.projectRepository.GetByPage(page, filter, page.OrderBy(projectOrders, "project.id DESC"))
	err = errors.WithMessage(err, "Could not select Projects")
	return
}

func (self *projectService) GetById(requester domain.Requester, id int) (*domain.Project, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Project by ID")
	project, err := self.projectRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", id)
	}
	if project == nil {
		return nil, domain.NewApiError("iaas_project_read_001")
	}
	if requester.Robot {
		if project.RegionID != requester.RegionID() {
			return nil, domain.NewApiError("iaas_project_read_201")
		}
	} else if !requester.CanSeeAddress(project.AddressID) {
		return nil, domain.NewApiError("iaas_project_read_201")
	}
	return project, nil
}

func (self *projectService) Create(requester domain.Requester, project *domain.Project) error {
	if requester.IsPrivate {
		return domain.NewApiError("iaas_project_create_201")
	}

	fieldErrors := domain.FieldErrors{}
	if project.Name == "" || len(project.Name) > 100 {
		fieldErrors["name"] = domain.NewApiError("iaas_project_create_101")
	}
	if count, err := self.serverRepository.CountEnabledByRegion(project.RegionID); err != nil {
		return errors.WithMessagef(err, "Could not count servers of region %d", project.RegionID)
	} else if count == 0 {
		fieldErrors["region_id"] = domain.NewApiError("iaas_project_create_102")
	}
	if project.GracePeriod < 0 {
		fieldErrors["grace_period"] = domain.NewApiError("iaas_project_create_103")
	}
	if len(fieldErrors) > 0 {
		return fieldErrors
	}

	project.AddressID = requester.AddressID
	project.RunRobot = true
	project.RunIcarus = true

	return pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*projectService)

		if err := txSelf.projectRepository.Save(project); err != nil {
			return errors.WithMessage(err, "Could not insert Project")
		}

		asn := domain.Asn{MemberID: requester.MemberID, Number: project.PseudoAsn()}
		if err := txSelf.asnRepository.Save(&asn); err != nil {
			return errors.WithMessagef(err, "Could not insert pseudo ASN for Project %d", project.ID)
		}

		allocation := domain.Allocation{
			AsnID:        asn.ID,
			AddressID:    project.AddressID,
			AddressRange: "10.0.0.0/16",
			Name:         project.Name,
		}
		if err := txSelf.allocationRepository.Save(&allocation); err != nil {
			return errors.WithMessagef(err, "Could not insert Allocation for Project %d", project.ID)
		}

		router, err := txSelf.routerRepository.GetLeastUsedEnabledByRegion(project.RegionID)
		if err != nil {
			return errors.WithMessagef(err, "Could not select a Router in region %d", project.RegionID)
		}
		if router == nil {
			return domain.NewApiError("iaas_project_create_104")
		}

		floatingIP, err := txSelf.pickFloatingIP(router)
		if err != nil {
			return err
		}

		virtualRouter := domain.VirtualRouter{
			IPAddressID: floatingIP.ID,
			ProjectID:   project.ID,
			RouterID:    router.ID,
			State:       domain.StateRequested,
		}
		if err := txSelf.virtualRouterRepository.Save(&virtualRouter); err != nil {
			return errors.WithMessagef(err, "Could not insert VirtualRouter for Project %d", project.ID)
		}

		// The default cloud subnet carries the project's first VLAN.
		vlansInUse, err := txSelf.subnetRepository.GetVLANsInUse(router.ID)
		if err != nil {
			return errors.WithMessagef(err, "Could not select VLANs of Router %d", router.ID)
		}
		vlan, err := router.NextVLAN(vlansInUse)
		if err != nil {
			return err
		}
		gateway := "10.0.0.1"
		subnet := domain.Subnet{
			AddressID:       project.AddressID,
			AddressRange:    "10.0.0.0/24",
			AllocationID:    allocation.ID,
			Gateway:         &gateway,
			Name:            project.Name,
			VirtualRouterID: &virtualRouter.ID,
			VLAN:            &vlan,
		}
		if err := txSelf.subnetRepository.Save(&subnet); err != nil {
			return errors.WithMessagef(err, "Could not insert default Subnet for Project %d", project.ID)
		}

		project.VirtualRouterID = &virtualRouter.ID
		minState, maxState := domain.StateRequested, domain.StateRequested
		project.MinState, project.MaxState = &minState, &maxState

		self.logger.Info().
			Int("id", project.ID).
			Int("virtual_router_id", virtualRouter.ID).
			Msg("Created Project")
		return nil
	})
}

// pickFloatingIP reserves a free address in the router's public subnets
// for the project's virtual router.
func (self *projectService) pickFloatingIP(router *domain.Router) (*domain.IPAddress, error) {
	floatingIP, err := allocatePublicIP(self.subnetRepository, self.ipAddressRepository, router, "floating")
	if err != nil {
		return nil, err
	}
	if floatingIP == nil {
		return nil, domain.NewApiError("iaas_project_create_105")
	}
	return floatingIP, nil
}

func (self *projectService) Update(requester domain.Requester, id int, update ProjectUpdate) (*domain.Project, error) {
	project, err := self.projectRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", id)
	}
	if project == nil {
		return nil, domain.NewApiError("iaas_project_update_001")
	}

	if requester.Robot {
		if project.RegionID != requester.RegionID() {
			return nil, domain.NewApiError("iaas_project_update_201")
		}
		// A robot only acknowledges finished sweeps.
		if update.RunRobot != nil {
			project.RunRobot = *update.RunRobot
		}
		if update.RunIcarus != nil {
			project.RunIcarus = *update.RunIcarus
		}
		if err := self.projectRepository.Update(project); err != nil {
			return nil, errors.WithMessagef(err, "Could not update Project %d", id)
		}
		return project, nil
	}

	if !requester.CanSeeAddress(project.AddressID) {
		return nil, domain.NewApiError("iaas_project_update_201")
	}

	fieldErrors := domain.FieldErrors{}
	if update.Name != nil {
		if *update.Name == "" || len(*update.Name) > 100 {
			fieldErrors["name"] = domain.NewApiError("iaas_project_update_101")
		} else {
			project.Name = *update.Name
		}
	}
	if update.GracePeriod != nil {
		if *update.GracePeriod < 0 {
			fieldErrors["grace_period"] = domain.NewApiError("iaas_project_update_102")
		} else {
			project.GracePeriod = *update.GracePeriod
		}
	}
	if update.Archived != nil && *update.Archived && !project.Archived {
		states, err := self.projectRepository.GetInfrastructureStates(id)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select infrastructure states of Project %d", id)
		}
		closed := true
		for _, state := range states {
			if state != domain.StateClosed {
				closed = false
				break
			}
		}
		if !closed {
			fieldErrors["archived"] = domain.NewApiError("iaas_project_update_103")
		}
	}
	if len(fieldErrors) > 0 {
		return nil, fieldErrors
	}

	if update.ManagerID != nil {
		project.ManagerID = update.ManagerID
	}
	if update.Note != nil {
		project.Note = update.Note
	}
	if update.Archived != nil {
		project.Archived = *update.Archived
		project.Closed = project.Closed || *update.Archived
	}
	if update.ResellerID != nil {
		project.ResellerID = update.ResellerID
	}

	if err := self.projectRepository.Update(project); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Project %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated Project")
	return project, nil
}

func (self *projectService) SetRunRobotFlags(projectID int) error {
	return errors.WithMessagef(
		self.projectRepository.SetRunRobotFlags(projectID),
		"Could not set run robot flags on Project %d", projectID,
	)
}
