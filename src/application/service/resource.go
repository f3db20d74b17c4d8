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

type CephService interface {
	WithQuerier(config.PgxIface) CephService

	GetByPage(domain.Requester, *repository.Page, repository.ResourceFilter) ([]domain.Resource, error)
	GetById(domain.Requester, int) (*domain.Resource, error)
	Create(domain.Requester, *CephCreate) (*domain.Resource, error)
	Update(domain.Requester, int, CephUpdate) (*domain.Resource, error)

	Attach(requester domain.Requester, resourceID, parentVMID int) error
	Detach(requester domain.Requester, resourceID int) error
}

type CephCreate struct {
	ProjectID int    `json:"project_id"`
	SizeGB    int    `json:"CEPH_001"`
	Name      string `json:"name"`
}

type CephUpdate struct {
	State  *domain.State `json:"state"`
	SizeGB *int          `json:"CEPH_001"`
	Name   *string       `json:"name"`
}

type cephService struct {
	logger zerolog.Logger
	db     config.PgxIface

	resourceRepository repository.ResourceRepository
	projectRepository  repository.ProjectRepository
	vmRepository       repository.VmRepository

	projectService ProjectService
}

func NewCephService(db config.PgxIface, projectService ProjectService, logger *zerolog.Logger) CephService {
	return &cephService{
		logger:             logger.With().Str("component", "CephService").Logger(),
		db:                 db,
		resourceRepository: persistence.NewResourceRepository(db),
		projectRepository:  persistence.NewProjectRepository(db),
		vmRepository:       persistence.NewVmRepository(db),
		projectService:     projectService,
	}
}

func (self *cephService) WithQuerier(querier config.PgxIface) CephService {
	return &cephService{
		logger:             self.logger,
		db:                 querier,
		resourceRepository: self.resourceRepository.WithQuerier(querier),
		projectRepository:  self.projectRepository.WithQuerier(querier),
		vmRepository:       self.vmRepository.WithQuerier(querier),
		projectService:     self.projectService.WithQuerier(querier),
	}
}

var resourceOrders = map[string]string{
	"id":      "resource.id",
	"created": "resource.created",
	"name":    "resource.name",
	"state":   "resource.state",
}

func (self *cephService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.ResourceFilter) (resources []domain.Resource, err error) {
	cephType := domain.ResourceTypeCeph
	filter.ResourceType = &cephType
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing Ceph resources")
	resources, err = self.resourceRepository.GetByPage(page, filter, page.OrderBy(resourceOrders, "resource.id"))
	err = errors.WithMessage(err, "Could not select Resources")
	return
}

func (self *cephService) GetById(requester domain.Requester, id int) (*domain.Resource, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Ceph resource by ID")
	resource, err := self.resourceRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Resource %d", id)
	}
	if resource == nil || resource.ResourceType != domain.ResourceTypeCeph {
		return nil, domain.NewApiError("iaas_ceph_read_001")
	}
	if _, err := self.visibleProject(requester, resource.ProjectID, "iaas_ceph_read_001"); err != nil {
		return nil, err
	}
	return resource, nil
}

func (self *cephService) visibleProject(requester domain.Requester, projectID int, code string) (*domain.Project, error) {
	project, err := self.projectRepository.GetById(projectID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", projectID)
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
	return project, nil
}

func (self *cephService) Create(requester domain.Requester, create *CephCreate) (*domain.Resource, error) {
	if requester.IsPrivate {
		return nil, domain.NewApiError("iaas_ceph_create_201")
	}

	project, err := self.visibleProject(requester, create.ProjectID, "iaas_ceph_create_101")
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok {
			return nil, domain.FieldErrors{"project_id": apiErr}
		}
		return nil, err
	}
	if project.Closed {
		return nil, domain.FieldErrors{"project_id": domain.NewApiError("iaas_ceph_create_101")}
	}

	if create.SizeGB <= 0 {
		return nil, domain.FieldErrors{"CEPH_001": domain.NewApiError("iaas_ceph_create_102")}
	}

	if create.Name == "" || len(create.Name) > domain.ResourceNameMaxLength ||
		!domain.ResourceNamePattern.MatchString(create.Name) {
		return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_ceph_create_103")}
	}
	if count, err := self.resourceRepository.CountNameInRegion(create.Name, domain.ResourceTypeCeph, project.AddressID, project.RegionID, 0); err != nil {
		return nil, errors.WithMessagef(err, "Could not count Resources named %q", create.Name)
	} else if count > 0 {
		return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_ceph_create_103")}
	}

	resource := &domain.Resource{
		Name:         create.Name,
		ProjectID:    project.ID,
		ResourceType: domain.ResourceTypeCeph,
		State:        domain.StateRequested,
		Specs:        domain.SkuQuantities{domain.SkuCephGB: create.SizeGB},
	}
	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*cephService)
		if err := txSelf.resourceRepository.Save(resource); err != nil {
			return errors.WithMessage(err, "Could not insert Resource")
		}
		return txSelf.projectService.SetRunRobotFlags(project.ID)
	})
	if err != nil {
		return nil, err
	}
	self.logger.Info().Int("id", resource.ID).Str("name", resource.Name).Msg("Created Ceph resource")
	return resource, nil
}

func (self *cephService) Update(requester domain.Requester, id int, update CephUpdate) (*domain.Resource, error) {
	resource, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_ceph_read_001" {
			return nil, domain.NewApiError("iaas_ceph_update_001")
		}
		return nil, err
	}

	if requester.Robot && (update.SizeGB != nil || update.Name != nil) {
		return nil, domain.NewApiError("iaas_ceph_update_201")
	}

	stateMap := domain.StateMapFor(requester.Robot)
	if update.State != nil && !resource.State.CanTransition(*update.State, stateMap) {
		return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_ceph_update_101")}
	}

	resize := false
	if update.SizeGB != nil && *update.SizeGB != resource.Specs[domain.SkuCephGB] {
		if *update.SizeGB < resource.Specs[domain.SkuCephGB] {
			return nil, domain.FieldErrors{"CEPH_001": domain.NewApiError("iaas_ceph_update_102")}
		}
		resize = true
	}

	targetState := resource.State
	if update.State != nil {
		targetState = *update.State
	}
	if resize {
		if update.State != nil && *update.State != resource.State {
			// An explicit state next to a resize must carry the update.
			if targetState != domain.StateRunningUpdate && targetState != domain.StateQuiescedUpdate {
				return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_ceph_update_104")}
			}
		} else {
			switch resource.State {
			case domain.StateRunning:
				targetState = domain.StateRunningUpdate
			case domain.StateQuiesced:
				targetState = domain.StateQuiescedUpdate
			case domain.StateRunningUpdate, domain.StateQuiescedUpdate:
			default:
				return nil, domain.FieldErrors{"CEPH_001": domain.NewApiError("iaas_ceph_update_103")}
			}
		}
		resource.Specs[domain.SkuCephGB] = *update.SizeGB
	}
	resource.State = targetState

	if update.Name != nil && *update.Name != resource.Name {
		if *update.Name == "" || len(*update.Name) > domain.ResourceNameMaxLength ||
			!domain.ResourceNamePattern.MatchString(*update.Name) {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_ceph_create_103")}
		}
		project, err := self.projectRepository.GetById(resource.ProjectID)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select Project %d", resource.ProjectID)
		}
		if count, err := self.resourceRepository.CountNameInRegion(*update.Name, domain.ResourceTypeCeph, project.AddressID, project.RegionID, id); err != nil {
			return nil, errors.WithMessagef(err, "Could not count Resources named %q", *update.Name)
		} else if count > 0 {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_ceph_create_103")}
		}
		resource.Name = *update.Name
	}

	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*cephService)
		if err := txSelf.resourceRepository.Update(resource); err != nil {
			return errors.WithMessagef(err, "Could not update Resource %d", id)
		}
		if slices.Contains(domain.RobotProcessStates, resource.State) {
			return txSelf.projectService.SetRunRobotFlags(resource.ProjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	self.logger.Debug().Int("id", id).Int("state", int(resource.State)).Msg("Updated Ceph resource")
	return resource, nil
}

// Attach binds a running or quiesced resource under a VM of the same
// project and queues both for the robot.
func (self *cephService) Attach(requester domain.Requester, resourceID, parentVMID int) error {
	resource, err := self.resourceRepository.GetById(resourceID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Resource %d", resourceID)
	}
	if resource == nil {
		return domain.NewApiError("iaas_attach_update_001")
	}
	if _, err := self.visibleProject(requester, resource.ProjectID, "iaas_attach_update_201"); err != nil {
		return err
	}
	if !resource.Attachable() || resource.ParentID != nil ||
		(resource.State != domain.StateRunning && resource.State != domain.StateQuiesced) {
		return domain.NewApiError("iaas_attach_update_101")
	}

	vm, err := self.vmRepository.GetById(parentVMID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select VM %d", parentVMID)
	}
	if vm == nil || vm.ProjectID != resource.ProjectID ||
		(vm.State != domain.StateRunning && vm.State != domain.StateQuiesced) {
		return domain.NewApiError("iaas_attach_update_102")
	}

	return pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*cephService)

		resource.ParentID = &vm.ID
		resource.State = domain.StateRunning
		if err := txSelf.resourceRepository.Update(resource); err != nil {
			return errors.WithMessagef(err, "Could not update Resource %d", resourceID)
		}

		if vm.State == domain.StateRunning {
			vm.State = domain.StateRunningUpdate
		} else {
			vm.State = domain.StateQuiescedUpdate
		}
		if err := txSelf.vmRepository.Update(vm); err != nil {
			return errors.WithMessagef(err, "Could not update VM %d", vm.ID)
		}

		self.logger.Info().Int("resource_id", resourceID).Int("vm_id", vm.ID).Msg("Attached resource")
		return txSelf.projectService.SetRunRobotFlags(resource.ProjectID)
	})
}

// Detach is two-phased: the user requests it, the robot completes it.
func (self *cephService) Detach(requester domain.Requester, resourceID int) error {
	resource, err := self.resourceRepository.GetById(resourceID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Resource %d", resourceID)
	}
	if resource == nil {
		return domain.NewApiError("iaas_detach_update_001")
	}
	if _, err := self.visibleProject(requester, resource.ProjectID, "iaas_detach_update_201"); err != nil {
		return err
	}

	if requester.Robot {
		if resource.State != domain.StateQuiesced {
			return domain.NewApiError("iaas_detach_update_101")
		}
		resource.ParentID = nil
		resource.State = domain.StateRunning
		return errors.WithMessagef(
			self.resourceRepository.Update(resource),
			"Could not update Resource %d", resourceID,
		)
	}

	if resource.State != domain.StateRunning || resource.ParentID == nil {
		return domain.NewApiError("iaas_detach_update_101")
	}
	vm, err := self.vmRepository.GetById(*resource.ParentID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select VM %d", *resource.ParentID)
	}
	if vm == nil || (vm.State != domain.StateRunning && vm.State != domain.StateQuiesced) {
		return domain.NewApiError("iaas_detach_update_101")
	}

	return pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*cephService)

		resource.State = domain.StateQuiesced
		if err := txSelf.resourceRepository.Update(resource); err != nil {
			return errors.WithMessagef(err, "Could not update Resource %d", resourceID)
		}

		if vm.State == domain.StateRunning {
			vm.State = domain.StateRunningUpdate
		} else {
			vm.State = domain.StateQuiescedUpdate
		}
		if err := txSelf.vmRepository.Update(vm); err != nil {
			return errors.WithMessagef(err, "Could not update VM %d", vm.ID)
		}

		self.logger.Info().Int("resource_id", resourceID).Msg("Requested resource detach")
		return txSelf.projectService.SetRunRobotFlags(resource.ProjectID)
	})
}
