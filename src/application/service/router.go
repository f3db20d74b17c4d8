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

type RouterService interface {
	WithQuerier(config.PgxIface) RouterService

	GetByPage(domain.Requester, *repository.Page, repository.RouterFilter) ([]domain.Router, error)
	GetById(domain.Requester, int) (*domain.Router, error)
	Create(domain.Requester, *domain.Router) error
	Update(domain.Requester, int, RouterUpdate) (*domain.Router, error)
}

type RouterUpdate struct {
	AssetTag      *string   `json:"asset_tag"`
	Capacity      *int      `json:"capacity"`
	Credentials   *string   `json:"credentials"`
	Enabled       *bool     `json:"enabled"`
	Username      *string   `json:"username"`
	VLANs         *string   `json:"vlans"`
	PublicSubnets *[]string `json:"public_subnets"`
}

type routerService struct {
	logger           zerolog.Logger
	routerRepository repository.RouterRepository
}

func NewRouterService(db config.PgxIface, logger *zerolog.Logger) RouterService {
	return &routerService{
		logger:           logger.With().Str("component", "RouterService").Logger(),
		routerRepository: persistence.NewRouterRepository(db),
	}
}

func (self *routerService) WithQuerier(querier config.PgxIface) RouterService {
	return &routerService{
		logger:           self.logger,
		routerRepository: self.routerRepository.WithQuerier(querier),
	}
}

func routerOperator(requester domain.Requester) bool {
	return requester.Robot || requester.Superuser() || requester.Administrator
}

var routerOrders = map[string]string{
	"id":        "router.id",
	"region_id": "router.region_id",
}

func (self *routerService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.RouterFilter) (routers []domain.Router, err error) {
	if !routerOperator(requester) {
		return nil, domain.NewApiError("iaas_router_create_201")
	}
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	}

	self.logger.Trace().Msg("Listing Routers")
	routers, err = self.routerRepository.GetByPage(page, filter, page.OrderBy(routerOrders, "router.id"))
	err = errors.WithMessage(err, "Could not select Routers")
	return
}

func (self *routerService) GetById(requester domain.Requester, id int) (*domain.Router, error) {
	if !routerOperator(requester) {
		return nil, domain.NewApiError("iaas_router_create_201")
	}
	self.logger.Trace().Int("id", id).Msg("Getting Router by ID")
	router, err := self.routerRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Router %d", id)
	}
	if router == nil || (requester.Robot && router.RegionID != requester.RegionID()) {
		return nil, domain.NewApiError("iaas_router_read_001")
	}
	return router, nil
}

func (self *routerService) Create(requester domain.Requester, router *domain.Router) error {
	if !routerOperator(requester) {
		return domain.NewApiError("iaas_router_create_201")
	}
	if requester.Robot {
		router.RegionID = requester.RegionID()
	}
	if router.RegionID <= 0 || router.VLANs == "" {
		return domain.FieldErrors{"vlans": domain.NewApiError("iaas_router_create_101")}
	}
	if _, _, err := router.VLANRange(); err != nil {
		return domain.FieldErrors{"vlans": domain.NewApiError("iaas_router_create_101")}
	}

	if err := self.routerRepository.Save(router); err != nil {
		return errors.WithMessage(err, "Could not insert Router")
	}
	self.logger.Info().Int("id", router.ID).Int("region_id", router.RegionID).Msg("Created Router")
	return nil
}

func (self *routerService) Update(requester domain.Requester, id int, update RouterUpdate) (*domain.Router, error) {
	router, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_router_read_001" {
			return nil, domain.NewApiError("iaas_router_update_001")
		}
		return nil, err
	}

	if update.AssetTag != nil {
		router.AssetTag = update.AssetTag
	}
	if update.Capacity != nil {
		router.Capacity = update.Capacity
	}
	if update.Credentials != nil {
		router.Credentials = update.Credentials
	}
	if update.Enabled != nil {
		router.Enabled = *update.Enabled
	}
	if update.Username != nil {
		router.Username = update.Username
	}
	if update.VLANs != nil {
		router.VLANs = *update.VLANs
		if _, _, err := router.VLANRange(); err != nil {
			return nil, domain.FieldErrors{"vlans": domain.NewApiError("iaas_router_create_101")}
		}
	}
	if update.PublicSubnets != nil {
		router.PublicSubnets = *update.PublicSubnets
	}

	if err := self.routerRepository.Update(router); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Router %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated Router")
	return router, nil
}

type VirtualRouterService interface {
	WithQuerier(config.PgxIface) VirtualRouterService

	GetByPage(domain.Requester, *repository.Page, repository.VirtualRouterFilter) ([]domain.VirtualRouter, error)
	GetById(domain.Requester, int) (*domain.VirtualRouter, error)
	Update(domain.Requester, int, VirtualRouterUpdate) (*domain.VirtualRouter, error)
}

type VirtualRouterUpdate struct {
	State *domain.State `json:"state"`
}

type virtualRouterService struct {
	logger zerolog.Logger
	db     config.PgxIface

	virtualRouterRepository repository.VirtualRouterRepository
	projectRepository       repository.ProjectRepository
	subnetRepository        repository.SubnetRepository
	vpnRepository           repository.VpnRepository
}

func NewVirtualRouterService(db config.PgxIface, logger *zerolog.Logger) VirtualRouterService {
	return &virtualRouterService{
		logger:                  logger.With().Str("component", "VirtualRouterService").Logger(),
		db:                      db,
		virtualRouterRepository: persistence.NewVirtualRouterRepository(db),
		projectRepository:       persistence.NewProjectRepository(db),
		subnetRepository:        persistence.NewSubnetRepository(db),
		vpnRepository:           persistence.NewVpnRepository(db),
	}
}

func (self *virtualRouterService) WithQuerier(querier config.PgxIface) VirtualRouterService {
	return &virtualRouterService{
		logger:                  self.logger,
		db:                      querier,
		virtualRouterRepository: self.virtualRouterRepository.WithQuerier(querier),
		projectRepository:       self.projectRepository.WithQuerier(querier),
		subnetRepository:        self.subnetRepository.WithQuerier(querier),
		vpnRepository:           self.vpnRepository.WithQuerier(querier),
	}
}

var virtualRouterOrders = map[string]string{
	"id":         "virtual_router.id",
	"project_id": "virtual_router.project_id",
	"state":      "virtual_router.state",
}

func (self *virtualRouterService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.VirtualRouterFilter) (virtualRouters []domain.VirtualRouter, err error) {
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing VirtualRouters")
	virtualRouters, err = self.virtualRouterRepository.GetByPage(page, filter, page.OrderBy(virtualRouterOrders, "virtual_router.id"))
	err = errors.WithMessage(err, "Could not select VirtualRouters")
	return
}

func (self *virtualRouterService) GetById(requester domain.Requester, id int) (*domain.VirtualRouter, error) {
	self.logger.Trace().Int("id", id).Msg("Getting VirtualRouter by ID")
	virtualRouter, err := self.virtualRouterRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VirtualRouter %d", id)
	}
	if virtualRouter == nil {
		return nil, domain.NewApiError("iaas_virtual_router_read_001")
	}
	project, err := self.projectRepository.GetById(virtualRouter.ProjectID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", virtualRouter.ProjectID)
	}
	if project == nil {
		return nil, domain.NewApiError("iaas_virtual_router_read_001")
	}
	if requester.Robot {
		if project.RegionID != requester.RegionID() {
			return nil, domain.NewApiError("iaas_virtual_router_read_001")
		}
	} else if !requester.Superuser() && !requester.CanSeeAddress(project.AddressID) {
		return nil, domain.NewApiError("iaas_virtual_router_read_001")
	}
	return virtualRouter, nil
}

func (self *virtualRouterService) Update(requester domain.Requester, id int, update VirtualRouterUpdate) (*domain.VirtualRouter, error) {
	virtualRouter, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_virtual_router_read_001" {
			return nil, domain.NewApiError("iaas_virtual_router_update_001")
		}
		return nil, err
	}
	if update.State == nil {
		return virtualRouter, nil
	}

	stateMap := domain.StateMapFor(requester.Robot)
	if !virtualRouter.State.CanTransition(*update.State, stateMap) {
		return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_virtual_router_update_101")}
	}
	virtualRouter.State = *update.State

	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*virtualRouterService)

		if err := txSelf.virtualRouterRepository.Update(virtualRouter); err != nil {
			return errors.WithMessagef(err, "Could not update VirtualRouter %d", id)
		}
		// A closed virtual router takes its network down with it and
		// ends the project.
		if virtualRouter.State == domain.StateClosed {
			return txSelf.closeCascade(virtualRouter)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	self.logger.Debug().Int("id", id).Int("state", int(virtualRouter.State)).Msg("Updated VirtualRouter")
	return virtualRouter, nil
}

func (self *virtualRouterService) closeCascade(virtualRouter *domain.VirtualRouter) error {
	vpns, err := self.vpnRepository.GetByVirtualRouter(virtualRouter.ID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select VPNs of VirtualRouter %d", virtualRouter.ID)
	}
	for _, vpn := range vpns {
		if err := self.vpnRepository.DeleteRoutes(vpn.ID); err != nil {
			return errors.WithMessagef(err, "Could not delete routes of VPN %d", vpn.ID)
		}
		if err := self.vpnRepository.Delete(vpn.ID); err != nil {
			return errors.WithMessagef(err, "Could not delete VPN %d", vpn.ID)
		}
	}

	subnets, err := self.subnetRepository.GetByVirtualRouter(virtualRouter.ID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Subnets of VirtualRouter %d", virtualRouter.ID)
	}
	for _, subnet := range subnets {
		if err := self.subnetRepository.Delete(subnet.ID); err != nil {
			return errors.WithMessagef(err, "Could not delete Subnet %d", subnet.ID)
		}
	}

	project, err := self.projectRepository.GetById(virtualRouter.ProjectID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Project %d", virtualRouter.ProjectID)
	}
	project.Closed = true
	if err := self.projectRepository.Update(project); err != nil {
		return errors.WithMessagef(err, "Could not update Project %d", project.ID)
	}
	self.logger.Info().Int("project_id", project.ID).Msg("Closed Project after VirtualRouter shutdown")
	return nil
}
