package service

import (
	"context"
	"net/netip"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type VpnService interface {
	WithQuerier(config.PgxIface) VpnService

	GetByPage(domain.Requester, *repository.Page, repository.VpnFilter) ([]domain.VPN, error)
	GetById(domain.Requester, int) (*domain.VPN, error)
	Create(domain.Requester, *domain.VPN) error
	Update(domain.Requester, int, *domain.VPN) (*domain.VPN, error)
	Delete(domain.Requester, int) error

	GetHistoryByPage(domain.Requester, int, *repository.Page) ([]domain.VPNHistory, error)
}

type vpnService struct {
	logger zerolog.Logger
	db     config.PgxIface

	vpnRepository           repository.VpnRepository
	virtualRouterRepository repository.VirtualRouterRepository
	projectRepository       repository.ProjectRepository
	subnetRepository        repository.SubnetRepository

	projectService ProjectService
}

func NewVpnService(db config.PgxIface, projectService ProjectService, logger *zerolog.Logger) VpnService {
	return &vpnService{
		logger:                  logger.With().Str("component", "VpnService").Logger(),
		db:                      db,
		vpnRepository:           persistence.NewVpnRepository(db),
		virtualRouterRepository: persistence.NewVirtualRouterRepository(db),
		projectRepository:       persistence.NewProjectRepository(db),
		subnetRepository:        persistence.NewSubnetRepository(db),
		projectService:          projectService,
	}
}

func (self *vpnService) WithQuerier(querier config.PgxIface) VpnService {
	return &vpnService{
		logger:                  self.logger,
		db:                      querier,
		vpnRepository:           self.vpnRepository.WithQuerier(querier),
		virtualRouterRepository: self.virtualRouterRepository.WithQuerier(querier),
		projectRepository:       self.projectRepository.WithQuerier(querier),
		subnetRepository:        self.subnetRepository.WithQuerier(querier),
		projectService:          self.projectService.WithQuerier(querier),
	}
}

var vpnOrders = map[string]string{
	"id":                "vpn.id",
	"virtual_router_id": "vpn.virtual_router_id",
	"vpn_type":          "vpn.vpn_type",
}

func (self *vpnService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.VpnFilter) (vpns []domain.VPN, err error) {
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing VPNs")
	if vpns, err = self.vpnRepository.GetByPage(page, filter, page.OrderBy(vpnOrders, "vpn.id")); err != nil {
		return nil, errors.WithMessage(err, "Could not select VPNs")
	}
	for i := range vpns {
		if vpns[i].Routes, err = self.vpnRepository.GetRoutes(vpns[i].ID); err != nil {
			return nil, errors.WithMessagef(err, "Could not select routes of VPN %d", vpns[i].ID)
		}
	}
	return vpns, nil
}

// visibleVirtualRouter resolves a virtual router and checks project
// visibility for the requester.
func (self *vpnService) visibleVirtualRouter(requester domain.Requester, id int, code string) (*domain.VirtualRouter, error) {
	virtualRouter, err := self.virtualRouterRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VirtualRouter %d", id)
	}
	if virtualRouter == nil {
		return nil, domain.NewApiError(code)
	}
	project, err := self.projectRepository.GetById(virtualRouter.ProjectID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", virtualRouter.ProjectID)
	}
	if project == nil {
		return nil, domain.NewApiError(code)
	}
	if requester.Robot {
		if project.RegionID != requester.RegionID() {
			return nil, domain.NewApiError(code)
		}
	} else if !requester.Superuser() && !requester.CanSeeAddress(project.AddressID) {
		return nil, domain.NewApiError(code)
	}
	return virtualRouter, nil
}

func (self *vpnService) GetById(requester domain.Requester, id int) (*domain.VPN, error) {
	self.logger.Trace().Int("id", id).Msg("Getting VPN by ID")
	vpn, err := self.vpnRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VPN %d", id)
	}
	if vpn == nil {
		return nil, domain.NewApiError("iaas_vpn_read_001")
	}
	if _, err := self.visibleVirtualRouter(requester, vpn.VirtualRouterID, "iaas_vpn_read_001"); err != nil {
		return nil, err
	}
	if vpn.Routes, err = self.vpnRepository.GetRoutes(id); err != nil {
		return nil, errors.WithMessagef(err, "Could not select routes of VPN %d", id)
	}
	return vpn, nil
}

func (self *vpnService) validate(vpn *domain.VPN, cloudSubnets []domain.Subnet) domain.FieldErrors {
	if vpn.VPNType != domain.VPNTypeSiteToSite && vpn.VPNType != domain.VPNTypeDynamic {
		return domain.FieldErrors{"vpn_type": domain.NewApiError("iaas_vpn_create_102")}
	}
	if vpn.IKEVersion != domain.IKEVersion1 && vpn.IKEVersion != domain.IKEVersion2 {
		return domain.FieldErrors{"ike_version": domain.NewApiError("iaas_vpn_create_103")}
	}
	if !domain.ValidAlgorithms(vpn.IKEAuthentication, domain.IKEAuthentications) {
		return domain.FieldErrors{"ike_authentication": domain.NewApiError("iaas_vpn_create_104")}
	}
	if !domain.ValidAlgorithms(vpn.IKEDHGroups, domain.IKEDHGroups) {
		return domain.FieldErrors{"ike_dh_groups": domain.NewApiError("iaas_vpn_create_105")}
	}
	if !domain.ValidAlgorithms(vpn.IKEEncryption, domain.IKEEncryptions) {
		return domain.FieldErrors{"ike_encryption": domain.NewApiError("iaas_vpn_create_106")}
	}
	if vpn.IKELifetime < domain.VPNLifetimeMin || vpn.IKELifetime > domain.VPNLifetimeMax {
		return domain.FieldErrors{"ike_lifetime": domain.NewApiError("iaas_vpn_create_107")}
	}
	if vpn.IKEPreSharedKey == "" {
		return domain.FieldErrors{"ike_pre_shared_key": domain.NewApiError("iaas_vpn_create_108")}
	}
	switch vpn.IKEGatewayType {
	case domain.IKEGatewayPublicIP:
		if _, err := netip.ParseAddr(vpn.IKEGatewayValue); err != nil {
			return domain.FieldErrors{"ike_gateway_value": domain.NewApiError("iaas_vpn_create_109")}
		}
	case domain.IKEGatewayHostname:
		if vpn.IKEGatewayValue == "" {
			return domain.FieldErrors{"ike_gateway_value": domain.NewApiError("iaas_vpn_create_109")}
		}
	default:
		return domain.FieldErrors{"ike_gateway_type": domain.NewApiError("iaas_vpn_create_109")}
	}
	if !domain.ValidAlgorithms(vpn.IPSecAuthentication, domain.IPSecAuthentications) {
		return domain.FieldErrors{"ipsec_authentication": domain.NewApiError("iaas_vpn_create_110")}
	}
	if !domain.ValidAlgorithms(vpn.IPSecEncryption, domain.IPSecEncryptions) {
		return domain.FieldErrors{"ipsec_encryption": domain.NewApiError("iaas_vpn_create_111")}
	}
	if !domain.ValidAlgorithms(vpn.IPSecPFSGroupsUsed, domain.IPSecPFSGroups) {
		return domain.FieldErrors{"ipsec_pfs_groups": domain.NewApiError("iaas_vpn_create_112")}
	}
	if vpn.IPSecLifetime < domain.VPNLifetimeMin || vpn.IPSecLifetime > domain.VPNLifetimeMax {
		return domain.FieldErrors{"ipsec_lifetime": domain.NewApiError("iaas_vpn_create_113")}
	}
	if vpn.IPSecEstablishTime != domain.IPSecEstablishImmediately && vpn.IPSecEstablishTime != domain.IPSecEstablishOnTraffic {
		return domain.FieldErrors{"ipsec_establish_time": domain.NewApiError("iaas_vpn_create_114")}
	}

	local := make(map[int]bool, len(cloudSubnets))
	for _, subnet := range cloudSubnets {
		local[subnet.ID] = true
	}
	for _, route := range vpn.Routes {
		if !local[route.LocalSubnetID] {
			return domain.FieldErrors{"routes": domain.NewApiError("iaas_vpn_create_115")}
		}
		if _, err := netip.ParsePrefix(route.RemoteSubnet); err != nil {
			return domain.FieldErrors{"routes": domain.NewApiError("iaas_vpn_create_115")}
		}
	}
	return nil
}

// queueVirtualRouter moves the virtual router into an update state so
// the robot re-renders the firewall config.
func (self *vpnService) queueVirtualRouter(virtualRouter *domain.VirtualRouter) error {
	if virtualRouter.State.CanTransition(domain.StateRunningUpdate, domain.UserStateMap) {
		virtualRouter.State = domain.StateRunningUpdate
	} else if virtualRouter.State.CanTransition(domain.StateQuiescedUpdate, domain.UserStateMap) {
		virtualRouter.State = domain.StateQuiescedUpdate
	} else {
		return nil
	}
	if err := self.virtualRouterRepository.Update(virtualRouter); err != nil {
		return errors.WithMessagef(err, "Could not update VirtualRouter %d", virtualRouter.ID)
	}
	return self.projectService.SetRunRobotFlags(virtualRouter.ProjectID)
}

func (self *vpnService) Create(requester domain.Requester, vpn *domain.VPN) error {
	virtualRouter, err := self.visibleVirtualRouter(requester, vpn.VirtualRouterID, "iaas_vpn_create_101")
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok {
			return domain.FieldErrors{"virtual_router_id": apiErr}
		}
		return err
	}

	cloudSubnets, err := self.subnetRepository.GetByVirtualRouter(virtualRouter.ID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Subnets of VirtualRouter %d", virtualRouter.ID)
	}
	if fieldErrors := self.validate(vpn, cloudSubnets); fieldErrors != nil {
		return fieldErrors
	}

	return pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*vpnService)

		if vpn.StifNumber, err = txSelf.vpnRepository.NextStifNumber(virtualRouter.ID); err != nil {
			return errors.WithMessagef(err, "Could not pick a stif number on VirtualRouter %d", virtualRouter.ID)
		}
		if err := txSelf.vpnRepository.Save(vpn); err != nil {
			return errors.WithMessage(err, "Could not insert VPN")
		}
		for i := range vpn.Routes {
			vpn.Routes[i].VPNID = vpn.ID
			if err := txSelf.vpnRepository.SaveRoute(&vpn.Routes[i]); err != nil {
				return errors.WithMessagef(err, "Could not insert route for VPN %d", vpn.ID)
			}
		}
		if err := txSelf.vpnRepository.SaveHistory(&domain.VPNHistory{
			VPNID:   vpn.ID,
			UserID:  requester.ID,
			Message: "created",
		}); err != nil {
			return errors.WithMessage(err, "Could not insert VPNHistory")
		}
		if err := txSelf.queueVirtualRouter(virtualRouter); err != nil {
			return err
		}
		self.logger.Info().Int("id", vpn.ID).Int("stif_number", vpn.StifNumber).Msg("Created VPN")
		return nil
	})
}

func (self *vpnService) Update(requester domain.Requester, id int, update *domain.VPN) (*domain.VPN, error) {
	vpn, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_vpn_read_001" {
			return nil, domain.NewApiError("iaas_vpn_update_001")
		}
		return nil, err
	}
	virtualRouter, err := self.visibleVirtualRouter(requester, vpn.VirtualRouterID, "iaas_vpn_update_001")
	if err != nil {
		return nil, err
	}

	// The tunnel keeps its identity: stif number and virtual router are
	// assigned once.
	update.ID = vpn.ID
	update.StifNumber = vpn.StifNumber
	update.VirtualRouterID = vpn.VirtualRouterID

	cloudSubnets, err := self.subnetRepository.GetByVirtualRouter(virtualRouter.ID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Subnets of VirtualRouter %d", virtualRouter.ID)
	}
	if fieldErrors := self.validate(update, cloudSubnets); fieldErrors != nil {
		return nil, fieldErrors
	}

	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*vpnService)

		if err := txSelf.vpnRepository.Update(update); err != nil {
			return errors.WithMessagef(err, "Could not update VPN %d", id)
		}
		if err := txSelf.vpnRepository.DeleteRoutes(id); err != nil {
			return errors.WithMessagef(err, "Could not delete routes of VPN %d", id)
		}
		for i := range update.Routes {
			update.Routes[i].VPNID = id
			if err := txSelf.vpnRepository.SaveRoute(&update.Routes[i]); err != nil {
				return errors.WithMessagef(err, "Could not insert route for VPN %d", id)
			}
		}
		if err := txSelf.vpnRepository.SaveHistory(&domain.VPNHistory{
			VPNID:   id,
			UserID:  requester.ID,
			Message: "updated",
		}); err != nil {
			return errors.WithMessage(err, "Could not insert VPNHistory")
		}
		return txSelf.queueVirtualRouter(virtualRouter)
	})
	if err != nil {
		return nil, err
	}
	self.logger.Debug().Int("id", id).Msg("Updated VPN")
	return update, nil
}

func (self *vpnService) Delete(requester domain.Requester, id int) error {
	vpn, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_vpn_read_001" {
			return domain.NewApiError("iaas_vpn_delete_001")
		}
		return err
	}
	virtualRouter, err := self.visibleVirtualRouter(requester, vpn.VirtualRouterID, "iaas_vpn_delete_001")
	if err != nil {
		return err
	}

	return pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*vpnService)

		if err := txSelf.vpnRepository.DeleteRoutes(id); err != nil {
			return errors.WithMessagef(err, "Could not delete routes of VPN %d", id)
		}
		if err := txSelf.vpnRepository.Delete(id); err != nil {
			return errors.WithMessagef(err, "Could not delete VPN %d", id)
		}
		if err := txSelf.queueVirtualRouter(virtualRouter); err != nil {
			return err
		}
		self.logger.Info().Int("id", id).Msg("Deleted VPN")
		return nil
	})
}

func (self *vpnService) GetHistoryByPage(requester domain.Requester, id int, page *repository.Page) ([]domain.VPNHistory, error) {
	if _, err := self.GetById(requester, id); err != nil {
		return nil, err
	}
	history, err := self.vpnRepository.GetHistoryByPage(id, page)
	return history, errors.WithMessagef(err, "Could not select history of VPN %d", id)
}
