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

type SubnetService interface {
	WithQuerier(config.PgxIface) SubnetService

	GetByPage(domain.Requester, *repository.Page, repository.SubnetFilter) ([]domain.Subnet, error)
	GetById(domain.Requester, int) (*domain.Subnet, error)
	Create(domain.Requester, *domain.Subnet) error
	Update(domain.Requester, int, SubnetUpdate) (*domain.Subnet, error)
	Delete(domain.Requester, int) error
}

type SubnetUpdate struct {
	Name         *string `json:"name"`
	Gateway      *string `json:"gateway"`
	AddressRange *string `json:"address_range"`
}

type subnetService struct {
	logger zerolog.Logger
	db     config.PgxIface

	subnetRepository        repository.SubnetRepository
	allocationRepository    repository.AllocationRepository
	virtualRouterRepository repository.VirtualRouterRepository
	routerRepository        repository.RouterRepository

	projectService ProjectService
}

func NewSubnetService(db config.PgxIface, projectService ProjectService, logger *zerolog.Logger) SubnetService {
	return &subnetService{
		logger:                  logger.With().Str("component", "SubnetService").Logger(),
		db:                      db,
		subnetRepository:        persistence.NewSubnetRepository(db),
		allocationRepository:    persistence.NewAllocationRepository(db),
		virtualRouterRepository: persistence.NewVirtualRouterRepository(db),
		routerRepository:        persistence.NewRouterRepository(db),
		projectService:          projectService,
	}
}

func (self *subnetService) WithQuerier(querier config.PgxIface) SubnetService {
	return &subnetService{
		logger:                  self.logger,
		db:                      querier,
		subnetRepository:        self.subnetRepository.WithQuerier(querier),
		allocationRepository:    self.allocationRepository.WithQuerier(querier),
		virtualRouterRepository: self.virtualRouterRepository.WithQuerier(querier),
		routerRepository:        self.routerRepository.WithQuerier(querier),
		projectService:          self.projectService.WithQuerier(querier),
	}
}

var subnetOrders = map[string]string{
	"id":            "subnet.id",
	"address_range": "subnet.address_range",
	"allocation_id": "subnet.allocation_id",
	"name":          "subnet.name",
	"vlan":          "subnet.vlan",
}

func (self *subnetService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.SubnetFilter) (subnets []domain.Subnet, err error) {
	if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing Subnets")
	subnets, err = self.subnetRepository.GetByPage(page, filter, page.OrderBy(subnetOrders, "subnet.id"))
	err = errors.WithMessage(err, "Could not select Subnets")
	return
}

func (self *subnetService) GetById(requester domain.Requester, id int) (*domain.Subnet, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Subnet by ID")
	subnet, err := self.subnetRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Subnet %d", id)
	}
	if subnet == nil || (!requester.Superuser() && !requester.CanSeeAddress(subnet.AddressID)) {
		return nil, domain.NewApiError("iaas_subnet_read_001")
	}
	return subnet, nil
}

func (self *subnetService) Create(requester domain.Requester, subnet *domain.Subnet) error {
	allocation, err := self.allocationRepository.GetById(subnet.AllocationID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Allocation %d", subnet.AllocationID)
	}
	if allocation == nil || (!requester.Superuser() && !requester.CanSeeAddress(allocation.AddressID)) {
		return domain.FieldErrors{"allocation_id": domain.NewApiError("iaas_subnet_create_106")}
	}

	if subnet.Name == "" || len(subnet.Name) > domain.SubnetNameMaxLength {
		return domain.FieldErrors{"name": domain.NewApiError("iaas_subnet_create_105")}
	}

	prefix, err := netip.ParsePrefix(subnet.AddressRange)
	if err != nil || len(subnet.AddressRange) > domain.SubnetRangeMaxLength {
		return domain.FieldErrors{"address_range": domain.NewApiError("iaas_subnet_create_101")}
	}
	allocationPrefix, err := netip.ParsePrefix(allocation.AddressRange)
	if err != nil {
		return errors.WithMessagef(err, "Allocation %d has an unparseable range %q", allocation.ID, allocation.AddressRange)
	}
	if !allocationPrefix.Contains(prefix.Addr()) || prefix.Bits() < allocationPrefix.Bits() {
		return domain.FieldErrors{"address_range": domain.NewApiError("iaas_subnet_create_102")}
	}

	siblings, err := self.subnetRepository.GetByAllocation(allocation.ID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Subnets of Allocation %d", allocation.ID)
	}
	for _, sibling := range siblings {
		siblingPrefix, err := sibling.Prefix()
		if err != nil {
			continue
		}
		if domain.Overlaps(prefix, siblingPrefix) {
			return domain.FieldErrors{"address_range": domain.NewApiError("iaas_subnet_create_103")}
		}
	}

	if subnet.Gateway != nil && *subnet.Gateway != "" {
		gateway, err := netip.ParseAddr(*subnet.Gateway)
		if err != nil || !prefix.Contains(gateway) {
			return domain.FieldErrors{"gateway": domain.NewApiError("iaas_subnet_create_104")}
		}
	}

	subnet.AddressID = allocation.AddressID

	return pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*subnetService)

		// Cloud subnets get a VLAN and queue the virtual router for an
		// update sweep.
		if subnet.Cloud() {
			virtualRouter, err := txSelf.virtualRouterRepository.GetById(*subnet.VirtualRouterID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select VirtualRouter %d", *subnet.VirtualRouterID)
			}
			if virtualRouter == nil {
				return domain.FieldErrors{"virtual_router_id": domain.NewApiError("iaas_subnet_create_106")}
			}
			router, err := txSelf.routerRepository.GetById(virtualRouter.RouterID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select Router %d", virtualRouter.RouterID)
			}
			vlansInUse, err := txSelf.subnetRepository.GetVLANsInUse(router.ID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select VLANs of Router %d", router.ID)
			}
			vlan, err := router.NextVLAN(vlansInUse)
			if err != nil {
				return domain.FieldErrors{"virtual_router_id": domain.NewApiError("iaas_subnet_create_107")}
			}
			subnet.VLAN = &vlan

			if virtualRouter.State.CanTransition(domain.StateRunningUpdate, domain.UserStateMap) {
				virtualRouter.State = domain.StateRunningUpdate
			} else if virtualRouter.State.CanTransition(domain.StateQuiescedUpdate, domain.UserStateMap) {
				virtualRouter.State = domain.StateQuiescedUpdate
			}
			if err := txSelf.virtualRouterRepository.Update(virtualRouter); err != nil {
				return errors.WithMessagef(err, "Could not update VirtualRouter %d", virtualRouter.ID)
			}
			if err := txSelf.projectService.SetRunRobotFlags(virtualRouter.ProjectID); err != nil {
				return err
			}
		}

		if err := txSelf.subnetRepository.Save(subnet); err != nil {
			return errors.WithMessage(err, "Could not insert Subnet")
		}
		self.logger.Info().Int("id", subnet.ID).Msg("Created Subnet")
		return nil
	})
}

func (self *subnetService) Update(requester domain.Requester, id int, update SubnetUpdate) (*domain.Subnet, error) {
	subnet, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_subnet_read_001" {
			return nil, domain.NewApiError("iaas_subnet_update_001")
		}
		return nil, err
	}

	if update.AddressRange != nil && *update.AddressRange != subnet.AddressRange {
		if count, err := self.subnetRepository.CountIPAddresses(id); err != nil {
			return nil, errors.WithMessagef(err, "Could not count IP addresses of Subnet %d", id)
		} else if count > 0 {
			return nil, domain.FieldErrors{"address_range": domain.NewApiError("iaas_subnet_update_101")}
		}
		if _, err := netip.ParsePrefix(*update.AddressRange); err != nil {
			return nil, domain.FieldErrors{"address_range": domain.NewApiError("iaas_subnet_create_101")}
		}
		subnet.AddressRange = *update.AddressRange
	}
	if update.Name != nil {
		if *update.Name == "" || len(*update.Name) > domain.SubnetNameMaxLength {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_subnet_create_105")}
		}
		subnet.Name = *update.Name
	}
	if update.Gateway != nil {
		prefix, err := subnet.Prefix()
		if err != nil {
			return nil, err
		}
		gateway, err := netip.ParseAddr(*update.Gateway)
		if err != nil || !prefix.Contains(gateway) {
			return nil, domain.FieldErrors{"gateway": domain.NewApiError("iaas_subnet_create_104")}
		}
		subnet.Gateway = update.Gateway
	}

	if err := self.subnetRepository.Update(subnet); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Subnet %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated Subnet")
	return subnet, nil
}

func (self *subnetService) Delete(requester domain.Requester, id int) error {
	if _, err := self.GetById(requester, id); err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_subnet_read_001" {
			return domain.NewApiError("iaas_subnet_delete_001")
		}
		return err
	}
	if count, err := self.subnetRepository.CountIPAddresses(id); err != nil {
		return errors.WithMessagef(err, "Could not count IP addresses of Subnet %d", id)
	} else if count > 0 {
		return domain.NewApiError("iaas_subnet_delete_101")
	}
	if count, err := self.subnetRepository.CountChildren(id); err != nil {
		return errors.WithMessagef(err, "Could not count children of Subnet %d", id)
	} else if count > 0 {
		return domain.NewApiError("iaas_subnet_delete_101")
	}
	return errors.WithMessagef(self.subnetRepository.Delete(id), "Could not delete Subnet %d", id)
}
