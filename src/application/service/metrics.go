package service

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

// RegionMetrics is the inventory snapshot of one region.
type RegionMetrics struct {
	Projects              int                  `json:"projects"`
	VMsByState            map[domain.State]int `json:"vms_by_state"`
	VirtualRoutersByState map[domain.State]int `json:"virtual_routers_by_state"`
	Servers               int                  `json:"servers"`
	ServersEnabled        int                  `json:"servers_enabled"`
	CephsByState          map[domain.State]int `json:"cephs_by_state"`
}

type MetricsService interface {
	WithQuerier(config.PgxIface) MetricsService

	GetByRegion(requester domain.Requester, regionID int) (*RegionMetrics, error)
}

type metricsService struct {
	logger zerolog.Logger

	projectRepository       repository.ProjectRepository
	vmRepository            repository.VmRepository
	virtualRouterRepository repository.VirtualRouterRepository
	serverRepository        repository.ServerRepository
	resourceRepository      repository.ResourceRepository
}

func NewMetricsService(db config.PgxIface, logger *zerolog.Logger) MetricsService {
	return &metricsService{
		logger:                  logger.With().Str("component", "MetricsService").Logger(),
		projectRepository:       persistence.NewProjectRepository(db),
		vmRepository:            persistence.NewVmRepository(db),
		virtualRouterRepository: persistence.NewVirtualRouterRepository(db),
		serverRepository:        persistence.NewServerRepository(db),
		resourceRepository:      persistence.NewResourceRepository(db),
	}
}

func (self *metricsService) WithQuerier(querier config.PgxIface) MetricsService {
	return &metricsService{
		logger:                  self.logger,
		projectRepository:       self.projectRepository.WithQuerier(querier),
		vmRepository:            self.vmRepository.WithQuerier(querier),
		virtualRouterRepository: self.virtualRouterRepository.WithQuerier(querier),
		serverRepository:        self.serverRepository.WithQuerier(querier),
		resourceRepository:      self.resourceRepository.WithQuerier(querier),
	}
}

func (self *metricsService) GetByRegion(requester domain.Requester, regionID int) (*RegionMetrics, error) {
	if !routerOperator(requester) {
		return nil, domain.NewApiError("iaas_metrics_read_201")
	}
	// A robot only sees its own region.
	if requester.Robot && requester.RegionID() != regionID {
		return nil, domain.NewApiError("iaas_metrics_read_201")
	}

	metrics := &RegionMetrics{}

	var err error
	if metrics.Projects, err = self.projectRepository.CountByRegion(regionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count Projects of region %d", regionID)
	}
	if metrics.VMsByState, err = self.vmRepository.CountByStateInRegion(regionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count VMs of region %d", regionID)
	}
	if metrics.VirtualRoutersByState, err = self.virtualRouterRepository.CountByStateInRegion(regionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count VirtualRouters of region %d", regionID)
	}
	if metrics.Servers, err = self.serverRepository.CountByRegion(regionID, false); err != nil {
		return nil, errors.WithMessagef(err, "Could not count Servers of region %d", regionID)
	}
	if metrics.ServersEnabled, err = self.serverRepository.CountEnabledByRegion(regionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count enabled Servers of region %d", regionID)
	}
	if metrics.CephsByState, err = self.resourceRepository.CountByStateInRegion(regionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count Resources of region %d", regionID)
	}

	self.logger.Trace().Int("region_id", regionID).Msg("Collected region metrics")
	return metrics, nil
}
