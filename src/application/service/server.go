package service

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type ServerService interface {
	WithQuerier(config.PgxIface) ServerService

	GetByPage(domain.Requester, *repository.Page, repository.ServerFilter) ([]domain.Server, error)
	GetById(domain.Requester, int) (*domain.Server, error)
	Create(domain.Requester, *domain.Server) error
	Update(domain.Requester, int, ServerUpdate) (*domain.Server, error)
}

type ServerUpdate struct {
	AssetTag *string `json:"asset_tag"`
	Model    *string `json:"model"`
	Enabled  *bool   `json:"enabled"`
}

type serverService struct {
	logger zerolog.Logger
	db     config.PgxIface

	serverRepository      repository.ServerRepository
	serverTypeRepository  repository.ServerTypeRepository
	storageTypeRepository repository.StorageTypeRepository
}

func NewServerService(db config.PgxIface, logger *zerolog.Logger) ServerService {
	return &serverService{
		logger:                logger.With().Str("component", "ServerService").Logger(),
		db:                    db,
		serverRepository:      persistence.NewServerRepository(db),
		serverTypeRepository:  persistence.NewServerTypeRepository(db),
		storageTypeRepository: persistence.NewStorageTypeRepository(db),
	}
}

func (self *serverService) WithQuerier(querier config.PgxIface) ServerService {
	return &serverService{
		logger:                self.logger,
		db:                    querier,
		serverRepository:      self.serverRepository.WithQuerier(querier),
		serverTypeRepository:  self.serverTypeRepository.WithQuerier(querier),
		storageTypeRepository: self.storageTypeRepository.WithQuerier(querier),
	}
}

// Servers are operator inventory: only robots and the superuser see them.
var serverOrders = map[string]string{
	"id":              "server.id",
	"cores":           "server.cores",
	"gb":              "server.gb",
	"ram":             "server.ram",
	"region_id":       "server.region_id",
	"storage_type_id": "server.storage_type_id",
	"type_id":         "server.type_id",
}

func (self *serverService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.ServerFilter) ([]domain.Server, error) {
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() && !requester.Administrator {
		return nil, domain.NewApiError("iaas_server_create_201")
	}

	self.logger.Trace().Msg("Listing Servers")
	servers, err := self.serverRepository.GetByPage(page, filter, page.OrderBy(serverOrders, "server.id"))
	if err != nil {
		return nil, errors.WithMessage(err, "Could not select Servers")
	}
	for i := range servers {
		if servers[i].Interfaces, err = self.serverRepository.GetInterfaces(servers[i].ID); err != nil {
			return nil, errors.WithMessagef(err, "Could not select Interfaces of Server %d", servers[i].ID)
		}
	}
	return servers, nil
}

func (self *serverService) GetById(requester domain.Requester, id int) (*domain.Server, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Server by ID")
	server, err := self.serverRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Server %d", id)
	}
	if server == nil {
		return nil, domain.NewApiError("iaas_server_read_001")
	}
	if requester.Robot {
		if server.RegionID != requester.RegionID() {
			return nil, domain.NewApiError("iaas_server_create_201")
		}
	} else if !requester.Superuser() && !requester.Administrator {
		return nil, domain.NewApiError("iaas_server_create_201")
	}
	if server.Interfaces, err = self.serverRepository.GetInterfaces(id); err != nil {
		return nil, errors.WithMessagef(err, "Could not select Interfaces of Server %d", id)
	}
	return server, nil
}

func (self *serverService) Create(requester domain.Requester, server *domain.Server) error {
	if !requester.Robot && !requester.Superuser() && !requester.Administrator {
		return domain.NewApiError("iaas_server_create_201")
	}
	if requester.Robot {
		server.RegionID = requester.RegionID()
	}

	fieldErrors := domain.FieldErrors{}
	if server.RegionID <= 0 || server.Cores <= 0 || server.GB <= 0 || server.RAM <= 0 {
		fieldErrors["cores"] = domain.NewApiError("iaas_server_create_101")
	}
	if serverType, err := self.serverTypeRepository.GetById(server.TypeID); err != nil {
		return errors.WithMessagef(err, "Could not select ServerType %d", server.TypeID)
	} else if serverType == nil {
		fieldErrors["type_id"] = domain.NewApiError("iaas_server_create_102")
	}
	if storageType, err := self.storageTypeRepository.GetById(server.StorageTypeID); err != nil {
		return errors.WithMessagef(err, "Could not select StorageType %d", server.StorageTypeID)
	} else if storageType == nil {
		fieldErrors["storage_type_id"] = domain.NewApiError("iaas_server_create_103")
	}
	if len(fieldErrors) > 0 {
		return fieldErrors
	}

	if err := self.serverRepository.Save(server); err != nil {
		return errors.WithMessage(err, "Could not insert Server")
	}
	for i := range server.Interfaces {
		server.Interfaces[i].ServerID = server.ID
		if err := self.serverRepository.SaveInterface(&server.Interfaces[i]); err != nil {
			return errors.WithMessagef(err, "Could not insert Interface for Server %d", server.ID)
		}
	}
	self.logger.Info().Int("id", server.ID).Msg("Created Server")
	return nil
}

func (self *serverService) Update(requester domain.Requester, id int, update ServerUpdate) (*domain.Server, error) {
	server, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_server_read_001" {
			return nil, domain.NewApiError("iaas_server_update_001")
		}
		return nil, err
	}

	if update.AssetTag != nil {
		server.AssetTag = update.AssetTag
	}
	if update.Model != nil {
		server.Model = update.Model
	}
	if update.Enabled != nil {
		server.Enabled = *update.Enabled
	}

	if err := self.serverRepository.Update(server); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Server %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated Server")
	return server, nil
}

type ServerTypeService interface {
	WithQuerier(config.PgxIface) ServerTypeService

	GetAll() ([]domain.ServerType, error)
	GetById(int) (*domain.ServerType, error)
}

type serverTypeService struct {
	logger               zerolog.Logger
	serverTypeRepository repository.ServerTypeRepository
}

func NewServerTypeService(db config.PgxIface, logger *zerolog.Logger) ServerTypeService {
	return &serverTypeService{
		logger:               logger.With().Str("component", "ServerTypeService").Logger(),
		serverTypeRepository: persistence.NewServerTypeRepository(db),
	}
}

func (self *serverTypeService) WithQuerier(querier config.PgxIface) ServerTypeService {
	return &serverTypeService{
		logger:               self.logger,
		serverTypeRepository: self.serverTypeRepository.WithQuerier(querier),
	}
}

func (self *serverTypeService) GetAll() ([]domain.ServerType, error) {
	types, err := self.serverTypeRepository.GetAll()
	return types, errors.WithMessage(err, "Could not select ServerTypes")
}

func (self *serverTypeService) GetById(id int) (*domain.ServerType, error) {
	serverType, err := self.serverTypeRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select ServerType %d", id)
	}
	if serverType == nil {
		return nil, domain.NewApiError("iaas_server_type_read_001")
	}
	return serverType, nil
}

type StorageTypeService interface {
	WithQuerier(config.PgxIface) StorageTypeService

	GetAll() ([]domain.StorageType, error)
	GetById(int) (*domain.StorageType, error)
}

type storageTypeService struct {
	logger                zerolog.Logger
	storageTypeRepository repository.StorageTypeRepository
}

func NewStorageTypeService(db config.PgxIface, logger *zerolog.Logger) StorageTypeService {
	return &storageTypeService{
		logger:                logger.With().Str("component", "StorageTypeService").Logger(),
		storageTypeRepository: persistence.NewStorageTypeRepository(db),
	}
}

func (self *storageTypeService) WithQuerier(querier config.PgxIface) StorageTypeService {
	return &storageTypeService{
		logger:                self.logger,
		storageTypeRepository: self.storageTypeRepository.WithQuerier(querier),
	}
}

func (self *storageTypeService) GetAll() ([]domain.StorageType, error) {
	types, err := self.storageTypeRepository.GetAll()
	return types, errors.WithMessage(err, "Could not select StorageTypes")
}

func (self *storageTypeService) GetById(id int) (*domain.StorageType, error) {
	storageType, err := self.storageTypeRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select StorageType %d", id)
	}
	if storageType == nil {
		return nil, domain.NewApiError("iaas_storage_type_read_001")
	}
	return storageType, nil
}
