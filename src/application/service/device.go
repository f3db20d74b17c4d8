package service

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type DeviceService interface {
	WithQuerier(config.PgxIface) DeviceService

	GetByPage(domain.Requester, *repository.Page, repository.DeviceFilter) ([]domain.Device, error)
	GetById(domain.Requester, int) (*domain.Device, error)
	Create(domain.Requester, *domain.Device) error
	Update(domain.Requester, int, DeviceUpdate) (*domain.Device, error)
}

// A vm_id of 0 detaches the device; nil leaves the assignment alone.
type DeviceUpdate struct {
	VMID     *int    `json:"vm_id"`
	IDOnHost *string `json:"id_on_host"`
}

type deviceService struct {
	logger zerolog.Logger

	deviceRepository     repository.DeviceRepository
	deviceTypeRepository repository.DeviceTypeRepository
	serverRepository     repository.ServerRepository
	vmRepository         repository.VmRepository
}

func NewDeviceService(db config.PgxIface, logger *zerolog.Logger) DeviceService {
	return &deviceService{
		logger:               logger.With().Str("component", "DeviceService").Logger(),
		deviceRepository:     persistence.NewDeviceRepository(db),
		deviceTypeRepository: persistence.NewDeviceTypeRepository(db),
		serverRepository:     persistence.NewServerRepository(db),
		vmRepository:         persistence.NewVmRepository(db),
	}
}

func (self *deviceService) WithQuerier(querier config.PgxIface) DeviceService {
	return &deviceService{
		logger:               self.logger,
		deviceRepository:     self.deviceRepository.WithQuerier(querier),
		deviceTypeRepository: self.deviceTypeRepository.WithQuerier(querier),
		serverRepository:     self.serverRepository.WithQuerier(querier),
		vmRepository:         self.vmRepository.WithQuerier(querier),
	}
}

// Devices are operator inventory like servers.
var deviceOrders = map[string]string{
	"id":             "device.id",
	"device_type_id": "device.device_type_id",
	"server_id":      "device.server_id",
	"vm_id":          "device.vm_id",
}

func (self *deviceService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.DeviceFilter) (devices []domain.Device, err error) {
	if !requester.Robot && !requester.Superuser() && !requester.Administrator {
		return nil, domain.NewApiError("iaas_device_create_201")
	}

	self.logger.Trace().Msg("Listing Devices")
	devices, err = self.deviceRepository.GetByPage(page, filter, page.OrderBy(deviceOrders, "device.id"))
	err = errors.WithMessage(err, "Could not select Devices")
	return
}

func (self *deviceService) GetById(requester domain.Requester, id int) (*domain.Device, error) {
	if !requester.Robot && !requester.Superuser() && !requester.Administrator {
		return nil, domain.NewApiError("iaas_device_create_201")
	}
	self.logger.Trace().Int("id", id).Msg("Getting Device by ID")
	device, err := self.deviceRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Device %d", id)
	}
	if device == nil {
		return nil, domain.NewApiError("iaas_device_read_001")
	}
	return device, nil
}

func (self *deviceService) Create(requester domain.Requester, device *domain.Device) error {
	if !requester.Robot && !requester.Superuser() && !requester.Administrator {
		return domain.NewApiError("iaas_device_create_201")
	}

	if device.ServerID <= 0 || device.DeviceTypeID <= 0 ||
		device.IDOnHost == "" || len(device.IDOnHost) > domain.DeviceIDOnHostMaxLength {
		return domain.FieldErrors{"id_on_host": domain.NewApiError("iaas_device_create_101")}
	}
	if deviceType, err := self.deviceTypeRepository.GetById(device.DeviceTypeID); err != nil {
		return errors.WithMessagef(err, "Could not select DeviceType %d", device.DeviceTypeID)
	} else if deviceType == nil {
		return domain.FieldErrors{"device_type_id": domain.NewApiError("iaas_device_create_101")}
	}
	server, err := self.serverRepository.GetById(device.ServerID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Server %d", device.ServerID)
	}
	if server == nil || (requester.Robot && server.RegionID != requester.RegionID()) {
		return domain.FieldErrors{"server_id": domain.NewApiError("iaas_device_create_101")}
	}

	if err := self.deviceRepository.Save(device); err != nil {
		return errors.WithMessage(err, "Could not insert Device")
	}
	self.logger.Info().Int("id", device.ID).Int("server_id", device.ServerID).Msg("Created Device")
	return nil
}

func (self *deviceService) Update(requester domain.Requester, id int, update DeviceUpdate) (*domain.Device, error) {
	device, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_device_read_001" {
			return nil, domain.NewApiError("iaas_device_update_001")
		}
		return nil, err
	}

	if update.IDOnHost != nil {
		if *update.IDOnHost == "" || len(*update.IDOnHost) > domain.DeviceIDOnHostMaxLength {
			return nil, domain.FieldErrors{"id_on_host": domain.NewApiError("iaas_device_create_101")}
		}
		device.IDOnHost = *update.IDOnHost
	}
	if update.VMID != nil {
		if *update.VMID == 0 {
			device.VMID = nil
		} else {
			vm, err := self.vmRepository.GetById(*update.VMID)
			if err != nil {
				return nil, errors.WithMessagef(err, "Could not select VM %d", *update.VMID)
			}
			// A passthrough device never leaves its host.
			if vm == nil || vm.ServerID != device.ServerID {
				return nil, domain.FieldErrors{"vm_id": domain.NewApiError("iaas_device_update_101")}
			}
			device.VMID = update.VMID
		}
	}

	if err := self.deviceRepository.Update(device); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Device %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated Device")
	return device, nil
}

type DeviceTypeService interface {
	WithQuerier(config.PgxIface) DeviceTypeService

	GetAll() ([]domain.DeviceType, error)
	GetById(int) (*domain.DeviceType, error)
}

type deviceTypeService struct {
	logger               zerolog.Logger
	deviceTypeRepository repository.DeviceTypeRepository
}

func NewDeviceTypeService(db config.PgxIface, logger *zerolog.Logger) DeviceTypeService {
	return &deviceTypeService{
		logger:               logger.With().Str("component", "DeviceTypeService").Logger(),
		deviceTypeRepository: persistence.NewDeviceTypeRepository(db),
	}
}

func (self *deviceTypeService) WithQuerier(querier config.PgxIface) DeviceTypeService {
	return &deviceTypeService{
		logger:               self.logger,
		deviceTypeRepository: self.deviceTypeRepository.WithQuerier(querier),
	}
}

func (self *deviceTypeService) GetAll() ([]domain.DeviceType, error) {
	types, err := self.deviceTypeRepository.GetAll()
	return types, errors.WithMessage(err, "Could not select DeviceTypes")
}

func (self *deviceTypeService) GetById(id int) (*domain.DeviceType, error) {
	deviceType, err := self.deviceTypeRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select DeviceType %d", id)
	}
	if deviceType == nil {
		return nil, domain.NewApiError("iaas_device_type_read_001")
	}
	return deviceType, nil
}
