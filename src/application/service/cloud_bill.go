package service

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

// CloudBill is keyed by address id, then project id.
type CloudBill map[int]map[int]CloudBillProject

type CloudBillProject struct {
	Name       string                   `json:"name"`
	RegionID   int                      `json:"region_id"`
	ResellerID *int                     `json:"reseller_id"`
	Items      map[string]CloudBillItem `json:"items"`
}

type CloudBillItem struct {
	State   domain.State         `json:"state"`
	Created time.Time            `json:"created"`
	Skus    domain.SkuQuantities `json:"skus"`
}

type CloudBillService interface {
	WithQuerier(config.PgxIface) CloudBillService

	Get(requester domain.Requester, timestamp string) (CloudBill, error)
}

type cloudBillService struct {
	logger zerolog.Logger

	projectRepository    repository.ProjectRepository
	vmRepository         repository.VmRepository
	serverRepository     repository.ServerRepository
	ipAddressRepository  repository.IPAddressRepository
	deviceRepository     repository.DeviceRepository
	deviceTypeRepository repository.DeviceTypeRepository
	resourceRepository   repository.ResourceRepository
}

func NewCloudBillService(db config.PgxIface, logger *zerolog.Logger) CloudBillService {
	return &cloudBillService{
		logger:               logger.With().Str("component", "CloudBillService").Logger(),
		projectRepository:    persistence.NewProjectRepository(db),
		vmRepository:         persistence.NewVmRepository(db),
		serverRepository:     persistence.NewServerRepository(db),
		ipAddressRepository:  persistence.NewIPAddressRepository(db),
		deviceRepository:     persistence.NewDeviceRepository(db),
		deviceTypeRepository: persistence.NewDeviceTypeRepository(db),
		resourceRepository:   persistence.NewResourceRepository(db),
	}
}

func (self *cloudBillService) WithQuerier(querier config.PgxIface) CloudBillService {
	return &cloudBillService{
		logger:               self.logger,
		projectRepository:    self.projectRepository.WithQuerier(querier),
		vmRepository:         self.vmRepository.WithQuerier(querier),
		serverRepository:     self.serverRepository.WithQuerier(querier),
		ipAddressRepository:  self.ipAddressRepository.WithQuerier(querier),
		deviceRepository:     self.deviceRepository.WithQuerier(querier),
		deviceTypeRepository: self.deviceTypeRepository.WithQuerier(querier),
		resourceRepository:   self.resourceRepository.WithQuerier(querier),
	}
}

func (self *cloudBillService) Get(requester domain.Requester, timestamp string) (CloudBill, error) {
	var cutoff *time.Time
	if timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, timestamp)
		if err != nil {
			return nil, domain.FieldErrors{"timestamp": domain.NewApiError("iaas_cloud_bill_list_001")}
		}
		cutoff = &parsed
	}

	projects, err := self.projectRepository.GetOpenByAddresses(requester.VisibleAddresses())
	if err != nil {
		return nil, errors.WithMessage(err, "Could not select Projects")
	}

	bill := CloudBill{}
	for _, project := range projects {
		items := map[string]CloudBillItem{}

		vms, err := self.vmRepository.GetByProject(project.ID)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select VMs of Project %d", project.ID)
		}
		for i := range vms {
			vm := &vms[i]
			if vm.State == domain.StateClosed || (cutoff != nil && vm.Created.After(*cutoff)) {
				continue
			}
			skus, err := self.vmSkus(vm)
			if err != nil {
				return nil, err
			}
			items[project.Name+"_"+vm.Name] = CloudBillItem{
				State:   vm.State,
				Created: vm.Created,
				Skus:    skus,
			}
		}

		resources, err := self.resourceRepository.GetByProject(project.ID)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select Resources of Project %d", project.ID)
		}
		for _, resource := range resources {
			if resource.State == domain.StateClosed || (cutoff != nil && resource.Created.After(*cutoff)) {
				continue
			}
			items[project.Name+"_"+resource.Name+"_"+strconv.Itoa(resource.ID)] = CloudBillItem{
				State:   resource.State,
				Created: resource.Created,
				Skus:    resource.Specs,
			}
		}

		if len(items) == 0 {
			continue
		}
		if bill[project.AddressID] == nil {
			bill[project.AddressID] = map[int]CloudBillProject{}
		}
		bill[project.AddressID][project.ID] = CloudBillProject{
			Name:       project.Name,
			RegionID:   project.RegionID,
			ResellerID: project.ResellerID,
			Items:      items,
		}
	}

	self.logger.Trace().Int("projects", len(projects)).Msg("Assembled cloud bill")
	return bill, nil
}

func (self *cloudBillService) vmSkus(vm *domain.VM) (domain.SkuQuantities, error) {
	storages, err := self.vmRepository.GetStorages(vm.ID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Storages of VM %d", vm.ID)
	}
	vm.Storages = storages

	server, err := self.serverRepository.GetById(vm.ServerID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Server %d", vm.ServerID)
	}
	storageTypeID := 0
	if server != nil {
		storageTypeID = server.StorageTypeID
	}

	skus := domain.SkuQuantities{
		domain.SkuVCPU:                   vm.CPU,
		domain.SkuRAM:                    vm.RAM,
		domain.StorageSku(storageTypeID): vm.TotalStorageGB(),
		domain.ImageSku(vm.ImageID):      1,
	}

	addresses, err := self.ipAddressRepository.GetByVM(vm.ID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select IPAddresses of VM %d", vm.ID)
	}
	natCount := 0
	for _, address := range addresses {
		if address.NAT() {
			natCount += 1
		}
	}
	if natCount > 0 {
		skus[domain.SkuNAT] = natCount
	}

	if vm.GPU > 0 {
		devices, err := self.deviceRepository.GetByVM(vm.ID)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select Devices of VM %d", vm.ID)
		}
		for _, device := range devices {
			deviceType, err := self.deviceTypeRepository.GetById(device.DeviceTypeID)
			if err != nil {
				return nil, errors.WithMessagef(err, "Could not select DeviceType %d", device.DeviceTypeID)
			}
			if deviceType != nil {
				skus[deviceType.Sku] += 1
			}
		}
	}
	return skus, nil
}
