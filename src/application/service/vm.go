package service

import (
	"context"
	"net/netip"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/exp/slices"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type VmService interface {
	WithQuerier(config.PgxIface) VmService

	GetByPage(domain.Requester, *repository.Page, repository.VmFilter) ([]domain.VM, error)
	GetById(domain.Requester, int) (*domain.VM, error)
	Create(domain.Requester, *VMCreate) (*domain.VM, error)
	Update(domain.Requester, int, VMUpdate) (*domain.VM, error)

	GetStorages(domain.Requester, int) ([]domain.Storage, error)
	GetHistoryByPage(domain.Requester, int, *repository.Page) ([]domain.VMHistory, error)
}

type VMCreate struct {
	ProjectID       int             `json:"project_id"`
	ImageID         int             `json:"image_id"`
	StorageTypeID   int             `json:"storage_type_id"`
	Storages        []StorageCreate `json:"storages"`
	CPU             int             `json:"cpu"`
	RAM             int             `json:"ram"`
	DNS             string          `json:"dns"`
	Name            string          `json:"name"`
	PublicKey       *string         `json:"public_key"`
	GatewaySubnetID *int            `json:"gateway_subnet_id"`
	IPAddresses     []VMIPCreate    `json:"ip_addresses"`
	Userdata        *string         `json:"userdata"`
}

type StorageCreate struct {
	Name    string `json:"name"`
	GB      int    `json:"gb"`
	Primary bool   `json:"primary"`
}

type VMIPCreate struct {
	Address string `json:"address"`
	NAT     bool   `json:"nat"`
}

type VMUpdate struct {
	Name     *string         `json:"name"`
	State    *domain.State   `json:"state"`
	CPU      *int            `json:"cpu"`
	RAM      *int            `json:"ram"`
	Storages []StorageCreate `json:"storages"`
	Userdata *string         `json:"userdata"`
	GPU      *int            `json:"gpu"`
}

type vmService struct {
	logger zerolog.Logger
	db     config.PgxIface

	vmRepository            repository.VmRepository
	projectRepository       repository.ProjectRepository
	imageRepository         repository.ImageRepository
	serverRepository        repository.ServerRepository
	serverTypeRepository    repository.ServerTypeRepository
	storageTypeRepository   repository.StorageTypeRepository
	subnetRepository        repository.SubnetRepository
	ipAddressRepository     repository.IPAddressRepository
	virtualRouterRepository repository.VirtualRouterRepository
	deviceRepository        repository.DeviceRepository
	deviceTypeRepository    repository.DeviceTypeRepository
	snapshotRepository      repository.SnapshotRepository

	projectService ProjectService
}

func NewVmService(db config.PgxIface, projectService ProjectService, logger *zerolog.Logger) VmService {
	return &vmService{
		logger:                  logger.With().Str("component", "VmService").Logger(),
		db:                      db,
		vmRepository:            persistence.NewVmRepository(db),
		projectRepository:       persistence.NewProjectRepository(db),
		imageRepository:         persistence.NewImageRepository(db),
		serverRepository:        persistence.NewServerRepository(db),
		serverTypeRepository:    persistence.NewServerTypeRepository(db),
		storageTypeRepository:   persistence.NewStorageTypeRepository(db),
		subnetRepository:        persistence.NewSubnetRepository(db),
		ipAddressRepository:     persistence.NewIPAddressRepository(db),
		virtualRouterRepository: persistence.NewVirtualRouterRepository(db),
		deviceRepository:        persistence.NewDeviceRepository(db),
		deviceTypeRepository:    persistence.NewDeviceTypeRepository(db),
		snapshotRepository:      persistence.NewSnapshotRepository(db),
		projectService:          projectService,
	}
}

func (self *vmService) WithQuerier(querier config.PgxIface) VmService {
	return &vmService{
		logger:                  self.logger,
		db:                      querier,
		vmRepository:            self.vmRepository.WithQuerier(querier),
		projectRepository:       self.projectRepository.WithQuerier(querier),
		imageRepository:         self.imageRepository.WithQuerier(querier),
		serverRepository:        self.serverRepository.WithQuerier(querier),
		serverTypeRepository:    self.serverTypeRepository.WithQuerier(querier),
		storageTypeRepository:   self.storageTypeRepository.WithQuerier(querier),
		subnetRepository:        self.subnetRepository.WithQuerier(querier),
		ipAddressRepository:     self.ipAddressRepository.WithQuerier(querier),
		virtualRouterRepository: self.virtualRouterRepository.WithQuerier(querier),
		deviceRepository:        self.deviceRepository.WithQuerier(querier),
		deviceTypeRepository:    self.deviceTypeRepository.WithQuerier(querier),
		snapshotRepository:      self.snapshotRepository.WithQuerier(querier),
		projectService:          self.projectService.WithQuerier(querier),
	}
}

var vmOrders = map[string]string{
	"id":      "vm.id",
	"created": "vm.created",
	"name":    "vm.name",
	"state":   "vm.state",
	"updated": "vm.updated",
}

func (self *vmService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.VmFilter) (vms []domain.VM, err error) {
	if requester.Robot {
		regionID := requester.RegionID()
		filter.RegionID = &regionID
	} else if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing VMs")
	vms, err = self.vmRepository.GetByPage(page, filter, page.OrderBy(vmOrders, "vm.id DESC"))
	err = errors.WithMessage(err, "Could not select VMs")
	return
}

func (self *vmService) GetById(requester domain.Requester, id int) (*domain.VM, error) {
	self.logger.Trace().Int("id", id).Msg("Getting VM by ID")
	vm, err := self.vmRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VM %d", id)
	}
	if vm == nil {
		return nil, domain.NewApiError("iaas_vm_read_001")
	}
	if _, err := self.visibleProject(requester, vm.ProjectID, "iaas_vm_read_201"); err != nil {
		return nil, err
	}

	if vm.Storages, err = self.vmRepository.GetStorages(id); err != nil {
		return nil, errors.WithMessagef(err, "Could not select Storages of VM %d", id)
	}
	if vm.IPAddresses, err = self.ipAddressRepository.GetByVM(id); err != nil {
		return nil, errors.WithMessagef(err, "Could not select IP addresses of VM %d", id)
	}
	return vm, nil
}

// visibleProject loads the VM's project and checks the requester may
// touch it, returning the given permission code otherwise.
func (self *vmService) visibleProject(requester domain.Requester, projectID int, code string) (*domain.Project, error) {
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

func (self *vmService) Create(requester domain.Requester, create *VMCreate) (*domain.VM, error) {
	if requester.IsPrivate {
		return nil, domain.NewApiError("iaas_vm_create_201")
	}

	// project
	project, err := self.projectRepository.GetById(create.ProjectID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", create.ProjectID)
	}
	if project == nil || project.Closed || !requester.CanSeeAddress(project.AddressID) {
		return nil, domain.FieldErrors{"project_id": domain.NewApiError("iaas_vm_create_101")}
	}
	if enabled, err := self.serverRepository.CountEnabledByRegion(project.RegionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not count servers of region %d", project.RegionID)
	} else if enabled == 0 {
		return nil, domain.FieldErrors{"project_id": domain.NewApiError("iaas_vm_create_102")}
	}

	// image
	image, err := self.imageRepository.GetById(create.ImageID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Image %d", create.ImageID)
	}
	if image == nil {
		return nil, domain.FieldErrors{"image_id": domain.NewApiError("iaas_vm_create_103")}
	}
	if available, err := self.imageRepository.AvailableInRegion(image.ID, project.RegionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not check region availability of Image %d", image.ID)
	} else if !available {
		return nil, domain.FieldErrors{"image_id": domain.NewApiError("iaas_vm_create_103")}
	}

	// storage_type
	if offered, err := self.storageTypeRepository.OfferedInRegion(create.StorageTypeID, project.RegionID); err != nil {
		return nil, errors.WithMessagef(err, "Could not check region availability of StorageType %d", create.StorageTypeID)
	} else if !offered {
		return nil, domain.FieldErrors{"storage_type_id": domain.NewApiError("iaas_vm_create_104")}
	}

	// storages
	if err := validateStorages(create.Storages, image); err != nil {
		return nil, err
	}

	// cpu, ram
	if create.CPU < 1 {
		return nil, domain.FieldErrors{"cpu": domain.NewApiError("iaas_vm_create_109")}
	}
	if create.RAM < 1 {
		return nil, domain.FieldErrors{"ram": domain.NewApiError("iaas_vm_create_110")}
	}

	vm := &domain.VM{
		CPU:       create.CPU,
		DNS:       create.DNS,
		ImageID:   image.ID,
		Name:      create.Name,
		ProjectID: project.ID,
		PublicKey: create.PublicKey,
		RAM:       create.RAM,
		State:     domain.StateInApi,
		Userdata:  create.Userdata,
	}
	for _, storage := range create.Storages {
		vm.Storages = append(vm.Storages, domain.Storage{
			Name: storage.Name, GB: storage.GB, Primary: storage.Primary,
		})
	}

	// placement
	server, err := self.placeVM(vm, project.RegionID, image.ServerTypeID, create.StorageTypeID)
	if err != nil {
		return nil, err
	}
	vm.ServerID = server.ID

	// dns
	resolvers := domain.SplitList(create.DNS)
	if len(resolvers) == 0 && !image.Windows() {
		return nil, domain.FieldErrors{"dns": domain.NewApiError("iaas_vm_create_112")}
	}
	for _, resolver := range resolvers {
		if _, err := netip.ParseAddr(resolver); err != nil {
			return nil, domain.FieldErrors{"dns": domain.NewApiError("iaas_vm_create_111")}
		}
	}

	// name
	if create.Name == "" || len(create.Name) > domain.VMNameMaxLength {
		return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_vm_create_113")}
	}
	if count, err := self.vmRepository.CountNameInProject(create.Name, project.ID, 0); err != nil {
		return nil, errors.WithMessagef(err, "Could not count VMs named %q in Project %d", create.Name, project.ID)
	} else if count > 0 {
		return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_vm_create_113")}
	}

	// public_key
	if create.PublicKey != nil && *create.PublicKey != "" {
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(*create.PublicKey)); err != nil {
			return nil, domain.FieldErrors{"public_key": domain.NewApiError("iaas_vm_create_114")}
		}
	}

	// gateway_subnet
	virtualRouter, err := self.virtualRouterRepository.GetByProject(project.ID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VirtualRouter of Project %d", project.ID)
	}
	if create.GatewaySubnetID != nil {
		subnet, err := self.subnetRepository.GetById(*create.GatewaySubnetID)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select Subnet %d", *create.GatewaySubnetID)
		}
		if subnet == nil || !subnet.Cloud() ||
			virtualRouter == nil || *subnet.VirtualRouterID != virtualRouter.ID {
			return nil, domain.FieldErrors{"gateway_subnet_id": domain.NewApiError("iaas_vm_create_115")}
		}
		vm.GatewaySubnetID = create.GatewaySubnetID
	}

	// ip_addresses
	projectSubnets := []domain.Subnet{}
	if virtualRouter != nil {
		if projectSubnets, err = self.subnetRepository.GetByVirtualRouter(virtualRouter.ID); err != nil {
			return nil, errors.WithMessagef(err, "Could not select Subnets of VirtualRouter %d", virtualRouter.ID)
		}
	}
	natCount := 0
	requested := make([]struct {
		address netip.Addr
		subnet  domain.Subnet
		nat     bool
	}, 0, len(create.IPAddresses))
	for _, entry := range create.IPAddresses {
		address, err := netip.ParseAddr(entry.Address)
		if err != nil {
			return nil, domain.FieldErrors{"ip_addresses": domain.NewApiError("iaas_vm_create_116")}
		}
		var home *domain.Subnet
		for i := range projectSubnets {
			if projectSubnets[i].Contains(address) {
				home = &projectSubnets[i]
				break
			}
		}
		if home == nil {
			return nil, domain.FieldErrors{"ip_addresses": domain.NewApiError("iaas_vm_create_116")}
		}
		if count, err := self.ipAddressRepository.CountByAddress(home.ID, address.String()); err != nil {
			return nil, errors.WithMessagef(err, "Could not check address %q in Subnet %d", entry.Address, home.ID)
		} else if count > 0 {
			return nil, domain.FieldErrors{"ip_addresses": domain.NewApiError("iaas_vm_create_116")}
		}
		if entry.NAT {
			natCount += 1
		}
		requested = append(requested, struct {
			address netip.Addr
			subnet  domain.Subnet
			nat     bool
		}{address, *home, entry.NAT})
	}
	if natCount > 1 && !image.MultipleIPs {
		return nil, domain.FieldErrors{"ip_addresses": domain.NewApiError("iaas_vm_create_117")}
	}

	// userdata
	if create.Userdata != nil && *create.Userdata != "" {
		if !image.CloudInit {
			return nil, domain.FieldErrors{"userdata": domain.NewApiError("iaas_vm_create_140")}
		}
		if len(*create.Userdata) > domain.UserdataMaxLength {
			return nil, domain.FieldErrors{"userdata": domain.NewApiError("iaas_vm_create_141")}
		}
		if !domain.ValidUserdata(*create.Userdata) {
			return nil, domain.FieldErrors{"userdata": domain.NewApiError("iaas_vm_create_142")}
		}
	}

	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*vmService)

		vm.State = domain.StateRequested
		if err := txSelf.vmRepository.Save(vm); err != nil {
			return errors.WithMessage(err, "Could not insert VM")
		}

		for i := range vm.Storages {
			vm.Storages[i].VMID = vm.ID
			if err := txSelf.vmRepository.SaveStorage(&vm.Storages[i]); err != nil {
				return errors.WithMessagef(err, "Could not insert Storage for VM %d", vm.ID)
			}
		}

		macPerSubnet := map[int]bool{}
		for _, entry := range requested {
			ipAddress := domain.IPAddress{
				Address:  entry.address.String(),
				Name:     vm.Name,
				SubnetID: entry.subnet.ID,
				VMID:     &vm.ID,
			}
			if err := txSelf.ipAddressRepository.Save(&ipAddress); err != nil {
				return errors.WithMessagef(err, "Could not insert IP address %q", ipAddress.Address)
			}

			// The first IP per subnet carries the derived MAC.
			if !macPerSubnet[entry.subnet.ID] {
				macPerSubnet[entry.subnet.ID] = true
				mac, err := domain.DeriveMac(project.RegionID, image.ServerTypeID, ipAddress.ID)
				if err != nil {
					return err
				}
				ipAddress.MacAddress = &mac
				if err := txSelf.ipAddressRepository.Update(&ipAddress); err != nil {
					return errors.WithMessagef(err, "Could not update IP address %d", ipAddress.ID)
				}
			}

			if entry.nat {
				if err := txSelf.bindNAT(&ipAddress, virtualRouter); err != nil {
					return err
				}
			}
			vm.IPAddresses = append(vm.IPAddresses, ipAddress)
		}

		if err := txSelf.saveHistory(vm, project, create.StorageTypeID, natCount); err != nil {
			return err
		}
		return txSelf.projectService.SetRunRobotFlags(project.ID)
	})
	if err != nil {
		return nil, err
	}

	self.logger.Info().Int("id", vm.ID).Int("server_id", vm.ServerID).Msg("Created VM")
	return vm, nil
}

func validateStorages(storages []StorageCreate, image *domain.Image) error {
	if len(storages) == 0 {
		return domain.FieldErrors{"storages": domain.NewApiError("iaas_vm_create_105")}
	}
	primaries := 0
	for _, storage := range storages {
		if storage.Name == "" {
			return domain.FieldErrors{"storages": domain.NewApiError("iaas_vm_create_105")}
		}
		if storage.GB < domain.StorageMinGB {
			return domain.FieldErrors{"storages": domain.NewApiError("iaas_vm_create_107")}
		}
		if storage.Primary {
			primaries += 1
			if image.Windows() && storage.GB < domain.WindowsPrimaryMinGB {
				return domain.FieldErrors{"storages": domain.NewApiError("iaas_vm_create_108")}
			}
		}
	}
	if primaries != 1 {
		return domain.FieldErrors{"storages": domain.NewApiError("iaas_vm_create_106")}
	}
	return nil
}

// placeVM scores every candidate server and returns the best fit,
// keeping the first maximum on ties.
func (self *vmService) placeVM(vm *domain.VM, regionID, serverTypeID, storageTypeID int) (*domain.Server, error) {
	candidates, err := self.serverRepository.GetCandidates(regionID, serverTypeID, storageTypeID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select candidate servers in region %d", regionID)
	}

	requirement := vm.RequirementVector()
	best := -1
	bestScore := float64(domain.SuitabilityUnfit)
	for i, candidate := range candidates {
		if score := candidate.Suitability(requirement); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore == domain.SuitabilityUnfit {
		return nil, domain.FieldErrors{"server": domain.NewApiError("iaas_vm_create_119")}
	}
	return &candidates[best], nil
}

// bindNAT links a free floating IP of the virtual router's public
// subnets to the address.
func (self *vmService) bindNAT(ipAddress *domain.IPAddress, virtualRouter *domain.VirtualRouter) error {
	if virtualRouter == nil {
		return domain.FieldErrors{"ip_addresses": domain.NewApiError("iaas_vm_create_118")}
	}
	router, err := self.routerOf(virtualRouter)
	if err != nil {
		return err
	}

	publicIP, err := allocatePublicIP(self.subnetRepository, self.ipAddressRepository, router, "nat")
	if err != nil {
		return err
	}
	if publicIP == nil {
		return domain.FieldErrors{"ip_addresses": domain.NewApiError("iaas_vm_create_118")}
	}

	ipAddress.PublicIPID = &publicIP.ID
	return errors.WithMessagef(
		self.ipAddressRepository.Update(ipAddress),
		"Could not bind public IP %d", publicIP.ID,
	)
}

func (self *vmService) routerOf(virtualRouter *domain.VirtualRouter) (*domain.Router, error) {
	router, err := persistence.NewRouterRepository(self.db).GetById(virtualRouter.RouterID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Router %d", virtualRouter.RouterID)
	}
	if router == nil {
		return nil, errors.Errorf("VirtualRouter %d references a missing Router %d", virtualRouter.ID, virtualRouter.RouterID)
	}
	return router, nil
}

// saveHistory writes the audit row carrying the billing SKU quantities.
func (self *vmService) saveHistory(vm *domain.VM, project *domain.Project, storageTypeID, natCount int) error {
	skus := domain.SkuQuantities{
		domain.SkuVCPU:                  vm.CPU,
		domain.SkuRAM:                   vm.RAM,
		domain.StorageSku(storageTypeID): vm.TotalStorageGB(),
		domain.ImageSku(vm.ImageID):     1,
	}
	if natCount > 0 {
		skus[domain.SkuNAT] = natCount
	}
	if vm.GPU > 0 {
		devices, err := self.deviceRepository.GetByVM(vm.ID)
		if err != nil {
			return errors.WithMessagef(err, "Could not select Devices of VM %d", vm.ID)
		}
		for _, device := range devices {
			deviceType, err := self.deviceTypeRepository.GetById(device.DeviceTypeID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select DeviceType %d", device.DeviceTypeID)
			}
			if deviceType != nil {
				skus[deviceType.Sku] += 1
			}
		}
	}

	history := domain.VMHistory{
		VMID:            vm.ID,
		State:           vm.State,
		CustomerAddress: project.AddressID,
		ProjectVMName:   project.Name + "_" + vm.Name,
		Skus:            skus,
	}
	return errors.WithMessagef(
		self.vmRepository.SaveHistory(&history),
		"Could not insert history for VM %d", vm.ID,
	)
}

func (self *vmService) Update(requester domain.Requester, id int, update VMUpdate) (*domain.VM, error) {
	vm, err := self.vmRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VM %d", id)
	}
	if vm == nil {
		return nil, domain.NewApiError("iaas_vm_update_001")
	}
	project, err := self.visibleProject(requester, vm.ProjectID, "iaas_vm_update_201")
	if err != nil {
		return nil, err
	}
	if requester.IsPrivate {
		return nil, domain.NewApiError("iaas_vm_update_202")
	}
	if vm.Storages, err = self.vmRepository.GetStorages(id); err != nil {
		return nil, errors.WithMessagef(err, "Could not select Storages of VM %d", id)
	}

	// name
	if update.Name != nil && *update.Name != vm.Name {
		if *update.Name == "" || len(*update.Name) > domain.VMNameMaxLength {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_vm_update_101")}
		}
		if count, err := self.vmRepository.CountNameInProject(*update.Name, vm.ProjectID, vm.ID); err != nil {
			return nil, errors.WithMessagef(err, "Could not count VMs named %q in Project %d", *update.Name, vm.ProjectID)
		} else if count > 0 {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_vm_update_101")}
		}
		vm.Name = *update.Name
	}

	resize := update.CPU != nil || update.RAM != nil || len(update.Storages) > 0 || update.GPU != nil

	// state
	if update.State != nil && *update.State != vm.State {
		if resize {
			if *update.State != domain.StateRunningUpdate && *update.State != domain.StateQuiescedUpdate {
				return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_vm_update_107")}
			}
		}
		if !vm.State.CanTransition(*update.State, domain.StateMapFor(requester.Robot)) {
			return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_vm_update_102")}
		}
		if *update.State == domain.StateScrub {
			open, err := self.snapshotRepository.CountOpenByVM(vm.ID)
			if err != nil {
				return nil, errors.WithMessagef(err, "Could not count Snapshots of VM %d", vm.ID)
			}
			if vm.GPU > 0 || open > 0 {
				return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_vm_update_103")}
			}
		}
		vm.State = *update.State
	}

	ramDelta, gbDelta, cpuDelta, gpuDelta := 0, 0, 0, 0

	if resize {
		// Resizes happen at rest; the service queues the update state itself.
		switch vm.State {
		case domain.StateRunning:
			vm.State = domain.StateRunningUpdate
		case domain.StateQuiesced:
			vm.State = domain.StateQuiescedUpdate
		case domain.StateRunningUpdate, domain.StateQuiescedUpdate:
		default:
			return nil, domain.FieldErrors{"state": domain.NewApiError("iaas_vm_update_104")}
		}

		if update.CPU != nil {
			cpuDelta = *update.CPU - vm.CPU
			vm.CPU = *update.CPU
		}
		if update.RAM != nil {
			ramDelta = *update.RAM - vm.RAM
			vm.RAM = *update.RAM
		}
		if len(update.Storages) > 0 {
			grown, err := growStorages(vm.Storages, update.Storages)
			if err != nil {
				return nil, err
			}
			gbDelta = grown
		}
		if update.GPU != nil {
			gpuDelta = *update.GPU - vm.GPU
			vm.GPU = *update.GPU
		}

		server, err := self.serverRepository.GetById(vm.ServerID)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select Server %d", vm.ServerID)
		}
		if server == nil || !server.HeadroomForUpdate(ramDelta, gbDelta, cpuDelta) {
			return nil, domain.FieldErrors{"cpu": domain.NewApiError("iaas_vm_update_105")}
		}
	}

	// userdata
	if update.Userdata != nil && *update.Userdata != "" {
		image, err := self.imageRepository.GetById(vm.ImageID)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select Image %d", vm.ImageID)
		}
		if image == nil || !image.CloudInit {
			return nil, domain.FieldErrors{"userdata": domain.NewApiError("iaas_vm_create_140")}
		}
		if len(*update.Userdata) > domain.UserdataMaxLength {
			return nil, domain.FieldErrors{"userdata": domain.NewApiError("iaas_vm_create_141")}
		}
		if !domain.ValidUserdata(*update.Userdata) {
			return nil, domain.FieldErrors{"userdata": domain.NewApiError("iaas_vm_create_142")}
		}
		vm.Userdata = update.Userdata
	}

	err = pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*vmService)

		if gpuDelta > 0 {
			free, err := txSelf.deviceRepository.GetFreeByServer(vm.ServerID)
			if err != nil {
				return errors.WithMessagef(err, "Could not select free Devices of Server %d", vm.ServerID)
			}
			if len(free) < gpuDelta {
				return domain.FieldErrors{"gpu": domain.NewApiError("iaas_vm_update_108")}
			}
			deviceIDs := make([]int, gpuDelta)
			for i := 0; i < gpuDelta; i += 1 {
				deviceIDs[i] = free[i].ID
			}
			if err := txSelf.deviceRepository.AssignToVM(deviceIDs, vm.ID); err != nil {
				return errors.WithMessagef(err, "Could not assign Devices to VM %d", vm.ID)
			}
		}

		for i := range vm.Storages {
			if err := txSelf.vmRepository.UpdateStorage(&vm.Storages[i]); err != nil {
				return errors.WithMessagef(err, "Could not update Storage %d", vm.Storages[i].ID)
			}
		}
		for _, storage := range update.Storages {
			if !storageExists(vm.Storages, storage.Name) {
				newStorage := domain.Storage{VMID: vm.ID, Name: storage.Name, GB: storage.GB}
				if err := txSelf.vmRepository.SaveStorage(&newStorage); err != nil {
					return errors.WithMessagef(err, "Could not insert Storage for VM %d", vm.ID)
				}
				vm.Storages = append(vm.Storages, newStorage)
			}
		}

		if vm.State == domain.StateClosed {
			// Closing frees the VM's addresses, NAT bindings and devices.
			if _, err := txSelf.ipAddressRepository.DeleteByVM(vm.ID); err != nil {
				return errors.WithMessagef(err, "Could not delete IP addresses of VM %d", vm.ID)
			}
			if err := txSelf.deviceRepository.ReleaseByVM(vm.ID); err != nil {
				return errors.WithMessagef(err, "Could not release Devices of VM %d", vm.ID)
			}
			vm.GPU = 0
		}

		if err := txSelf.vmRepository.Update(vm); err != nil {
			return errors.WithMessagef(err, "Could not update VM %d", vm.ID)
		}

		storageTypeID := domain.StorageTypeHDD
		if server, err := txSelf.serverRepository.GetById(vm.ServerID); err != nil {
			return errors.WithMessagef(err, "Could not select Server %d", vm.ServerID)
		} else if server != nil {
			storageTypeID = server.StorageTypeID
		}
		natCount := 0
		if ips, err := txSelf.ipAddressRepository.GetByVM(vm.ID); err != nil {
			return errors.WithMessagef(err, "Could not select IP addresses of VM %d", vm.ID)
		} else {
			for _, ip := range ips {
				if ip.NAT() {
					natCount += 1
				}
			}
		}
		if err := txSelf.saveHistory(vm, project, storageTypeID, natCount); err != nil {
			return err
		}

		if slices.Contains(domain.RobotProcessStates, vm.State) {
			return txSelf.projectService.SetRunRobotFlags(project.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	self.logger.Debug().Int("id", vm.ID).Int("state", int(vm.State)).Msg("Updated VM")
	return vm, nil
}

// growStorages applies the requested sizes onto the existing storages,
// returning the total growth in GB. Shrinking or dropping is refused.
func growStorages(existing []domain.Storage, requested []StorageCreate) (int, error) {
	grown := 0
	for _, request := range requested {
		if request.GB < domain.StorageMinGB {
			return 0, domain.FieldErrors{"storages": domain.NewApiError("iaas_vm_create_107")}
		}
		found := false
		for i := range existing {
			if existing[i].Name != request.Name {
				continue
			}
			found = true
			if request.GB < existing[i].GB {
				return 0, domain.FieldErrors{"storages": domain.NewApiError("iaas_vm_update_106")}
			}
			grown += request.GB - existing[i].GB
			existing[i].GB = request.GB
		}
		if !found {
			grown += request.GB
		}
	}
	return grown, nil
}

func storageExists(storages []domain.Storage, name string) bool {
	for _, storage := range storages {
		if storage.Name == name {
			return true
		}
	}
	return false
}

func (self *vmService) GetStorages(requester domain.Requester, vmID int) ([]domain.Storage, error) {
	if _, err := self.GetById(requester, vmID); err != nil {
		return nil, err
	}
	return self.vmRepository.GetStorages(vmID)
}

func (self *vmService) GetHistoryByPage(requester domain.Requester, vmID int, page *repository.Page) ([]domain.VMHistory, error) {
	vm, err := self.vmRepository.GetById(vmID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select VM %d", vmID)
	}
	if vm == nil {
		return nil, domain.NewApiError("iaas_vm_read_001")
	}
	if _, err := self.visibleProject(requester, vm.ProjectID, "iaas_vm_read_201"); err != nil {
		return nil, err
	}
	history, err := self.vmRepository.GetHistoryByPage(vmID, page)
	return history, errors.WithMessagef(err, "Could not select history of VM %d", vmID)
}
