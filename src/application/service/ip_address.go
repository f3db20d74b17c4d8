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

type IPAddressService interface {
	WithQuerier(config.PgxIface) IPAddressService

	GetByPage(domain.Requester, *repository.Page, repository.IPAddressFilter) ([]domain.IPAddress, error)
	GetById(domain.Requester, int) (*domain.IPAddress, error)
	Create(domain.Requester, *domain.IPAddress) error
	Update(domain.Requester, int, IPAddressUpdate) (*domain.IPAddress, error)
	Delete(domain.Requester, int) error
}

type IPAddressUpdate struct {
	Credentials *string `json:"credentials"`
	Location    *string `json:"location"`
	Name        *string `json:"name"`
	Ping        *bool   `json:"ping"`
	Scan        *bool   `json:"scan"`
}

type ipAddressService struct {
	logger zerolog.Logger
	db     config.PgxIface

	ipAddressRepository repository.IPAddressRepository
	subnetRepository    repository.SubnetRepository
	vmRepository        repository.VmRepository
}

func NewIPAddressService(db config.PgxIface, logger *zerolog.Logger) IPAddressService {
	return &ipAddressService{
		logger:              logger.With().Str("component", "IPAddressService").Logger(),
		db:                  db,
		ipAddressRepository: persistence.NewIPAddressRepository(db),
		subnetRepository:    persistence.NewSubnetRepository(db),
		vmRepository:        persistence.NewVmRepository(db),
	}
}

func (self *ipAddressService) WithQuerier(querier config.PgxIface) IPAddressService {
	return &ipAddressService{
		logger:              self.logger,
		db:                  querier,
		ipAddressRepository: self.ipAddressRepository.WithQuerier(querier),
		subnetRepository:    self.subnetRepository.WithQuerier(querier),
		vmRepository:        self.vmRepository.WithQuerier(querier),
	}
}

var ipAddressOrders = map[string]string{
	"id":        "ip_address.id",
	"address":   "ip_address.address",
	"subnet_id": "ip_address.subnet_id",
	"vm_id":     "ip_address.vm_id",
}

func (self *ipAddressService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.IPAddressFilter) (addresses []domain.IPAddress, err error) {
	if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing IPAddresses")
	addresses, err = self.ipAddressRepository.GetByPage(page, filter, page.OrderBy(ipAddressOrders, "ip_address.id"))
	err = errors.WithMessage(err, "Could not select IPAddresses")
	return
}

func (self *ipAddressService) GetById(requester domain.Requester, id int) (*domain.IPAddress, error) {
	self.logger.Trace().Int("id", id).Msg("Getting IPAddress by ID")
	address, err := self.ipAddressRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select IPAddress %d", id)
	}
	if address == nil {
		return nil, domain.NewApiError("iaas_ip_address_read_001")
	}
	subnet, err := self.subnetRepository.GetById(address.SubnetID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Subnet %d", address.SubnetID)
	}
	if subnet == nil || (!requester.Superuser() && !requester.CanSeeAddress(subnet.AddressID)) {
		return nil, domain.NewApiError("iaas_ip_address_read_001")
	}
	return address, nil
}

func (self *ipAddressService) Create(requester domain.Requester, address *domain.IPAddress) error {
	subnet, err := self.subnetRepository.GetById(address.SubnetID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Subnet %d", address.SubnetID)
	}
	if subnet == nil || (!requester.Superuser() && !requester.CanSeeAddress(subnet.AddressID)) {
		return domain.FieldErrors{"subnet_id": domain.NewApiError("iaas_ip_address_create_101")}
	}

	prefix, err := subnet.Prefix()
	if err != nil {
		return errors.WithMessagef(err, "Subnet %d has an unparseable range %q", subnet.ID, subnet.AddressRange)
	}
	parsed, err := netip.ParseAddr(address.Address)
	if err != nil || !prefix.Contains(parsed) {
		return domain.FieldErrors{"address": domain.NewApiError("iaas_ip_address_create_101")}
	}

	if count, err := self.ipAddressRepository.CountByAddress(subnet.ID, address.Address); err != nil {
		return errors.WithMessagef(err, "Could not count IPAddresses %q in Subnet %d", address.Address, subnet.ID)
	} else if count > 0 {
		return domain.FieldErrors{"address": domain.NewApiError("iaas_ip_address_create_102")}
	}

	if subnet.Cloud() && address.VMID == nil {
		return domain.FieldErrors{"vm_id": domain.NewApiError("iaas_ip_address_create_103")}
	}
	if address.VMID != nil {
		vm, err := self.vmRepository.GetById(*address.VMID)
		if err != nil {
			return errors.WithMessagef(err, "Could not select VM %d", *address.VMID)
		}
		if vm == nil {
			return domain.FieldErrors{"vm_id": domain.NewApiError("iaas_ip_address_create_103")}
		}
	}

	if len(address.Name) > domain.IPAddressNameMaxLength {
		return domain.FieldErrors{"name": domain.NewApiError("iaas_ip_address_create_104")}
	}

	if err := self.ipAddressRepository.Save(address); err != nil {
		return errors.WithMessage(err, "Could not insert IPAddress")
	}
	self.logger.Info().Int("id", address.ID).Str("address", address.Address).Msg("Created IPAddress")
	return nil
}

func (self *ipAddressService) Update(requester domain.Requester, id int, update IPAddressUpdate) (*domain.IPAddress, error) {
	address, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_ip_address_read_001" {
			return nil, domain.NewApiError("iaas_ip_address_update_001")
		}
		return nil, err
	}

	if update.Name != nil {
		if len(*update.Name) > domain.IPAddressNameMaxLength {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_ip_address_create_104")}
		}
		address.Name = *update.Name
	}
	if update.Credentials != nil {
		address.Credentials = update.Credentials
	}
	if update.Location != nil {
		address.Location = update.Location
	}
	if update.Ping != nil {
		address.Ping = *update.Ping
	}
	if update.Scan != nil {
		address.Scan = *update.Scan
	}

	if err := self.ipAddressRepository.Update(address); err != nil {
		return nil, errors.WithMessagef(err, "Could not update IPAddress %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated IPAddress")
	return address, nil
}

func (self *ipAddressService) Delete(requester domain.Requester, id int) error {
	address, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_ip_address_read_001" {
			return domain.NewApiError("iaas_ip_address_delete_001")
		}
		return err
	}

	return pgx.BeginFunc(context.Background(), self.db, func(tx pgx.Tx) error {
		txSelf := self.WithQuerier(tx).(*ipAddressService)
		if err := txSelf.ipAddressRepository.Delete(id); err != nil {
			return errors.WithMessagef(err, "Could not delete IPAddress %d", id)
		}
		// A floating public IP bound for NAT dies with its last binding.
		if address.PublicIPID != nil {
			if count, err := txSelf.ipAddressRepository.CountNATBindings(*address.PublicIPID); err != nil {
				return errors.WithMessagef(err, "Could not count bindings of public IP %d", *address.PublicIPID)
			} else if count == 0 {
				if err := txSelf.ipAddressRepository.Delete(*address.PublicIPID); err != nil {
					return errors.WithMessagef(err, "Could not delete public IP %d", *address.PublicIPID)
				}
			}
		}
		self.logger.Info().Int("id", id).Msg("Deleted IPAddress")
		return nil
	})
}

type IPAddressGroupService interface {
	WithQuerier(config.PgxIface) IPAddressGroupService

	GetByPage(domain.Requester, *repository.Page, repository.IPAddressGroupFilter) ([]domain.IPAddressGroup, error)
	GetById(domain.Requester, int) (*domain.IPAddressGroup, error)
	Create(domain.Requester, *domain.IPAddressGroup) error
	Update(domain.Requester, int, IPAddressGroupUpdate) (*domain.IPAddressGroup, error)
	Delete(domain.Requester, int) error
}

type IPAddressGroupUpdate struct {
	Name  *string   `json:"name"`
	Cidrs *[]string `json:"cidrs"`
}

type ipAddressGroupService struct {
	logger zerolog.Logger

	ipAddressGroupRepository repository.IPAddressGroupRepository
}

func NewIPAddressGroupService(db config.PgxIface, logger *zerolog.Logger) IPAddressGroupService {
	return &ipAddressGroupService{
		logger:                   logger.With().Str("component", "IPAddressGroupService").Logger(),
		ipAddressGroupRepository: persistence.NewIPAddressGroupRepository(db),
	}
}

func (self *ipAddressGroupService) WithQuerier(querier config.PgxIface) IPAddressGroupService {
	return &ipAddressGroupService{
		logger:                   self.logger,
		ipAddressGroupRepository: self.ipAddressGroupRepository.WithQuerier(querier),
	}
}

var ipAddressGroupOrders = map[string]string{
	"id":   "ip_address_group.id",
	"name": "ip_address_group.name",
}

func (self *ipAddressGroupService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.IPAddressGroupFilter) (groups []domain.IPAddressGroup, err error) {
	if !requester.Superuser() {
		filter.MemberID = &requester.MemberID
	}

	self.logger.Trace().Msg("Listing IPAddressGroups")
	groups, err = self.ipAddressGroupRepository.GetByPage(page, filter, page.OrderBy(ipAddressGroupOrders, "ip_address_group.id"))
	err = errors.WithMessage(err, "Could not select IPAddressGroups")
	return
}

func (self *ipAddressGroupService) GetById(requester domain.Requester, id int) (*domain.IPAddressGroup, error) {
	group, err := self.ipAddressGroupRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select IPAddressGroup %d", id)
	}
	if group == nil || (!requester.Superuser() && group.MemberID != requester.MemberID) {
		return nil, domain.NewApiError("iaas_ip_address_group_read_001")
	}
	return group, nil
}

func validGroupCidrs(cidrs []string, version int) bool {
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return false
		}
		if version == 4 && !prefix.Addr().Is4() {
			return false
		}
		if version == 6 && !prefix.Addr().Is6() {
			return false
		}
	}
	return true
}

func (self *ipAddressGroupService) Create(requester domain.Requester, group *domain.IPAddressGroup) error {
	if group.Name == "" || len(group.Name) > domain.IPAddressGroupNameMaxLength {
		return domain.FieldErrors{"name": domain.NewApiError("iaas_ip_address_group_create_101")}
	}
	if group.Version != 4 && group.Version != 6 {
		return domain.FieldErrors{"version": domain.NewApiError("iaas_ip_address_group_create_102")}
	}
	if !validGroupCidrs(group.Cidrs, group.Version) {
		return domain.FieldErrors{"cidrs": domain.NewApiError("iaas_ip_address_group_create_103")}
	}

	group.MemberID = requester.MemberID
	if err := self.ipAddressGroupRepository.Save(group); err != nil {
		return errors.WithMessage(err, "Could not insert IPAddressGroup")
	}
	self.logger.Info().Int("id", group.ID).Msg("Created IPAddressGroup")
	return nil
}

func (self *ipAddressGroupService) Update(requester domain.Requester, id int, update IPAddressGroupUpdate) (*domain.IPAddressGroup, error) {
	group, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_ip_address_group_read_001" {
			return nil, domain.NewApiError("iaas_ip_address_group_update_001")
		}
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" || len(*update.Name) > domain.IPAddressGroupNameMaxLength {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_ip_address_group_create_101")}
		}
		group.Name = *update.Name
	}
	if update.Cidrs != nil {
		if !validGroupCidrs(*update.Cidrs, group.Version) {
			return nil, domain.FieldErrors{"cidrs": domain.NewApiError("iaas_ip_address_group_create_103")}
		}
		group.Cidrs = *update.Cidrs
	}

	if err := self.ipAddressGroupRepository.Update(group); err != nil {
		return nil, errors.WithMessagef(err, "Could not update IPAddressGroup %d", id)
	}
	return group, nil
}

func (self *ipAddressGroupService) Delete(requester domain.Requester, id int) error {
	if _, err := self.GetById(requester, id); err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_ip_address_group_read_001" {
			return domain.NewApiError("iaas_ip_address_group_delete_001")
		}
		return err
	}
	return errors.WithMessagef(self.ipAddressGroupRepository.Delete(id), "Could not delete IPAddressGroup %d", id)
}
