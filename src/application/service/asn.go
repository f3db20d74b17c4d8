package service

import (
	"net/netip"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type AsnService interface {
	WithQuerier(config.PgxIface) AsnService

	GetByPage(domain.Requester, *repository.Page, repository.AsnFilter) ([]domain.Asn, error)
	GetById(domain.Requester, int) (*domain.Asn, error)
	Create(domain.Requester, *domain.Asn) error
	Update(domain.Requester, int, AsnUpdate) (*domain.Asn, error)
	Delete(domain.Requester, int) error
}

type AsnUpdate struct {
	Number *int64 `json:"number"`
}

type asnService struct {
	logger zerolog.Logger

	asnRepository        repository.AsnRepository
	allocationRepository repository.AllocationRepository
}

func NewAsnService(db config.PgxIface, logger *zerolog.Logger) AsnService {
	return &asnService{
		logger:               logger.With().Str("component", "AsnService").Logger(),
		asnRepository:        persistence.NewAsnRepository(db),
		allocationRepository: persistence.NewAllocationRepository(db),
	}
}

func (self *asnService) WithQuerier(querier config.PgxIface) AsnService {
	return &asnService{
		logger:               self.logger,
		asnRepository:        self.asnRepository.WithQuerier(querier),
		allocationRepository: self.allocationRepository.WithQuerier(querier),
	}
}

var asnOrders = map[string]string{
	"id":        "asn.id",
	"member_id": "asn.member_id",
	"number":    "asn.number",
}

func (self *asnService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.AsnFilter) (asns []domain.Asn, err error) {
	if !requester.Superuser() {
		filter.MemberID = &requester.MemberID
	}

	self.logger.Trace().Msg("Listing ASNs")
	asns, err = self.asnRepository.GetByPage(page, filter, page.OrderBy(asnOrders, "asn.number"))
	err = errors.WithMessage(err, "Could not select ASNs")
	return
}

func (self *asnService) GetById(requester domain.Requester, id int) (*domain.Asn, error) {
	self.logger.Trace().Int("id", id).Msg("Getting ASN by ID")
	asn, err := self.asnRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select ASN %d", id)
	}
	if asn == nil || (!requester.Superuser() && asn.MemberID != requester.MemberID) {
		return nil, domain.NewApiError("iaas_asn_read_001")
	}
	return asn, nil
}

func (self *asnService) Create(requester domain.Requester, asn *domain.Asn) error {
	if asn.Number < 1 || asn.Number >= domain.AsnMaxNumber {
		return domain.FieldErrors{"number": domain.NewApiError("iaas_asn_create_101")}
	}
	if existing, err := self.asnRepository.GetByNumber(asn.Number); err != nil {
		return errors.WithMessagef(err, "Could not select ASN by number %d", asn.Number)
	} else if existing != nil {
		return domain.FieldErrors{"number": domain.NewApiError("iaas_asn_create_102")}
	}

	asn.MemberID = requester.MemberID
	if err := self.asnRepository.Save(asn); err != nil {
		return errors.WithMessage(err, "Could not insert ASN")
	}
	self.logger.Info().Int("id", asn.ID).Int64("number", asn.Number).Msg("Created ASN")
	return nil
}

func (self *asnService) Update(requester domain.Requester, id int, update AsnUpdate) (*domain.Asn, error) {
	asn, err := self.asnRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select ASN %d", id)
	}
	if asn == nil {
		return nil, domain.NewApiError("iaas_asn_update_001")
	}
	if !requester.Superuser() && asn.MemberID != requester.MemberID {
		return nil, domain.NewApiError("iaas_asn_update_201")
	}

	if update.Number != nil && *update.Number != asn.Number {
		if *update.Number < 1 || *update.Number >= domain.AsnMaxNumber {
			return nil, domain.FieldErrors{"number": domain.NewApiError("iaas_asn_update_101")}
		}
		if existing, err := self.asnRepository.GetByNumber(*update.Number); err != nil {
			return nil, errors.WithMessagef(err, "Could not select ASN by number %d", *update.Number)
		} else if existing != nil {
			return nil, domain.FieldErrors{"number": domain.NewApiError("iaas_asn_update_102")}
		}
		asn.Number = *update.Number
	}

	if err := self.asnRepository.Update(asn); err != nil {
		return nil, errors.WithMessagef(err, "Could not update ASN %d", id)
	}
	self.logger.Info().Int("id", asn.ID).Int64("number", asn.Number).Msg("Updated ASN")
	return asn, nil
}

func (self *asnService) Delete(requester domain.Requester, id int) error {
	asn, err := self.asnRepository.GetById(id)
	if err != nil {
		return errors.WithMessagef(err, "Could not select ASN %d", id)
	}
	if asn == nil {
		return domain.NewApiError("iaas_asn_delete_001")
	}
	if !requester.Superuser() && asn.MemberID != requester.MemberID {
		return domain.NewApiError("iaas_asn_delete_201")
	}
	if count, err := self.asnRepository.CountAllocations(id); err != nil {
		return errors.WithMessagef(err, "Could not count Allocations of ASN %d", id)
	} else if count > 0 {
		return domain.NewApiError("iaas_asn_delete_101")
	}
	return errors.WithMessagef(self.asnRepository.Delete(id), "Could not delete ASN %d", id)
}

type AllocationService interface {
	WithQuerier(config.PgxIface) AllocationService

	GetByPage(domain.Requester, *repository.Page, repository.AllocationFilter) ([]domain.Allocation, error)
	GetById(domain.Requester, int) (*domain.Allocation, error)
	Create(domain.Requester, *domain.Allocation) error
	Update(domain.Requester, int, AllocationUpdate) (*domain.Allocation, error)
	Delete(domain.Requester, int) error

	// GetSubnetSpace reports the used and free blocks of the allocation.
	GetSubnetSpace(domain.Requester, int) ([]domain.SubnetSpace, error)
}

type AllocationUpdate struct {
	Name *string `json:"name"`
}

type allocationService struct {
	logger zerolog.Logger

	allocationRepository repository.AllocationRepository
	asnRepository        repository.AsnRepository
	subnetRepository     repository.SubnetRepository
}

func NewAllocationService(db config.PgxIface, logger *zerolog.Logger) AllocationService {
	return &allocationService{
		logger:               logger.With().Str("component", "AllocationService").Logger(),
		allocationRepository: persistence.NewAllocationRepository(db),
		asnRepository:        persistence.NewAsnRepository(db),
		subnetRepository:     persistence.NewSubnetRepository(db),
	}
}

func (self *allocationService) WithQuerier(querier config.PgxIface) AllocationService {
	return &allocationService{
		logger:               self.logger,
		allocationRepository: self.allocationRepository.WithQuerier(querier),
		asnRepository:        self.asnRepository.WithQuerier(querier),
		subnetRepository:     self.subnetRepository.WithQuerier(querier),
	}
}

var allocationOrders = map[string]string{
	"id":         "allocation.id",
	"address_id": "allocation.address_id",
	"asn_id":     "allocation.asn_id",
	"name":       "allocation.name",
}

func (self *allocationService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.AllocationFilter) (allocations []domain.Allocation, err error) {
	if !requester.Superuser() {
		filter.AddressIDs = requester.VisibleAddresses()
	}

	self.logger.Trace().Msg("Listing Allocations")
	allocations, err = self.allocationRepository.GetByPage(page, filter, page.OrderBy(allocationOrders, "allocation.id"))
	err = errors.WithMessage(err, "Could not select Allocations")
	return
}

func (self *allocationService) GetById(requester domain.Requester, id int) (*domain.Allocation, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Allocation by ID")
	allocation, err := self.allocationRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Allocation %d", id)
	}
	if allocation == nil || (!requester.Superuser() && !requester.CanSeeAddress(allocation.AddressID)) {
		return nil, domain.NewApiError("iaas_allocation_read_001")
	}
	return allocation, nil
}

func (self *allocationService) Create(requester domain.Requester, allocation *domain.Allocation) error {
	asn, err := self.asnRepository.GetById(allocation.AsnID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select ASN %d", allocation.AsnID)
	}
	if asn == nil || (!requester.Superuser() && asn.MemberID != requester.MemberID) {
		return domain.FieldErrors{"asn_id": domain.NewApiError("iaas_allocation_create_101")}
	}

	prefix, err := netip.ParsePrefix(allocation.AddressRange)
	if err != nil {
		return domain.FieldErrors{"address_range": domain.NewApiError("iaas_allocation_create_102")}
	}

	// Only the ASN owner's address may allocate public space.
	if requester.AddressID != allocation.AddressID || asn.Pseudo() {
		if !domain.PrivateRange(prefix) {
			return domain.FieldErrors{"address_range": domain.NewApiError("iaas_allocation_create_103")}
		}
	}

	if allocation.Name == "" {
		return domain.FieldErrors{"name": domain.NewApiError("iaas_allocation_create_104")}
	}

	if allocation.AddressID == 0 {
		allocation.AddressID = requester.AddressID
	}
	if err := self.allocationRepository.Save(allocation); err != nil {
		return errors.WithMessage(err, "Could not insert Allocation")
	}
	self.logger.Info().Int("id", allocation.ID).Msg("Created Allocation")
	return nil
}

func (self *allocationService) Update(requester domain.Requester, id int, update AllocationUpdate) (*domain.Allocation, error) {
	allocation, err := self.GetById(requester, id)
	if err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_allocation_read_001" {
			return nil, domain.NewApiError("iaas_allocation_update_001")
		}
		return nil, err
	}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, domain.FieldErrors{"name": domain.NewApiError("iaas_allocation_create_104")}
		}
		allocation.Name = *update.Name
	}
	if err := self.allocationRepository.Update(allocation); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Allocation %d", id)
	}
	return allocation, nil
}

func (self *allocationService) Delete(requester domain.Requester, id int) error {
	if _, err := self.GetById(requester, id); err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_allocation_read_001" {
			return domain.NewApiError("iaas_allocation_delete_001")
		}
		return err
	}
	if count, err := self.allocationRepository.CountSubnets(id); err != nil {
		return errors.WithMessagef(err, "Could not count Subnets of Allocation %d", id)
	} else if count > 0 {
		return domain.NewApiError("iaas_allocation_delete_101")
	}
	return errors.WithMessagef(self.allocationRepository.Delete(id), "Could not delete Allocation %d", id)
}

func (self *allocationService) GetSubnetSpace(requester domain.Requester, id int) ([]domain.SubnetSpace, error) {
	allocation, err := self.GetById(requester, id)
	if err != nil {
		return nil, err
	}
	subnets, err := self.subnetRepository.GetByAllocation(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Subnets of Allocation %d", id)
	}

	prefix, err := netip.ParsePrefix(allocation.AddressRange)
	if err != nil {
		return nil, errors.WithMessagef(err, "Allocation %d has an unparseable range %q", id, allocation.AddressRange)
	}
	return domain.SubnetSpaceReport(prefix, subnets), nil
}
