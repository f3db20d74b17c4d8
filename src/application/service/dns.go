package service

import (
	"net/netip"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/application"
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
	"golang.org/x/exp/slices"
)

type DomainService interface {
	WithQuerier(config.PgxIface) DomainService

	GetByPage(domain.Requester, *repository.Page, repository.DnsDomainFilter) ([]domain.DNSDomain, error)
	GetById(domain.Requester, int) (*domain.DNSDomain, error)
	Create(domain.Requester, *domain.DNSDomain) error
	Delete(domain.Requester, int) error
}

type domainService struct {
	logger zerolog.Logger

	dnsDomainRepository   repository.DnsDomainRepository
	appSettingsRepository repository.AppSettingsRepository
	provider              application.DnsProviderClient
}

func NewDomainService(db config.PgxIface, provider application.DnsProviderClient, logger *zerolog.Logger) DomainService {
	return &domainService{
		logger:                logger.With().Str("component", "DomainService").Logger(),
		dnsDomainRepository:   persistence.NewDnsDomainRepository(db),
		appSettingsRepository: persistence.NewAppSettingsRepository(db),
		provider:              provider,
	}
}

func (self *domainService) WithQuerier(querier config.PgxIface) DomainService {
	return &domainService{
		logger:                self.logger,
		dnsDomainRepository:   self.dnsDomainRepository.WithQuerier(querier),
		appSettingsRepository: self.appSettingsRepository.WithQuerier(querier),
		provider:              self.provider,
	}
}

func (self *domainService) providerEmail() (string, error) {
	settings, err := self.appSettingsRepository.Get()
	if err != nil {
		return "", errors.WithMessage(err, "Could not select AppSettings")
	}
	if settings == nil {
		return "", errors.New("DNS provider credentials are not configured")
	}
	return settings.ProviderEmail, nil
}

var dnsDomainOrders = map[string]string{
	"id":   "dns_domain.id",
	"name": "dns_domain.name",
}

func (self *domainService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.DnsDomainFilter) (domains []domain.DNSDomain, err error) {
	if !requester.Superuser() {
		filter.MemberID = &requester.MemberID
	}

	self.logger.Trace().Msg("Listing Domains")
	domains, err = self.dnsDomainRepository.GetByPage(page, filter, page.OrderBy(dnsDomainOrders, "dns_domain.id"))
	err = errors.WithMessage(err, "Could not select Domains")
	return
}

func (self *domainService) GetById(requester domain.Requester, id int) (*domain.DNSDomain, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Domain by ID")
	dnsDomain, err := self.dnsDomainRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Domain %d", id)
	}
	if dnsDomain == nil || (!requester.Superuser() && dnsDomain.MemberID != requester.MemberID) {
		return nil, domain.NewApiError("iaas_domain_read_001")
	}
	return dnsDomain, nil
}

func (self *domainService) Create(requester domain.Requester, dnsDomain *domain.DNSDomain) error {
	if !domain.ValidDomainName(dnsDomain.Name) {
		return domain.FieldErrors{"name": domain.NewApiError("iaas_domain_create_101")}
	}

	email, err := self.providerEmail()
	if err != nil {
		return err
	}

	// Provider first: the row's id is the provider's.
	providerID, err := self.provider.CreateDomain(dnsDomain.Name, email)
	if err != nil {
		return err
	}
	dnsDomain.ID = providerID
	dnsDomain.MemberID = requester.MemberID

	if err := self.dnsDomainRepository.Save(dnsDomain); err != nil {
		return errors.WithMessagef(err, "Could not insert Domain %d", providerID)
	}
	self.logger.Info().Int("id", dnsDomain.ID).Str("name", dnsDomain.Name).Msg("Created Domain")
	return nil
}

func (self *domainService) Delete(requester domain.Requester, id int) error {
	if _, err := self.GetById(requester, id); err != nil {
		if apiErr, ok := err.(domain.ApiError); ok && apiErr.Code == "iaas_domain_read_001" {
			return domain.NewApiError("iaas_domain_delete_001")
		}
		return err
	}
	if _, err := self.provider.DeleteDomain(id); err != nil {
		return err
	}
	if err := self.dnsDomainRepository.Delete(id); err != nil {
		return errors.WithMessagef(err, "Could not delete Domain %d", id)
	}
	self.logger.Info().Int("id", id).Msg("Deleted Domain")
	return nil
}

type RecordService interface {
	WithQuerier(config.PgxIface) RecordService

	GetByPage(domain.Requester, *repository.Page, repository.RecordFilter) ([]domain.Record, error)
	GetById(domain.Requester, int) (*domain.Record, error)
	Create(domain.Requester, *domain.Record) error
	Update(domain.Requester, int, *domain.Record) (*domain.Record, error)
	Delete(domain.Requester, int) error
}

type recordService struct {
	logger zerolog.Logger

	recordRepository    repository.RecordRepository
	dnsDomainRepository repository.DnsDomainRepository
	provider            application.DnsProviderClient
}

func NewRecordService(db config.PgxIface, provider application.DnsProviderClient, logger *zerolog.Logger) RecordService {
	return &recordService{
		logger:              logger.With().Str("component", "RecordService").Logger(),
		recordRepository:    persistence.NewRecordRepository(db),
		dnsDomainRepository: persistence.NewDnsDomainRepository(db),
		provider:            provider,
	}
}

func (self *recordService) WithQuerier(querier config.PgxIface) RecordService {
	return &recordService{
		logger:              self.logger,
		recordRepository:    self.recordRepository.WithQuerier(querier),
		dnsDomainRepository: self.dnsDomainRepository.WithQuerier(querier),
		provider:            self.provider,
	}
}

var recordOrders = map[string]string{
	"id":   "record.id",
	"name": "record.name",
	"type": "record.type",
}

func (self *recordService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.RecordFilter) (records []domain.Record, err error) {
	filter.PTR = false
	if !requester.Superuser() {
		filter.MemberID = &requester.MemberID
	}

	self.logger.Trace().Msg("Listing Records")
	records, err = self.recordRepository.GetByPage(page, filter, page.OrderBy(recordOrders, "record.id"))
	err = errors.WithMessage(err, "Could not select Records")
	return
}

// visibleRecord loads a forward record owned by one of the requester's
// domains.
func (self *recordService) visibleRecord(requester domain.Requester, id int, code string) (*domain.Record, error) {
	record, err := self.recordRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Record %d", id)
	}
	if record == nil || record.Type == "PTR" {
		return nil, domain.NewApiError(code)
	}
	dnsDomain, err := self.dnsDomainRepository.GetById(record.DomainID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Domain %d", record.DomainID)
	}
	if dnsDomain == nil || (!requester.Superuser() && dnsDomain.MemberID != requester.MemberID) {
		return nil, domain.NewApiError(code)
	}
	return record, nil
}

func (self *recordService) GetById(requester domain.Requester, id int) (*domain.Record, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Record by ID")
	return self.visibleRecord(requester, id, "iaas_record_read_001")
}

func validateRecord(record *domain.Record) domain.FieldErrors {
	if !slices.Contains(domain.RecordTypes, record.Type) {
		return domain.FieldErrors{"type": domain.NewApiError("iaas_record_create_101")}
	}
	if record.Content == "" || len(record.Content) > domain.RecordContentMaxLength {
		return domain.FieldErrors{"content": domain.NewApiError("iaas_record_create_102")}
	}
	if record.Name == "" || len(record.Name) > domain.RecordNameMaxLength {
		return domain.FieldErrors{"name": domain.NewApiError("iaas_record_create_103")}
	}
	if record.TTL == 0 {
		record.TTL = domain.RecordTTLDefault
	}
	if record.TTL < domain.RecordTTLMin {
		return domain.FieldErrors{"ttl": domain.NewApiError("iaas_record_create_104")}
	}
	if record.NeedsPriority() && record.Priority == nil {
		return domain.FieldErrors{"priority": domain.NewApiError("iaas_record_create_105")}
	}
	return nil
}

func (self *recordService) Create(requester domain.Requester, record *domain.Record) error {
	if fieldErrors := validateRecord(record); fieldErrors != nil {
		return fieldErrors
	}
	dnsDomain, err := self.dnsDomainRepository.GetById(record.DomainID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Domain %d", record.DomainID)
	}
	if dnsDomain == nil || (!requester.Superuser() && dnsDomain.MemberID != requester.MemberID) {
		return domain.FieldErrors{"domain_id": domain.NewApiError("iaas_record_create_106")}
	}

	providerID, err := self.provider.CreateRecord(record.DomainID, *record)
	if err != nil {
		return err
	}
	record.ID = providerID

	if err := self.recordRepository.Save(record); err != nil {
		return errors.WithMessagef(err, "Could not insert Record %d", providerID)
	}
	self.logger.Info().Int("id", record.ID).Str("type", record.Type).Msg("Created Record")
	return nil
}

func (self *recordService) Update(requester domain.Requester, id int, update *domain.Record) (*domain.Record, error) {
	record, err := self.visibleRecord(requester, id, "iaas_record_update_001")
	if err != nil {
		return nil, err
	}

	update.ID = record.ID
	update.DomainID = record.DomainID
	update.Type = record.Type
	if fieldErrors := validateRecord(update); fieldErrors != nil {
		return nil, fieldErrors
	}

	if _, err := self.provider.UpdateRecord(id, *update); err != nil {
		return nil, err
	}
	if err := self.recordRepository.Update(update); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Record %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated Record")
	return update, nil
}

func (self *recordService) Delete(requester domain.Requester, id int) error {
	if _, err := self.visibleRecord(requester, id, "iaas_record_delete_001"); err != nil {
		return err
	}
	if _, err := self.provider.DeleteRecord(id); err != nil {
		return err
	}
	if err := self.recordRepository.Delete(id); err != nil {
		return errors.WithMessagef(err, "Could not delete Record %d", id)
	}
	self.logger.Info().Int("id", id).Msg("Deleted Record")
	return nil
}

type PtrRecordService interface {
	WithQuerier(config.PgxIface) PtrRecordService

	GetByPage(domain.Requester, *repository.Page, repository.RecordFilter) ([]domain.Record, error)
	GetById(domain.Requester, int) (*domain.Record, error)
	Create(domain.Requester, *domain.Record) error
	Update(domain.Requester, int, *domain.Record) (*domain.Record, error)
	Delete(domain.Requester, int) error
}

type ptrRecordService struct {
	logger zerolog.Logger

	recordRepository      repository.RecordRepository
	dnsDomainRepository   repository.DnsDomainRepository
	appSettingsRepository repository.AppSettingsRepository
	provider              application.DnsProviderClient
}

func NewPtrRecordService(db config.PgxIface, provider application.DnsProviderClient, logger *zerolog.Logger) PtrRecordService {
	return &ptrRecordService{
		logger:                logger.With().Str("component", "PtrRecordService").Logger(),
		recordRepository:      persistence.NewRecordRepository(db),
		dnsDomainRepository:   persistence.NewDnsDomainRepository(db),
		appSettingsRepository: persistence.NewAppSettingsRepository(db),
		provider:              provider,
	}
}

func (self *ptrRecordService) WithQuerier(querier config.PgxIface) PtrRecordService {
	return &ptrRecordService{
		logger:                self.logger,
		recordRepository:      self.recordRepository.WithQuerier(querier),
		dnsDomainRepository:   self.dnsDomainRepository.WithQuerier(querier),
		appSettingsRepository: self.appSettingsRepository.WithQuerier(querier),
		provider:              self.provider,
	}
}

func (self *ptrRecordService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.RecordFilter) (records []domain.Record, err error) {
	filter.PTR = true
	if !requester.Superuser() {
		filter.MemberID = &requester.MemberID
	}

	self.logger.Trace().Msg("Listing PTR Records")
	records, err = self.recordRepository.GetByPage(page, filter, page.OrderBy(recordOrders, "record.id"))
	err = errors.WithMessage(err, "Could not select PTR Records")
	return
}

func (self *ptrRecordService) visibleRecord(requester domain.Requester, id int, code string) (*domain.Record, error) {
	record, err := self.recordRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Record %d", id)
	}
	if record == nil || record.Type != "PTR" {
		return nil, domain.NewApiError(code)
	}
	dnsDomain, err := self.dnsDomainRepository.GetById(record.DomainID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Domain %d", record.DomainID)
	}
	if dnsDomain == nil || (!requester.Superuser() && dnsDomain.MemberID != requester.MemberID) {
		return nil, domain.NewApiError(code)
	}
	return record, nil
}

func (self *ptrRecordService) GetById(requester domain.Requester, id int) (*domain.Record, error) {
	self.logger.Trace().Int("id", id).Msg("Getting PTR Record by ID")
	return self.visibleRecord(requester, id, "iaas_ptr_record_read_001")
}

// reverseDomain finds the member's reverse zone for the IP, creating it
// at the provider on first use.
func (self *ptrRecordService) reverseDomain(requester domain.Requester, address netip.Addr) (*domain.DNSDomain, error) {
	zoneName, err := domain.ReverseDomainName(address.String())
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not derive the reverse zone of %s", address)
	}

	dnsDomain, err := self.dnsDomainRepository.GetByName(zoneName, requester.MemberID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Domain %q", zoneName)
	}
	if dnsDomain != nil {
		return dnsDomain, nil
	}

	settings, err := self.appSettingsRepository.Get()
	if err != nil {
		return nil, errors.WithMessage(err, "Could not select AppSettings")
	}
	if settings == nil {
		return nil, errors.New("DNS provider credentials are not configured")
	}

	var providerID int
	if address.Is4() {
		cidr := netip.PrefixFrom(address, 24).Masked().String()
		providerID, err = self.provider.CreateReverseDomain4(cidr, settings.ProviderEmail)
	} else {
		cidr := netip.PrefixFrom(address, 64).Masked().String()
		providerID, err = self.provider.CreateReverseDomain6(cidr, settings.ProviderEmail)
	}
	if err != nil {
		return nil, err
	}

	dnsDomain = &domain.DNSDomain{ID: providerID, MemberID: requester.MemberID, Name: zoneName}
	if err := self.dnsDomainRepository.Save(dnsDomain); err != nil {
		return nil, errors.WithMessagef(err, "Could not insert Domain %d", providerID)
	}
	self.logger.Info().Int("id", providerID).Str("name", zoneName).Msg("Created reverse Domain")
	return dnsDomain, nil
}

func validatePtrRecord(record *domain.Record) (netip.Addr, domain.FieldErrors) {
	address, err := netip.ParseAddr(record.Name)
	if err != nil {
		return netip.Addr{}, domain.FieldErrors{"name": domain.NewApiError("iaas_ptr_record_create_101")}
	}
	if record.Content == "" || len(record.Content) > domain.RecordContentMaxLength ||
		!domain.ValidDomainName(record.Content) {
		return netip.Addr{}, domain.FieldErrors{"content": domain.NewApiError("iaas_ptr_record_create_102")}
	}
	if record.TTL == 0 {
		record.TTL = domain.RecordTTLDefault
	}
	if record.TTL < domain.RecordTTLMin {
		return netip.Addr{}, domain.FieldErrors{"ttl": domain.NewApiError("iaas_record_create_104")}
	}
	return address, nil
}

func (self *ptrRecordService) Create(requester domain.Requester, record *domain.Record) error {
	address, fieldErrors := validatePtrRecord(record)
	if fieldErrors != nil {
		return fieldErrors
	}
	record.Type = "PTR"

	dnsDomain, err := self.reverseDomain(requester, address)
	if err != nil {
		return err
	}
	record.DomainID = dnsDomain.ID

	providerID, err := self.provider.CreateRecord(dnsDomain.ID, *record)
	if err != nil {
		return err
	}
	record.ID = providerID

	if err := self.recordRepository.Save(record); err != nil {
		return errors.WithMessagef(err, "Could not insert Record %d", providerID)
	}
	self.logger.Info().Int("id", record.ID).Str("name", record.Name).Msg("Created PTR Record")
	return nil
}

func (self *ptrRecordService) Update(requester domain.Requester, id int, update *domain.Record) (*domain.Record, error) {
	record, err := self.visibleRecord(requester, id, "iaas_ptr_record_update_001")
	if err != nil {
		return nil, err
	}

	update.ID = record.ID
	update.DomainID = record.DomainID
	update.Type = record.Type
	if _, fieldErrors := validatePtrRecord(update); fieldErrors != nil {
		return nil, fieldErrors
	}

	if _, err := self.provider.UpdateRecord(id, *update); err != nil {
		return nil, err
	}
	if err := self.recordRepository.Update(update); err != nil {
		return nil, errors.WithMessagef(err, "Could not update Record %d", id)
	}
	self.logger.Debug().Int("id", id).Msg("Updated PTR Record")
	return update, nil
}

func (self *ptrRecordService) Delete(requester domain.Requester, id int) error {
	if _, err := self.visibleRecord(requester, id, "iaas_ptr_record_delete_001"); err != nil {
		return err
	}
	if _, err := self.provider.DeleteRecord(id); err != nil {
		return err
	}
	if err := self.recordRepository.Delete(id); err != nil {
		return errors.WithMessagef(err, "Could not delete Record %d", id)
	}
	self.logger.Info().Int("id", id).Msg("Deleted PTR Record")
	return nil
}
