package service

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type AppSettingsService interface {
	WithQuerier(config.PgxIface) AppSettingsService

	GetAll(domain.Requester) ([]domain.AppSettings, error)
	GetById(domain.Requester, int) (*domain.AppSettings, error)
	Create(domain.Requester, *domain.AppSettings) error
	Update(domain.Requester, int, AppSettingsUpdate) (*domain.AppSettings, error)
	Delete(domain.Requester, int) error
}

type AppSettingsUpdate struct {
	ProviderAPIKey *string `json:"provider_api_key"`
	ProviderEmail  *string `json:"provider_email"`
}

type appSettingsService struct {
	logger                zerolog.Logger
	appSettingsRepository repository.AppSettingsRepository
}

func NewAppSettingsService(db config.PgxIface, logger *zerolog.Logger) AppSettingsService {
	return &appSettingsService{
		logger:                logger.With().Str("component", "AppSettingsService").Logger(),
		appSettingsRepository: persistence.NewAppSettingsRepository(db),
	}
}

func (self *appSettingsService) WithQuerier(querier config.PgxIface) AppSettingsService {
	return &appSettingsService{
		logger:                self.logger,
		appSettingsRepository: self.appSettingsRepository.WithQuerier(querier),
	}
}

func settingsOperator(requester domain.Requester) bool {
	return requester.Administrator || requester.Superuser()
}

// The settings table holds at most one row, so the list is the
// singleton or empty.
func (self *appSettingsService) GetAll(requester domain.Requester) ([]domain.AppSettings, error) {
	if !settingsOperator(requester) {
		return nil, domain.NewApiError("iaas_app_settings_201")
	}
	settings, err := self.appSettingsRepository.Get()
	if err != nil {
		return nil, errors.WithMessage(err, "Could not select AppSettings")
	}
	if settings == nil {
		return []domain.AppSettings{}, nil
	}
	return []domain.AppSettings{*settings}, nil
}

func (self *appSettingsService) GetById(requester domain.Requester, id int) (*domain.AppSettings, error) {
	if !settingsOperator(requester) {
		return nil, domain.NewApiError("iaas_app_settings_201")
	}
	settings, err := self.appSettingsRepository.Get()
	if err != nil {
		return nil, errors.WithMessage(err, "Could not select AppSettings")
	}
	if settings == nil || settings.ID != id {
		return nil, domain.NewApiError("iaas_app_settings_read_001")
	}
	return settings, nil
}

func (self *appSettingsService) Create(requester domain.Requester, settings *domain.AppSettings) error {
	if !settingsOperator(requester) {
		return domain.NewApiError("iaas_app_settings_201")
	}
	if existing, err := self.appSettingsRepository.Get(); err != nil {
		return errors.WithMessage(err, "Could not select AppSettings")
	} else if existing != nil {
		return domain.NewApiError("iaas_app_settings_create_101")
	}
	if err := self.appSettingsRepository.Save(settings); err != nil {
		return errors.WithMessage(err, "Could not insert AppSettings")
	}
	self.logger.Info().Int("id", settings.ID).Msg("Created AppSettings")
	return nil
}

func (self *appSettingsService) Update(requester domain.Requester, id int, update AppSettingsUpdate) (*domain.AppSettings, error) {
	settings, err := self.GetById(requester, id)
	if err != nil {
		return nil, err
	}
	if update.ProviderAPIKey != nil {
		settings.ProviderAPIKey = *update.ProviderAPIKey
	}
	if update.ProviderEmail != nil {
		settings.ProviderEmail = *update.ProviderEmail
	}
	if err := self.appSettingsRepository.Update(settings); err != nil {
		return nil, errors.WithMessage(err, "Could not update AppSettings")
	}
	self.logger.Debug().Int("id", id).Msg("Updated AppSettings")
	return settings, nil
}

func (self *appSettingsService) Delete(requester domain.Requester, id int) error {
	if _, err := self.GetById(requester, id); err != nil {
		return err
	}
	if err := self.appSettingsRepository.Delete(id); err != nil {
		return errors.WithMessage(err, "Could not delete AppSettings")
	}
	self.logger.Info().Int("id", id).Msg("Deleted AppSettings")
	return nil
}
