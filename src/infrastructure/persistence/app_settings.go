package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type appSettingsRepository struct {
	Db config.PgxIface
}

func NewAppSettingsRepository(db config.PgxIface) repository.AppSettingsRepository {
	return &appSettingsRepository{db}
}

func (self *appSettingsRepository) WithQuerier(querier config.PgxIface) repository.AppSettingsRepository {
	return &appSettingsRepository{querier}
}

func (self *appSettingsRepository) Get() (*domain.AppSettings, error) {
	settings := domain.AppSettings{}
	err := pgxscan.Get(
		context.Background(), self.Db, &settings,
		`SELECT * FROM app_settings ORDER BY id LIMIT 1`,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &settings, err
}

func (self *appSettingsRepository) Save(settings *domain.AppSettings) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO app_settings (provider_api_key, provider_email)
		VALUES ($1, $2)
		RETURNING id, created, updated`,
		settings.ProviderAPIKey, settings.ProviderEmail,
	).Scan(&settings.ID, &settings.Created, &settings.Updated)
}

func (self *appSettingsRepository) Update(settings *domain.AppSettings) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE app_settings SET provider_api_key = $2, provider_email = $3, updated = now()
		WHERE id = $1
		RETURNING updated`,
		settings.ID, settings.ProviderAPIKey, settings.ProviderEmail,
	).Scan(&settings.Updated)
}

func (self *appSettingsRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`DELETE FROM app_settings WHERE id = $1`,
		id,
	)
	return
}
