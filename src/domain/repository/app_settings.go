package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type AppSettingsRepository interface {
	WithQuerier(config.PgxIface) AppSettingsRepository

	// Get returns the singleton row, or nil when none exists yet.
	Get() (*domain.AppSettings, error)
	Save(*domain.AppSettings) error
	Update(*domain.AppSettings) error
	Delete(int) error
}
