package persistence

import (
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the schema up to date. The url is the DATABASE_URL;
// its scheme is rewritten for the migrate pgx/v5 driver.
func Migrate(url string, logger *zerolog.Logger) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.WithMessage(err, "While reading embedded migrations")
	}

	if strings.HasPrefix(url, "postgres://") {
		url = "pgx5://" + strings.TrimPrefix(url, "postgres://")
	} else if strings.HasPrefix(url, "postgresql://") {
		url = "pgx5://" + strings.TrimPrefix(url, "postgresql://")
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return errors.WithMessage(err, "While preparing migrations")
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		if err == migrate.ErrNoChange {
			logger.Debug().Msg("Schema already up to date")
			return nil
		}
		return errors.WithMessage(err, "While running migrations")
	}

	logger.Info().Msg("Schema migrated")
	return nil
}
