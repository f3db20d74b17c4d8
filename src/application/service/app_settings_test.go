package service

import (
	"context"
	"io"
	"testing"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/strataops/iaas/src/domain"
)

func buildAppSettingsService(t *testing.T) (pgxmock.PgxConnIface, AppSettingsService) {
	db, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error was not expected when opening a stub database connection: %q", err)
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	logger := zerolog.New(io.Discard)
	return db, NewAppSettingsService(db, &logger)
}

func TestAppSettingsRequireOperator(t *testing.T) {
	t.Parallel()

	// given
	_, appSettingsService := buildAppSettingsService(t)
	requester := domain.Requester{ID: 5, AddressID: 10}

	// when
	_, listErr := appSettingsService.GetAll(requester)
	_, getErr := appSettingsService.GetById(requester, 1)
	createErr := appSettingsService.Create(requester, &domain.AppSettings{})

	// then
	for _, err := range []error{listErr, getErr, createErr} {
		var apiErr domain.ApiError
		if assert.ErrorAs(t, err, &apiErr) {
			assert.Equal(t, "iaas_app_settings_201", apiErr.Code)
			assert.Equal(t, 403, apiErr.StatusCode())
		}
	}
}

func TestAppSettingsGetAllEmpty(t *testing.T) {
	t.Parallel()

	// given
	db, appSettingsService := buildAppSettingsService(t)
	db.ExpectQuery("SELECT \\* FROM app_settings").
		WillReturnRows(pgxmock.NewRows([]string{"id", "provider_api_key", "provider_email"}))

	// when
	settings, err := appSettingsService.GetAll(domain.Requester{ID: 2, Administrator: true})

	// then
	assert.Nil(t, err)
	assert.Empty(t, settings)
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestAppSettingsGetByIdMismatch(t *testing.T) {
	t.Parallel()

	// given
	db, appSettingsService := buildAppSettingsService(t)
	db.ExpectQuery("SELECT \\* FROM app_settings").
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "provider_api_key", "provider_email"}).
				AddRow(1, "key", "ops@example.com"),
		)

	// when
	_, err := appSettingsService.GetById(domain.Requester{ID: domain.SuperuserID}, 7)

	// then
	var apiErr domain.ApiError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, "iaas_app_settings_read_001", apiErr.Code)
	}
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestAppSettingsCreateRefusesSecondRow(t *testing.T) {
	t.Parallel()

	// given
	db, appSettingsService := buildAppSettingsService(t)
	db.ExpectQuery("SELECT \\* FROM app_settings").
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "provider_api_key", "provider_email"}).
				AddRow(1, "key", "ops@example.com"),
		)

	// when
	err := appSettingsService.Create(
		domain.Requester{ID: 2, Administrator: true},
		&domain.AppSettings{ProviderAPIKey: "other"},
	)

	// then
	var apiErr domain.ApiError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, "iaas_app_settings_create_101", apiErr.Code)
	}
	assert.Nil(t, db.ExpectationsWereMet())
}
