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

func buildProjectService(t *testing.T) (pgxmock.PgxConnIface, ProjectService) {
	db, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error was not expected when opening a stub database connection: %q", err)
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	logger := zerolog.New(io.Discard)
	return db, NewProjectService(db, &logger)
}

func TestProjectCreateRejectsPrivateUsers(t *testing.T) {
	t.Parallel()

	// given
	_, projectService := buildProjectService(t)

	// when
	err := projectService.Create(
		domain.Requester{ID: 5, AddressID: 10, IsPrivate: true},
		&domain.Project{Name: "demo", RegionID: 3},
	)

	// then
	var apiErr domain.ApiError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, "iaas_project_create_201", apiErr.Code)
		assert.Equal(t, 403, apiErr.StatusCode())
	}
}

func TestProjectCreateValidation(t *testing.T) {
	t.Parallel()

	// given
	db, projectService := buildProjectService(t)
	// Region 3 has no enabled server.
	db.ExpectQuery("SELECT count").
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))

	// when
	err := projectService.Create(
		domain.Requester{ID: 5, AddressID: 10},
		&domain.Project{Name: "", RegionID: 3, GracePeriod: -1},
	)

	// then
	var fieldErrors domain.FieldErrors
	if assert.ErrorAs(t, err, &fieldErrors) {
		assert.Equal(t, "iaas_project_create_101", fieldErrors["name"].Code)
		assert.Equal(t, "iaas_project_create_102", fieldErrors["region_id"].Code)
		assert.Equal(t, "iaas_project_create_103", fieldErrors["grace_period"].Code)
	}
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestProjectGetByIdNotFound(t *testing.T) {
	t.Parallel()

	// given
	db, projectService := buildProjectService(t)
	db.ExpectQuery("SELECT project").
		WithArgs(42).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	// when
	_, err := projectService.GetById(domain.Requester{ID: 5, AddressID: 10}, 42)

	// then
	var apiErr domain.ApiError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, "iaas_project_read_001", apiErr.Code)
		assert.Equal(t, 404, apiErr.StatusCode())
	}
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestProjectGetByIdScoping(t *testing.T) {
	t.Parallel()

	projectRow := func() *pgxmock.Rows {
		return pgxmock.NewRows([]string{"id", "address_id", "region_id", "name"}).
			AddRow(42, 11, 3, "demo")
	}

	tries := map[string]struct {
		requester domain.Requester
		errCode   string
	}{
		"own address": {
			domain.Requester{ID: 5, AddressID: 11}, "",
		},
		"foreign address": {
			domain.Requester{ID: 5, AddressID: 10}, "iaas_project_read_201",
		},
		"superuser": {
			domain.Requester{ID: domain.SuperuserID, AddressID: 1}, "",
		},
		"robot of the region": {
			domain.Requester{ID: 8, AddressID: 3, Robot: true}, "",
		},
		"robot of another region": {
			domain.Requester{ID: 8, AddressID: 4, Robot: true}, "iaas_project_read_201",
		},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// given
			db, projectService := buildProjectService(t)
			db.ExpectQuery("SELECT project").
				WithArgs(42).
				WillReturnRows(projectRow())

			// when
			project, err := projectService.GetById(try.requester, 42)

			// then
			if try.errCode == "" {
				assert.Nil(t, err)
				if assert.NotNil(t, project) {
					assert.Equal(t, 42, project.ID)
				}
			} else {
				var apiErr domain.ApiError
				if assert.ErrorAs(t, err, &apiErr) {
					assert.Equal(t, try.errCode, apiErr.Code)
				}
			}
			assert.Nil(t, db.ExpectationsWereMet())
		})
	}
}
