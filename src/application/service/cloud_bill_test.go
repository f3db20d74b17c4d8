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

func buildCloudBillService(t *testing.T) (pgxmock.PgxConnIface, CloudBillService) {
	db, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error was not expected when opening a stub database connection: %q", err)
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	logger := zerolog.New(io.Discard)
	return db, NewCloudBillService(db, &logger)
}

func TestCloudBillRejectsBadTimestamp(t *testing.T) {
	t.Parallel()

	// given
	_, cloudBillService := buildCloudBillService(t)

	// when
	_, err := cloudBillService.Get(domain.Requester{ID: 5, AddressID: 10}, "yesterday")

	// then
	var fieldErrors domain.FieldErrors
	if assert.ErrorAs(t, err, &fieldErrors) {
		assert.Equal(t, "iaas_cloud_bill_list_001", fieldErrors["timestamp"].Code)
	}
}

func TestCloudBillEmptyWithoutProjects(t *testing.T) {
	t.Parallel()

	// given
	db, cloudBillService := buildCloudBillService(t)
	db.ExpectQuery("SELECT project").
		WithArgs([]int{10}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "address_id", "region_id", "name"}))

	// when
	bill, err := cloudBillService.Get(domain.Requester{ID: 5, AddressID: 10}, "")

	// then
	assert.Nil(t, err)
	assert.Empty(t, bill)
	assert.Nil(t, db.ExpectationsWereMet())
}
