package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/strataops/iaas/src/domain"
)

func buildAsnService(t *testing.T) (pgxmock.PgxConnIface, AsnService) {
	db, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error was not expected when opening a stub database connection: %q", err)
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	logger := zerolog.New(io.Discard)
	return db, NewAsnService(db, &logger)
}

func asnRow(memberID int, number int64) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "member_id", "number"}).
		AddRow(5, memberID, number)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestAsnUpdateNotFound(t *testing.T) {
	t.Parallel()

	// given
	db, asnService := buildAsnService(t)
	db.ExpectQuery(`SELECT \* FROM asn WHERE id`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	// when
	_, err := asnService.Update(domain.Requester{ID: 3, MemberID: 2}, 5, AsnUpdate{})

	// then
	var apiErr domain.ApiError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, "iaas_asn_update_001", apiErr.Code)
		assert.Equal(t, 404, apiErr.StatusCode())
	}
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestAsnUpdateForeignMember(t *testing.T) {
	t.Parallel()

	// given an ASN of member 9
	db, asnService := buildAsnService(t)
	db.ExpectQuery(`SELECT \* FROM asn WHERE id`).
		WithArgs(5).
		WillReturnRows(asnRow(9, 65000))

	// when
	_, err := asnService.Update(domain.Requester{ID: 3, MemberID: 2}, 5, AsnUpdate{Number: int64Ptr(65001)})

	// then
	var apiErr domain.ApiError
	if assert.ErrorAs(t, err, &apiErr) {
		assert.Equal(t, "iaas_asn_update_201", apiErr.Code)
		assert.Equal(t, 403, apiErr.StatusCode())
	}
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestAsnUpdateNumberValidation(t *testing.T) {
	t.Parallel()

	t.Run("out of range", func(t *testing.T) {
		t.Parallel()

		db, asnService := buildAsnService(t)
		db.ExpectQuery(`SELECT \* FROM asn WHERE id`).
			WithArgs(5).
			WillReturnRows(asnRow(2, 65000))

		_, err := asnService.Update(domain.Requester{ID: 3, MemberID: 2}, 5, AsnUpdate{Number: int64Ptr(0)})

		assert.Equal(t, "iaas_asn_update_101", fieldErrorCode(t, err, "number"))
		assert.Nil(t, db.ExpectationsWereMet())
	})

	t.Run("number already taken", func(t *testing.T) {
		t.Parallel()

		db, asnService := buildAsnService(t)
		db.ExpectQuery(`SELECT \* FROM asn WHERE id`).
			WithArgs(5).
			WillReturnRows(asnRow(2, 65000))
		db.ExpectQuery(`SELECT \* FROM asn WHERE number`).
			WithArgs(int64(65001)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "member_id", "number"}).AddRow(6, 4, int64(65001)))

		_, err := asnService.Update(domain.Requester{ID: 3, MemberID: 2}, 5, AsnUpdate{Number: int64Ptr(65001)})

		assert.Equal(t, "iaas_asn_update_102", fieldErrorCode(t, err, "number"))
		assert.Nil(t, db.ExpectationsWereMet())
	})
}

func TestAsnUpdate(t *testing.T) {
	t.Parallel()

	// given
	db, asnService := buildAsnService(t)
	db.ExpectQuery(`SELECT \* FROM asn WHERE id`).
		WithArgs(5).
		WillReturnRows(asnRow(2, 65000))
	db.ExpectQuery(`SELECT \* FROM asn WHERE number`).
		WithArgs(int64(65001)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	db.ExpectQuery("UPDATE asn SET number").
		WithArgs(5, int64(65001)).
		WillReturnRows(pgxmock.NewRows([]string{"updated"}).AddRow(time.Now()))

	// when
	asn, err := asnService.Update(domain.Requester{ID: 3, MemberID: 2}, 5, AsnUpdate{Number: int64Ptr(65001)})

	// then
	assert.Nil(t, err)
	if assert.NotNil(t, asn) {
		assert.Equal(t, int64(65001), asn.Number)
	}
	assert.Nil(t, db.ExpectationsWereMet())
}
