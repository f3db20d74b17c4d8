package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type asnRepository struct {
	Db config.PgxIface
}

func NewAsnRepository(db config.PgxIface) repository.AsnRepository {
	return &asnRepository{db}
}

func (self *asnRepository) WithQuerier(querier config.PgxIface) repository.AsnRepository {
	return &asnRepository{querier}
}

func (self *asnRepository) GetByPage(page *repository.Page, filter repository.AsnFilter, orderBy string) ([]domain.Asn, error) {
	asns := []domain.Asn{}
	cond := &conditions{}
	if filter.MemberID != nil {
		cond.eq("member_id", *filter.MemberID)
	}
	if filter.Number != nil {
		cond.eq("number", *filter.Number)
	}
	return asns, fetchPage(
		self.Db, page, &asns,
		"*", "asn"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *asnRepository) GetById(id int) (*domain.Asn, error) {
	asn := domain.Asn{}
	err := pgxscan.Get(
		context.Background(), self.Db, &asn,
		`SELECT * FROM asn WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &asn, err
}

func (self *asnRepository) GetByNumber(number int64) (*domain.Asn, error) {
	asn := domain.Asn{}
	err := pgxscan.Get(
		context.Background(), self.Db, &asn,
		`SELECT * FROM asn WHERE number = $1`,
		number,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &asn, err
}

func (self *asnRepository) Save(asn *domain.Asn) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO asn (member_id, number) VALUES ($1, $2) RETURNING id, created, updated`,
		asn.MemberID, asn.Number,
	).Scan(&asn.ID, &asn.Created, &asn.Updated)
}

func (self *asnRepository) Update(asn *domain.Asn) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE asn SET number = $2, updated = now() WHERE id = $1 RETURNING updated`,
		asn.ID, asn.Number,
	).Scan(&asn.Updated)
}

func (self *asnRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(context.Background(), `DELETE FROM asn WHERE id = $1`, id)
	return
}

func (self *asnRepository) CountAllocations(asnID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM allocation WHERE asn_id = $1`,
		asnID,
	).Scan(&count)
}

type allocationRepository struct {
	Db config.PgxIface
}

func NewAllocationRepository(db config.PgxIface) repository.AllocationRepository {
	return &allocationRepository{db}
}

func (self *allocationRepository) WithQuerier(querier config.PgxIface) repository.AllocationRepository {
	return &allocationRepository{querier}
}

func (self *allocationRepository) GetByPage(page *repository.Page, filter repository.AllocationFilter, orderBy string) ([]domain.Allocation, error) {
	allocations := []domain.Allocation{}
	cond := &conditions{}
	if filter.AsnID != nil {
		cond.eq("asn_id", *filter.AsnID)
	}
	if filter.AddressID != nil {
		cond.eq("address_id", *filter.AddressID)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("address_id", filter.AddressIDs)
	}
	return allocations, fetchPage(
		self.Db, page, &allocations,
		"*", "allocation"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *allocationRepository) GetById(id int) (*domain.Allocation, error) {
	allocation := domain.Allocation{}
	err := pgxscan.Get(
		context.Background(), self.Db, &allocation,
		`SELECT * FROM allocation WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &allocation, err
}

func (self *allocationRepository) Save(allocation *domain.Allocation) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO allocation (asn_id, address_id, address_range, name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created, updated`,
		allocation.AsnID, allocation.AddressID, allocation.AddressRange, allocation.Name,
	).Scan(&allocation.ID, &allocation.Created, &allocation.Updated)
}

func (self *allocationRepository) Update(allocation *domain.Allocation) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE allocation SET name = $2, updated = now() WHERE id = $1 RETURNING updated`,
		allocation.ID, allocation.Name,
	).Scan(&allocation.Updated)
}

func (self *allocationRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(context.Background(), `DELETE FROM allocation WHERE id = $1`, id)
	return
}

func (self *allocationRepository) CountSubnets(allocationID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM subnet WHERE allocation_id = $1`,
		allocationID,
	).Scan(&count)
}
