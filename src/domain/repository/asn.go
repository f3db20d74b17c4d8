package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type AsnFilter struct {
	MemberID *int
	Number   *int64
}

type AsnRepository interface {
	WithQuerier(config.PgxIface) AsnRepository

	GetByPage(*Page, AsnFilter, string) ([]domain.Asn, error)
	GetById(int) (*domain.Asn, error)
	GetByNumber(int64) (*domain.Asn, error)
	Save(*domain.Asn) error
	Update(*domain.Asn) error
	Delete(int) error

	CountAllocations(asnID int) (int, error)
}

type AllocationFilter struct {
	AsnID      *int
	AddressID  *int
	AddressIDs []int
}

type AllocationRepository interface {
	WithQuerier(config.PgxIface) AllocationRepository

	GetByPage(*Page, AllocationFilter, string) ([]domain.Allocation, error)
	GetById(int) (*domain.Allocation, error)
	Save(*domain.Allocation) error
	Update(*domain.Allocation) error
	Delete(int) error

	CountSubnets(allocationID int) (int, error)
}
