package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type DnsDomainFilter struct {
	Name     *string
	MemberID *int
}

type DnsDomainRepository interface {
	WithQuerier(config.PgxIface) DnsDomainRepository

	GetByPage(*Page, DnsDomainFilter, string) ([]domain.DNSDomain, error)
	GetById(int) (*domain.DNSDomain, error)
	GetByName(name string, memberID int) (*domain.DNSDomain, error)
	Save(*domain.DNSDomain) error
	Delete(int) error
}

type RecordFilter struct {
	DomainID *int
	Type     *string
	Name     *string
	Content  *string
	MemberID *int

	// PTR selects reverse records instead of forward ones.
	PTR bool
}

type RecordRepository interface {
	WithQuerier(config.PgxIface) RecordRepository

	GetByPage(*Page, RecordFilter, string) ([]domain.Record, error)
	GetById(int) (*domain.Record, error)
	Save(*domain.Record) error
	Update(*domain.Record) error
	Delete(int) error
}
