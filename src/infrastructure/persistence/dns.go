package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type dnsDomainRepository struct {
	Db config.PgxIface
}

func NewDnsDomainRepository(db config.PgxIface) repository.DnsDomainRepository {
	return &dnsDomainRepository{db}
}

func (self *dnsDomainRepository) WithQuerier(querier config.PgxIface) repository.DnsDomainRepository {
	return &dnsDomainRepository{querier}
}

func (self *dnsDomainRepository) GetByPage(page *repository.Page, filter repository.DnsDomainFilter, orderBy string) ([]domain.DNSDomain, error) {
	domains := []domain.DNSDomain{}
	cond := &conditions{}
	if filter.Name != nil {
		cond.eq("name", *filter.Name)
	}
	if filter.MemberID != nil {
		cond.eq("member_id", *filter.MemberID)
	}
	return domains, fetchPage(
		self.Db, page, &domains,
		"*", "dns_domain"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *dnsDomainRepository) GetById(id int) (*domain.DNSDomain, error) {
	dnsDomain := domain.DNSDomain{}
	err := pgxscan.Get(
		context.Background(), self.Db, &dnsDomain,
		`SELECT * FROM dns_domain WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &dnsDomain, err
}

func (self *dnsDomainRepository) GetByName(name string, memberID int) (*domain.DNSDomain, error) {
	dnsDomain := domain.DNSDomain{}
	err := pgxscan.Get(
		context.Background(), self.Db, &dnsDomain,
		`SELECT * FROM dns_domain WHERE name = $1 AND member_id = $2`,
		name, memberID,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &dnsDomain, err
}

func (self *dnsDomainRepository) Save(dnsDomain *domain.DNSDomain) error {
	// The id comes from the provider, not a sequence.
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO dns_domain (id, member_id, name)
		VALUES ($1, $2, $3)
		RETURNING created, updated`,
		dnsDomain.ID, dnsDomain.MemberID, dnsDomain.Name,
	).Scan(&dnsDomain.Created, &dnsDomain.Updated)
}

func (self *dnsDomainRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`DELETE FROM dns_domain WHERE id = $1`,
		id,
	)
	return
}

type recordRepository struct {
	Db config.PgxIface
}

func NewRecordRepository(db config.PgxIface) repository.RecordRepository {
	return &recordRepository{db}
}

func (self *recordRepository) WithQuerier(querier config.PgxIface) repository.RecordRepository {
	return &recordRepository{querier}
}

func (self *recordRepository) GetByPage(page *repository.Page, filter repository.RecordFilter, orderBy string) ([]domain.Record, error) {
	records := []domain.Record{}
	cond := &conditions{}
	if filter.DomainID != nil {
		cond.eq("record.domain_id", *filter.DomainID)
	}
	if filter.Type != nil {
		cond.eq("record.record_type", *filter.Type)
	}
	if filter.Name != nil {
		cond.eq("record.name", *filter.Name)
	}
	if filter.Content != nil {
		cond.eq("record.content", *filter.Content)
	}
	if filter.MemberID != nil {
		cond.eq("dns_domain.member_id", *filter.MemberID)
	}
	if filter.PTR {
		cond.raw("record.record_type = 'PTR'")
	} else {
		cond.raw("record.record_type != 'PTR'")
	}
	return records, fetchPage(
		self.Db, page, &records,
		"record.*", "record JOIN dns_domain ON dns_domain.id = record.domain_id"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *recordRepository) GetById(id int) (*domain.Record, error) {
	record := domain.Record{}
	err := pgxscan.Get(
		context.Background(), self.Db, &record,
		`SELECT * FROM record WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &record, err
}

func (self *recordRepository) Save(record *domain.Record) error {
	// The id comes from the provider, not a sequence.
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO record (id, content, domain_id, failover, failover_content, georegion, name, priority, ttl, record_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created, updated`,
		record.ID, record.Content, record.DomainID, record.Failover, record.FailoverContent,
		record.GeoRegion, record.Name, record.Priority, record.TTL, record.Type,
	).Scan(&record.Created, &record.Updated)
}

func (self *recordRepository) Update(record *domain.Record) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE record SET
			content = $2, failover = $3, failover_content = $4, georegion = $5,
			name = $6, priority = $7, ttl = $8,
			updated = now()
		WHERE id = $1
		RETURNING updated`,
		record.ID, record.Content, record.Failover, record.FailoverContent,
		record.GeoRegion, record.Name, record.Priority, record.TTL,
	).Scan(&record.Updated)
}

func (self *recordRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`DELETE FROM record WHERE id = $1`,
		id,
	)
	return
}
