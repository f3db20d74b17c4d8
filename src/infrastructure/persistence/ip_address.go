package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type ipAddressRepository struct {
	Db config.PgxIface
}

func NewIPAddressRepository(db config.PgxIface) repository.IPAddressRepository {
	return &ipAddressRepository{db}
}

func (self *ipAddressRepository) WithQuerier(querier config.PgxIface) repository.IPAddressRepository {
	return &ipAddressRepository{querier}
}

const ipAddressFrom = `ip_address JOIN subnet ON subnet.id = ip_address.subnet_id`

func (self *ipAddressRepository) GetByPage(page *repository.Page, filter repository.IPAddressFilter, orderBy string) ([]domain.IPAddress, error) {
	addresses := []domain.IPAddress{}
	cond := &conditions{}
	if filter.SubnetID != nil {
		cond.eq("ip_address.subnet_id", *filter.SubnetID)
	}
	if filter.VMID != nil {
		cond.eq("ip_address.vm_id", *filter.VMID)
	}
	if filter.Address != nil {
		cond.eq("ip_address.address", *filter.Address)
	}
	if filter.VirtualRouterID != nil {
		cond.eq("subnet.virtual_router_id", *filter.VirtualRouterID)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("subnet.address_id", filter.AddressIDs)
	}
	return addresses, fetchPage(
		self.Db, page, &addresses,
		"ip_address.*", ipAddressFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *ipAddressRepository) GetById(id int) (*domain.IPAddress, error) {
	address := domain.IPAddress{}
	err := pgxscan.Get(
		context.Background(), self.Db, &address,
		`SELECT * FROM ip_address WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &address, err
}

func (self *ipAddressRepository) GetByVM(vmID int) ([]domain.IPAddress, error) {
	addresses := []domain.IPAddress{}
	return addresses, pgxscan.Select(
		context.Background(), self.Db, &addresses,
		`SELECT * FROM ip_address WHERE vm_id = $1 ORDER BY id`,
		vmID,
	)
}

func (self *ipAddressRepository) GetBySubnet(subnetID int) ([]domain.IPAddress, error) {
	addresses := []domain.IPAddress{}
	return addresses, pgxscan.Select(
		context.Background(), self.Db, &addresses,
		`SELECT * FROM ip_address WHERE subnet_id = $1 ORDER BY id`,
		subnetID,
	)
}

func (self *ipAddressRepository) Save(address *domain.IPAddress) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO ip_address (address, credentials, location, mac_address, name, ping, public_ip_id, scan, subnet_id, vm_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created, updated`,
		address.Address, address.Credentials, address.Location, address.MacAddress,
		address.Name, address.Ping, address.PublicIPID, address.Scan,
		address.SubnetID, address.VMID,
	).Scan(&address.ID, &address.Created, &address.Updated)
}

func (self *ipAddressRepository) Update(address *domain.IPAddress) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE ip_address SET
			credentials = $2, location = $3, mac_address = $4, name = $5,
			ping = $6, public_ip_id = $7, scan = $8, vm_id = $9,
			updated = now()
		WHERE id = $1
		RETURNING updated`,
		address.ID,
		address.Credentials, address.Location, address.MacAddress, address.Name,
		address.Ping, address.PublicIPID, address.Scan, address.VMID,
	).Scan(&address.Updated)
}

func (self *ipAddressRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(context.Background(), `DELETE FROM ip_address WHERE id = $1`, id)
	return
}

func (self *ipAddressRepository) CountByAddress(subnetID int, address string) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM ip_address WHERE subnet_id = $1 AND address = $2`,
		subnetID, address,
	).Scan(&count)
}

func (self *ipAddressRepository) CountNATBindings(publicIPID int) (count int, err error) {
	// A public IP serving as a virtual router's floating IP counts as bound.
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT (SELECT count(*) FROM ip_address WHERE public_ip_id = $1)
			+ (SELECT count(*) FROM virtual_router WHERE ip_address_id = $1)`,
		publicIPID,
	).Scan(&count)
}

func (self *ipAddressRepository) DeleteByVM(vmID int) ([]int, error) {
	publicIPs := []int{}
	if err := pgxscan.Select(
		context.Background(), self.Db, &publicIPs,
		`SELECT public_ip_id FROM ip_address WHERE vm_id = $1 AND public_ip_id IS NOT NULL`,
		vmID,
	); err != nil {
		return nil, err
	}

	_, err := self.Db.Exec(context.Background(), `DELETE FROM ip_address WHERE vm_id = $1`, vmID)
	return publicIPs, err
}

type ipAddressGroupRepository struct {
	Db config.PgxIface
}

func NewIPAddressGroupRepository(db config.PgxIface) repository.IPAddressGroupRepository {
	return &ipAddressGroupRepository{db}
}

func (self *ipAddressGroupRepository) WithQuerier(querier config.PgxIface) repository.IPAddressGroupRepository {
	return &ipAddressGroupRepository{querier}
}

func (self *ipAddressGroupRepository) GetByPage(page *repository.Page, filter repository.IPAddressGroupFilter, orderBy string) ([]domain.IPAddressGroup, error) {
	groups := []domain.IPAddressGroup{}
	cond := &conditions{}
	if filter.MemberID != nil {
		cond.eq("member_id", *filter.MemberID)
	}
	if filter.Name != nil {
		cond.eq("name", *filter.Name)
	}
	if filter.Version != nil {
		cond.eq("version", *filter.Version)
	}
	return groups, fetchPage(
		self.Db, page, &groups,
		"*", "ip_address_group"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *ipAddressGroupRepository) GetById(id int) (*domain.IPAddressGroup, error) {
	group := domain.IPAddressGroup{}
	err := pgxscan.Get(
		context.Background(), self.Db, &group,
		`SELECT * FROM ip_address_group WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &group, err
}

func (self *ipAddressGroupRepository) Save(group *domain.IPAddressGroup) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO ip_address_group (member_id, name, version, cidrs)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created, updated`,
		group.MemberID, group.Name, group.Version, group.Cidrs,
	).Scan(&group.ID, &group.Created, &group.Updated)
}

func (self *ipAddressGroupRepository) Update(group *domain.IPAddressGroup) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE ip_address_group SET name = $2, version = $3, cidrs = $4, updated = now()
		WHERE id = $1
		RETURNING updated`,
		group.ID, group.Name, group.Version, group.Cidrs,
	).Scan(&group.Updated)
}

func (self *ipAddressGroupRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(context.Background(), `DELETE FROM ip_address_group WHERE id = $1`, id)
	return
}
