package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type subnetRepository struct {
	Db config.PgxIface
}

func NewSubnetRepository(db config.PgxIface) repository.SubnetRepository {
	return &subnetRepository{db}
}

func (self *subnetRepository) WithQuerier(querier config.PgxIface) repository.SubnetRepository {
	return &subnetRepository{querier}
}

func (self *subnetRepository) GetByPage(page *repository.Page, filter repository.SubnetFilter, orderBy string) ([]domain.Subnet, error) {
	subnets := []domain.Subnet{}
	cond := &conditions{}
	if filter.AllocationID != nil {
		cond.eq("allocation_id", *filter.AllocationID)
	}
	if filter.AddressID != nil {
		cond.eq("address_id", *filter.AddressID)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("address_id", filter.AddressIDs)
	}
	if filter.VirtualRouterID != nil {
		cond.eq("virtual_router_id", *filter.VirtualRouterID)
	}
	if filter.ParentID != nil {
		cond.eq("parent_id", *filter.ParentID)
	}
	return subnets, fetchPage(
		self.Db, page, &subnets,
		"*", "subnet"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *subnetRepository) GetById(id int) (*domain.Subnet, error) {
	subnet := domain.Subnet{}
	err := pgxscan.Get(
		context.Background(), self.Db, &subnet,
		`SELECT * FROM subnet WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &subnet, err
}

func (self *subnetRepository) GetByAllocation(allocationID int) ([]domain.Subnet, error) {
	subnets := []domain.Subnet{}
	return subnets, pgxscan.Select(
		context.Background(), self.Db, &subnets,
		`SELECT * FROM subnet WHERE allocation_id = $1 ORDER BY id`,
		allocationID,
	)
}

func (self *subnetRepository) GetByVirtualRouter(virtualRouterID int) ([]domain.Subnet, error) {
	subnets := []domain.Subnet{}
	return subnets, pgxscan.Select(
		context.Background(), self.Db, &subnets,
		`SELECT * FROM subnet WHERE virtual_router_id = $1 ORDER BY id`,
		virtualRouterID,
	)
}

func (self *subnetRepository) GetByRange(addressRange string) (*domain.Subnet, error) {
	subnet := domain.Subnet{}
	err := pgxscan.Get(
		context.Background(), self.Db, &subnet,
		`SELECT * FROM subnet WHERE address_range = $1`,
		addressRange,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &subnet, err
}

func (self *subnetRepository) Save(subnet *domain.Subnet) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO subnet (address_id, address_range, allocation_id, gateway, name, parent_id, virtual_router_id, vlan, vxlan)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created, updated`,
		subnet.AddressID, subnet.AddressRange, subnet.AllocationID, subnet.Gateway,
		subnet.Name, subnet.ParentID, subnet.VirtualRouterID, subnet.VLAN, subnet.VxLAN,
	).Scan(&subnet.ID, &subnet.Created, &subnet.Updated)
}

func (self *subnetRepository) Update(subnet *domain.Subnet) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE subnet SET address_range = $2, gateway = $3, name = $4, updated = now()
		WHERE id = $1
		RETURNING updated`,
		subnet.ID, subnet.AddressRange, subnet.Gateway, subnet.Name,
	).Scan(&subnet.Updated)
}

func (self *subnetRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(context.Background(), `DELETE FROM subnet WHERE id = $1`, id)
	return
}

func (self *subnetRepository) CountIPAddresses(subnetID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM ip_address WHERE subnet_id = $1`,
		subnetID,
	).Scan(&count)
}

func (self *subnetRepository) CountChildren(subnetID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM subnet WHERE parent_id = $1`,
		subnetID,
	).Scan(&count)
}

func (self *subnetRepository) GetVLANsInUse(routerID int) ([]int, error) {
	vlans := []int{}
	return vlans, pgxscan.Select(
		context.Background(), self.Db, &vlans,
		`SELECT subnet.vlan FROM subnet
		JOIN virtual_router ON virtual_router.id = subnet.virtual_router_id
		WHERE virtual_router.router_id = $1 AND subnet.vlan IS NOT NULL`,
		routerID,
	)
}
