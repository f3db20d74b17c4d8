package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type routerRepository struct {
	Db config.PgxIface
}

func NewRouterRepository(db config.PgxIface) repository.RouterRepository {
	return &routerRepository{db}
}

func (self *routerRepository) WithQuerier(querier config.PgxIface) repository.RouterRepository {
	return &routerRepository{querier}
}

const routerSelects = `router.*,
	(SELECT count(*) FROM virtual_router WHERE virtual_router.router_id = router.id) AS projects_in_use`

func (self *routerRepository) GetByPage(page *repository.Page, filter repository.RouterFilter, orderBy string) ([]domain.Router, error) {
	routers := []domain.Router{}
	cond := &conditions{}
	if filter.RegionID != nil {
		cond.eq("router.region_id", *filter.RegionID)
	}
	if filter.Enabled != nil {
		cond.eq("router.enabled", *filter.Enabled)
	}
	return routers, fetchPage(
		self.Db, page, &routers,
		routerSelects, "router"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *routerRepository) GetById(id int) (*domain.Router, error) {
	router := domain.Router{}
	err := pgxscan.Get(
		context.Background(), self.Db, &router,
		`SELECT `+routerSelects+` FROM router WHERE router.id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &router, err
}

func (self *routerRepository) Save(router *domain.Router) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO router (region_id, asset_tag, capacity, credentials, enabled, username, vlans, public_subnets)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created, updated`,
		router.RegionID, router.AssetTag, router.Capacity, router.Credentials,
		router.Enabled, router.Username, router.VLANs, router.PublicSubnets,
	).Scan(&router.ID, &router.Created, &router.Updated)
}

func (self *routerRepository) Update(router *domain.Router) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE router SET
			asset_tag = $2, capacity = $3, credentials = $4, enabled = $5,
			username = $6, vlans = $7, public_subnets = $8,
			updated = now()
		WHERE id = $1
		RETURNING updated`,
		router.ID,
		router.AssetTag, router.Capacity, router.Credentials, router.Enabled,
		router.Username, router.VLANs, router.PublicSubnets,
	).Scan(&router.Updated)
}

func (self *routerRepository) GetLeastUsedEnabledByRegion(regionID int) (*domain.Router, error) {
	router := domain.Router{}
	err := pgxscan.Get(
		context.Background(), self.Db, &router,
		`SELECT `+routerSelects+` FROM router
		WHERE router.region_id = $1 AND router.enabled
			AND (router.capacity IS NULL
				OR (SELECT count(*) FROM virtual_router WHERE virtual_router.router_id = router.id) < router.capacity)
		ORDER BY projects_in_use ASC, router.id ASC
		LIMIT 1`,
		regionID,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &router, err
}

type virtualRouterRepository struct {
	Db config.PgxIface
}

func NewVirtualRouterRepository(db config.PgxIface) repository.VirtualRouterRepository {
	return &virtualRouterRepository{db}
}

func (self *virtualRouterRepository) WithQuerier(querier config.PgxIface) repository.VirtualRouterRepository {
	return &virtualRouterRepository{querier}
}

const virtualRouterFrom = `virtual_router JOIN project ON project.id = virtual_router.project_id`

func (self *virtualRouterRepository) GetByPage(page *repository.Page, filter repository.VirtualRouterFilter, orderBy string) ([]domain.VirtualRouter, error) {
	routers := []domain.VirtualRouter{}
	cond := &conditions{}
	if filter.ProjectID != nil {
		cond.eq("virtual_router.project_id", *filter.ProjectID)
	}
	if filter.RouterID != nil {
		cond.eq("virtual_router.router_id", *filter.RouterID)
	}
	if filter.State != nil {
		cond.eq("virtual_router.state", int(*filter.State))
	}
	if filter.RegionID != nil {
		cond.eq("project.region_id", *filter.RegionID)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("project.address_id", filter.AddressIDs)
	}
	return routers, fetchPage(
		self.Db, page, &routers,
		"virtual_router.*", virtualRouterFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *virtualRouterRepository) GetById(id int) (*domain.VirtualRouter, error) {
	router := domain.VirtualRouter{}
	err := pgxscan.Get(
		context.Background(), self.Db, &router,
		`SELECT * FROM virtual_router WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &router, err
}

func (self *virtualRouterRepository) GetByProject(projectID int) (*domain.VirtualRouter, error) {
	router := domain.VirtualRouter{}
	err := pgxscan.Get(
		context.Background(), self.Db, &router,
		`SELECT * FROM virtual_router WHERE project_id = $1`,
		projectID,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &router, err
}

func (self *virtualRouterRepository) GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.VirtualRouter, error) {
	routers := []domain.VirtualRouter{}
	return routers, pgxscan.Select(
		context.Background(), self.Db, &routers,
		`SELECT * FROM virtual_router WHERE project_id = ANY($1) AND state = ANY($2)`,
		projectIDs, stateInts(states),
	)
}

func (self *virtualRouterRepository) Save(router *domain.VirtualRouter) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO virtual_router (ip_address_id, project_id, router_id, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created, updated`,
		router.IPAddressID, router.ProjectID, router.RouterID, int(router.State),
	).Scan(&router.ID, &router.Created, &router.Updated)
}

func (self *virtualRouterRepository) Update(router *domain.VirtualRouter) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE virtual_router SET ip_address_id = $2, router_id = $3, state = $4, updated = now()
		WHERE id = $1
		RETURNING updated`,
		router.ID, router.IPAddressID, router.RouterID, int(router.State),
	).Scan(&router.Updated)
}

func (self *virtualRouterRepository) CountByStateInRegion(regionID int) (map[domain.State]int, error) {
	return stateCounts(
		self.Db,
		`SELECT virtual_router.state, count(*) FROM `+virtualRouterFrom+` WHERE project.region_id = $1 GROUP BY virtual_router.state`,
		regionID,
	)
}
