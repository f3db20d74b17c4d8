package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type serverRepository struct {
	Db config.PgxIface
}

func NewServerRepository(db config.PgxIface) repository.ServerRepository {
	return &serverRepository{db}
}

func (self *serverRepository) WithQuerier(querier config.PgxIface) repository.ServerRepository {
	return &serverRepository{querier}
}

// Usage sums count the guests not yet closed, oversubscribed vCPUs included.
const serverSelects = `server.*,
	coalesce(usage.vcpus_in_use, 0) AS vcpus_in_use,
	coalesce(usage.ram_in_use, 0) AS ram_in_use,
	coalesce(usage.gb_in_use, 0) AS gb_in_use`

const serverFrom = `server
	LEFT JOIN LATERAL (
		SELECT sum(vm.cpu) AS vcpus_in_use, sum(vm.ram) AS ram_in_use,
			(SELECT coalesce(sum(storage.gb), 0) FROM storage JOIN vm g ON g.id = storage.vm_id WHERE g.server_id = server.id AND g.state != 99) AS gb_in_use
		FROM vm WHERE vm.server_id = server.id AND vm.state != 99
	) usage ON true`

func serverConditions(filter repository.ServerFilter) *conditions {
	cond := &conditions{}
	if filter.RegionID != nil {
		cond.eq("server.region_id", *filter.RegionID)
	}
	if filter.Enabled != nil {
		cond.eq("server.enabled", *filter.Enabled)
	}
	if filter.TypeID != nil {
		cond.eq("server.type_id", *filter.TypeID)
	}
	if filter.StorageTypeID != nil {
		cond.eq("server.storage_type_id", *filter.StorageTypeID)
	}
	return cond
}

func (self *serverRepository) GetByPage(page *repository.Page, filter repository.ServerFilter, orderBy string) ([]domain.Server, error) {
	servers := []domain.Server{}
	cond := serverConditions(filter)
	return servers, fetchPage(
		self.Db, page, &servers,
		serverSelects, serverFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *serverRepository) GetById(id int) (*domain.Server, error) {
	server := domain.Server{}
	err := pgxscan.Get(
		context.Background(), self.Db, &server,
		`SELECT `+serverSelects+` FROM `+serverFrom+` WHERE server.id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &server, err
}

func (self *serverRepository) Save(server *domain.Server) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO server (asset_tag, cores, enabled, gb, model, ram, region_id, storage_type_id, type_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created, updated`,
		server.AssetTag, server.Cores, server.Enabled, server.GB, server.Model,
		server.RAM, server.RegionID, server.StorageTypeID, server.TypeID,
	).Scan(&server.ID, &server.Created, &server.Updated)
}

func (self *serverRepository) Update(server *domain.Server) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE server SET asset_tag = $2, enabled = $3, model = $4, updated = now()
		WHERE id = $1
		RETURNING updated`,
		server.ID, server.AssetTag, server.Enabled, server.Model,
	).Scan(&server.Updated)
}

func (self *serverRepository) GetCandidates(regionID, serverTypeID, storageTypeID int) ([]domain.Server, error) {
	servers := []domain.Server{}
	return servers, pgxscan.Select(
		context.Background(), self.Db, &servers,
		`SELECT `+serverSelects+` FROM `+serverFrom+`
		WHERE server.region_id = $1 AND server.type_id = $2 AND server.storage_type_id = $3 AND server.enabled
		ORDER BY server.id`,
		regionID, serverTypeID, storageTypeID,
	)
}

func (self *serverRepository) GetInterfaces(serverID int) ([]domain.Interface, error) {
	interfaces := []domain.Interface{}
	return interfaces, pgxscan.Select(
		context.Background(), self.Db, &interfaces,
		`SELECT * FROM server_interface WHERE server_id = $1 ORDER BY id`,
		serverID,
	)
}

func (self *serverRepository) SaveInterface(iface *domain.Interface) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO server_interface (server_id, mac_address, details, enabled)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created, updated`,
		iface.ServerID, iface.MacAddress, iface.Details, iface.Enabled,
	).Scan(&iface.ID, &iface.Created, &iface.Updated)
}

func (self *serverRepository) CountEnabledByRegion(regionID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM server WHERE region_id = $1 AND enabled`,
		regionID,
	).Scan(&count)
}

func (self *serverRepository) CountByRegion(regionID int, enabledOnly bool) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM server WHERE region_id = $1 AND (NOT $2 OR enabled)`,
		regionID, enabledOnly,
	).Scan(&count)
}

type serverTypeRepository struct {
	Db config.PgxIface
}

func NewServerTypeRepository(db config.PgxIface) repository.ServerTypeRepository {
	return &serverTypeRepository{db}
}

func (self *serverTypeRepository) WithQuerier(querier config.PgxIface) repository.ServerTypeRepository {
	return &serverTypeRepository{querier}
}

func (self *serverTypeRepository) GetAll() ([]domain.ServerType, error) {
	types := []domain.ServerType{}
	return types, pgxscan.Select(
		context.Background(), self.Db, &types,
		`SELECT * FROM server_type ORDER BY id`,
	)
}

func (self *serverTypeRepository) GetById(id int) (*domain.ServerType, error) {
	serverType := domain.ServerType{}
	err := pgxscan.Get(
		context.Background(), self.Db, &serverType,
		`SELECT * FROM server_type WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &serverType, err
}

type storageTypeRepository struct {
	Db config.PgxIface
}

func NewStorageTypeRepository(db config.PgxIface) repository.StorageTypeRepository {
	return &storageTypeRepository{db}
}

func (self *storageTypeRepository) WithQuerier(querier config.PgxIface) repository.StorageTypeRepository {
	return &storageTypeRepository{querier}
}

func (self *storageTypeRepository) GetAll() ([]domain.StorageType, error) {
	types := []domain.StorageType{}
	return types, pgxscan.Select(
		context.Background(), self.Db, &types,
		`SELECT * FROM storage_type ORDER BY id`,
	)
}

func (self *storageTypeRepository) GetById(id int) (*domain.StorageType, error) {
	storageType := domain.StorageType{}
	err := pgxscan.Get(
		context.Background(), self.Db, &storageType,
		`SELECT * FROM storage_type WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &storageType, err
}

func (self *storageTypeRepository) OfferedInRegion(storageTypeID, regionID int) (offered bool, err error) {
	return offered, self.Db.QueryRow(
		context.Background(),
		`SELECT exists(SELECT 1 FROM server WHERE storage_type_id = $1 AND region_id = $2 AND enabled)`,
		storageTypeID, regionID,
	).Scan(&offered)
}
