package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type vmRepository struct {
	Db config.PgxIface
}

func NewVmRepository(db config.PgxIface) repository.VmRepository {
	return &vmRepository{db}
}

func (self *vmRepository) WithQuerier(querier config.PgxIface) repository.VmRepository {
	return &vmRepository{querier}
}

const vmFrom = `vm JOIN project ON project.id = vm.project_id`

func vmConditions(filter repository.VmFilter) *conditions {
	cond := &conditions{}
	if filter.ProjectID != nil {
		cond.eq("vm.project_id", *filter.ProjectID)
	}
	if filter.ServerID != nil {
		cond.eq("vm.server_id", *filter.ServerID)
	}
	if filter.State != nil {
		cond.eq("vm.state", *filter.State)
	}
	if filter.ImageID != nil {
		cond.eq("vm.image_id", *filter.ImageID)
	}
	if filter.Name != nil {
		cond.eq("vm.name", *filter.Name)
	}
	if filter.RegionID != nil {
		cond.eq("project.region_id", *filter.RegionID)
	}
	if filter.AddressID != nil {
		cond.eq("project.address_id", *filter.AddressID)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("project.address_id", filter.AddressIDs)
	}
	return cond
}

func (self *vmRepository) GetByPage(page *repository.Page, filter repository.VmFilter, orderBy string) ([]domain.VM, error) {
	vms := []domain.VM{}
	cond := vmConditions(filter)
	return vms, fetchPage(
		self.Db, page, &vms,
		"vm.*", vmFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *vmRepository) GetById(id int) (*domain.VM, error) {
	vm := domain.VM{}
	err := pgxscan.Get(
		context.Background(), self.Db, &vm,
		`SELECT * FROM vm WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &vm, err
}

func (self *vmRepository) GetByProject(projectID int) ([]domain.VM, error) {
	vms := []domain.VM{}
	return vms, pgxscan.Select(
		context.Background(), self.Db, &vms,
		`SELECT * FROM vm WHERE project_id = $1 ORDER BY id`,
		projectID,
	)
}

func (self *vmRepository) GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.VM, error) {
	vms := []domain.VM{}
	return vms, pgxscan.Select(
		context.Background(), self.Db, &vms,
		`SELECT * FROM vm WHERE project_id = ANY($1) AND state = ANY($2)`,
		projectIDs, stateInts(states),
	)
}

func (self *vmRepository) Save(vm *domain.VM) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO vm (cpu, dns, gateway_subnet_id, gpu, image_id, name, project_id, public_key, ram, server_id, state, userdata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, guid, created, updated`,
		vm.CPU, vm.DNS, vm.GatewaySubnetID, vm.GPU, vm.ImageID, vm.Name,
		vm.ProjectID, vm.PublicKey, vm.RAM, vm.ServerID, vm.State, vm.Userdata,
	).Scan(&vm.ID, &vm.GUID, &vm.Created, &vm.Updated)
}

func (self *vmRepository) Update(vm *domain.VM) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE vm SET
			cpu = $2, dns = $3, gateway_subnet_id = $4, gpu = $5, name = $6,
			public_key = $7, ram = $8, state = $9, userdata = $10,
			updated = now()
		WHERE id = $1
		RETURNING updated`,
		vm.ID,
		vm.CPU, vm.DNS, vm.GatewaySubnetID, vm.GPU, vm.Name,
		vm.PublicKey, vm.RAM, vm.State, vm.Userdata,
	).Scan(&vm.Updated)
}

func (self *vmRepository) CountNameInProject(name string, projectID, excludeID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM vm WHERE name = $1 AND project_id = $2 AND state != 99 AND id != $3`,
		name, projectID, excludeID,
	).Scan(&count)
}

func (self *vmRepository) GetStorages(vmID int) ([]domain.Storage, error) {
	storages := []domain.Storage{}
	return storages, pgxscan.Select(
		context.Background(), self.Db, &storages,
		`SELECT * FROM storage WHERE vm_id = $1 ORDER BY id`,
		vmID,
	)
}

func (self *vmRepository) SaveStorage(storage *domain.Storage) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO storage (vm_id, name, gb, is_primary)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created, updated`,
		storage.VMID, storage.Name, storage.GB, storage.Primary,
	).Scan(&storage.ID, &storage.Created, &storage.Updated)
}

func (self *vmRepository) UpdateStorage(storage *domain.Storage) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE storage SET name = $2, gb = $3, updated = now() WHERE id = $1 RETURNING updated`,
		storage.ID, storage.Name, storage.GB,
	).Scan(&storage.Updated)
}

func (self *vmRepository) GetHistoryByPage(vmID int, page *repository.Page) ([]domain.VMHistory, error) {
	history := []domain.VMHistory{}
	return history, fetchPage(
		self.Db, page, &history,
		"*", "vm_history WHERE vm_id = $1", "created DESC",
		vmID,
	)
}

func (self *vmRepository) SaveHistory(history *domain.VMHistory) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO vm_history (vm_id, state, customer_address, project_vm_name, skus)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created`,
		history.VMID, history.State, history.CustomerAddress, history.ProjectVMName, history.Skus,
	).Scan(&history.ID, &history.Created)
}

func (self *vmRepository) CountByStateInRegion(regionID int) (map[domain.State]int, error) {
	return stateCounts(
		self.Db,
		`SELECT vm.state, count(*) FROM `+vmFrom+` WHERE project.region_id = $1 GROUP BY vm.state`,
		regionID,
	)
}

// stateCounts is shared by the per-region metric queries.
func stateCounts(db config.PgxIface, query string, regionID int) (map[domain.State]int, error) {
	counts := map[domain.State]int{}

	rows, err := db.Query(context.Background(), query, regionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var state domain.State
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[state] = count
	}
	return counts, rows.Err()
}
