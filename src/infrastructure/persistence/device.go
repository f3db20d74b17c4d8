package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type deviceRepository struct {
	Db config.PgxIface
}

func NewDeviceRepository(db config.PgxIface) repository.DeviceRepository {
	return &deviceRepository{db}
}

func (self *deviceRepository) WithQuerier(querier config.PgxIface) repository.DeviceRepository {
	return &deviceRepository{querier}
}

func (self *deviceRepository) GetByPage(page *repository.Page, filter repository.DeviceFilter, orderBy string) ([]domain.Device, error) {
	devices := []domain.Device{}
	cond := &conditions{}
	if filter.ServerID != nil {
		cond.eq("server_id", *filter.ServerID)
	}
	if filter.VMID != nil {
		cond.eq("vm_id", *filter.VMID)
	}
	if filter.DeviceTypeID != nil {
		cond.eq("device_type_id", *filter.DeviceTypeID)
	}
	return devices, fetchPage(
		self.Db, page, &devices,
		"*", "device"+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *deviceRepository) GetById(id int) (*domain.Device, error) {
	device := domain.Device{}
	err := pgxscan.Get(
		context.Background(), self.Db, &device,
		`SELECT * FROM device WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &device, err
}

func (self *deviceRepository) GetByVM(vmID int) ([]domain.Device, error) {
	devices := []domain.Device{}
	return devices, pgxscan.Select(
		context.Background(), self.Db, &devices,
		`SELECT * FROM device WHERE vm_id = $1 ORDER BY id`,
		vmID,
	)
}

func (self *deviceRepository) GetFreeByServer(serverID int) ([]domain.Device, error) {
	devices := []domain.Device{}
	return devices, pgxscan.Select(
		context.Background(), self.Db, &devices,
		`SELECT * FROM device WHERE server_id = $1 AND vm_id IS NULL ORDER BY id`,
		serverID,
	)
}

func (self *deviceRepository) Save(device *domain.Device) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO device (device_type_id, id_on_host, server_id)
		VALUES ($1, $2, $3)
		RETURNING id, created, updated`,
		device.DeviceTypeID, device.IDOnHost, device.ServerID,
	).Scan(&device.ID, &device.Created, &device.Updated)
}

func (self *deviceRepository) Update(device *domain.Device) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE device SET id_on_host = $2, vm_id = $3, updated = now() WHERE id = $1 RETURNING updated`,
		device.ID, device.IDOnHost, device.VMID,
	).Scan(&device.Updated)
}

func (self *deviceRepository) AssignToVM(deviceIDs []int, vmID int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`UPDATE device SET vm_id = $2, updated = now() WHERE id = ANY($1)`,
		deviceIDs, vmID,
	)
	return
}

func (self *deviceRepository) ReleaseByVM(vmID int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`UPDATE device SET vm_id = NULL, updated = now() WHERE vm_id = $1`,
		vmID,
	)
	return
}

type deviceTypeRepository struct {
	Db config.PgxIface
}

func NewDeviceTypeRepository(db config.PgxIface) repository.DeviceTypeRepository {
	return &deviceTypeRepository{db}
}

func (self *deviceTypeRepository) WithQuerier(querier config.PgxIface) repository.DeviceTypeRepository {
	return &deviceTypeRepository{querier}
}

func (self *deviceTypeRepository) GetAll() ([]domain.DeviceType, error) {
	types := []domain.DeviceType{}
	return types, pgxscan.Select(
		context.Background(), self.Db, &types,
		`SELECT * FROM device_type ORDER BY id`,
	)
}

func (self *deviceTypeRepository) GetById(id int) (*domain.DeviceType, error) {
	deviceType := domain.DeviceType{}
	err := pgxscan.Get(
		context.Background(), self.Db, &deviceType,
		`SELECT * FROM device_type WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &deviceType, err
}
