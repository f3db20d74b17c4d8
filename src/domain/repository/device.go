package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type DeviceFilter struct {
	ServerID     *int
	VMID         *int
	DeviceTypeID *int
}

type DeviceRepository interface {
	WithQuerier(config.PgxIface) DeviceRepository

	GetByPage(*Page, DeviceFilter, string) ([]domain.Device, error)
	GetById(int) (*domain.Device, error)
	GetByVM(vmID int) ([]domain.Device, error)
	GetFreeByServer(serverID int) ([]domain.Device, error)
	Save(*domain.Device) error
	Update(*domain.Device) error

	AssignToVM(deviceIDs []int, vmID int) error
	ReleaseByVM(vmID int) error
}

type DeviceTypeRepository interface {
	WithQuerier(config.PgxIface) DeviceTypeRepository

	GetAll() ([]domain.DeviceType, error)
	GetById(int) (*domain.DeviceType, error)
}
