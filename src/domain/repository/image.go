package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type ImageFilter struct {
	ServerTypeID *int
	RegionID     *int
	Public       *bool
}

type ImageRepository interface {
	WithQuerier(config.PgxIface) ImageRepository

	GetByPage(*Page, ImageFilter, string) ([]domain.Image, error)
	GetById(int) (*domain.Image, error)

	GetRegions(imageID int) ([]int, error)
	AvailableInRegion(imageID, regionID int) (bool, error)
	BindRegion(imageID, regionID int) error
	UnbindRegion(imageID, regionID int) error
}
