package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type imageRepository struct {
	Db config.PgxIface
}

func NewImageRepository(db config.PgxIface) repository.ImageRepository {
	return &imageRepository{db}
}

func (self *imageRepository) WithQuerier(querier config.PgxIface) repository.ImageRepository {
	return &imageRepository{querier}
}

func imageConditions(filter repository.ImageFilter) *conditions {
	cond := &conditions{}
	if filter.ServerTypeID != nil {
		cond.eq("image.server_type_id", *filter.ServerTypeID)
	}
	if filter.Public != nil {
		cond.eq("image.public", *filter.Public)
	}
	if filter.RegionID != nil {
		cond.expr("image.id IN (SELECT image_id FROM region_image WHERE region_id = $%d)", *filter.RegionID)
	}
	return cond
}

func (self *imageRepository) GetByPage(page *repository.Page, filter repository.ImageFilter, orderBy string) ([]domain.Image, error) {
	images := []domain.Image{}
	cond := imageConditions(filter)
	if err := fetchPage(
		self.Db, page, &images,
		"image.*", "image"+cond.where(), orderBy,
		cond.args...,
	); err != nil {
		return nil, err
	}

	for i := range images {
		regions, err := self.GetRegions(images[i].ID)
		if err != nil {
			return nil, err
		}
		images[i].Regions = regions
	}
	return images, nil
}

func (self *imageRepository) GetById(id int) (*domain.Image, error) {
	image := domain.Image{}
	err := pgxscan.Get(
		context.Background(), self.Db, &image,
		`SELECT * FROM image WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	image.Regions, err = self.GetRegions(image.ID)
	return &image, err
}

func (self *imageRepository) GetRegions(imageID int) ([]int, error) {
	regions := []int{}
	return regions, pgxscan.Select(
		context.Background(), self.Db, &regions,
		`SELECT region_id FROM region_image WHERE image_id = $1 ORDER BY region_id`,
		imageID,
	)
}

func (self *imageRepository) AvailableInRegion(imageID, regionID int) (available bool, err error) {
	return available, self.Db.QueryRow(
		context.Background(),
		`SELECT exists(SELECT 1 FROM region_image WHERE image_id = $1 AND region_id = $2)`,
		imageID, regionID,
	).Scan(&available)
}

func (self *imageRepository) BindRegion(imageID, regionID int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`INSERT INTO region_image (image_id, region_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		imageID, regionID,
	)
	return
}

func (self *imageRepository) UnbindRegion(imageID, regionID int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`DELETE FROM region_image WHERE image_id = $1 AND region_id = $2`,
		imageID, regionID,
	)
	return
}
