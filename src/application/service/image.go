package service

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type ImageService interface {
	WithQuerier(config.PgxIface) ImageService

	GetByPage(*repository.Page, repository.ImageFilter) ([]domain.Image, error)
	GetById(int) (*domain.Image, error)

	GetRegions(domain.Requester, int) ([]int, error)
	BindRegion(requester domain.Requester, imageID int) error
	UnbindRegion(requester domain.Requester, imageID int) error
}

type imageService struct {
	logger          zerolog.Logger
	imageRepository repository.ImageRepository
}

func NewImageService(db config.PgxIface, logger *zerolog.Logger) ImageService {
	return &imageService{
		logger:          logger.With().Str("component", "ImageService").Logger(),
		imageRepository: persistence.NewImageRepository(db),
	}
}

func (self *imageService) WithQuerier(querier config.PgxIface) ImageService {
	return &imageService{
		logger:          self.logger,
		imageRepository: self.imageRepository.WithQuerier(querier),
	}
}

// The image catalog is public.
var imageOrders = map[string]string{
	"id":             "image.id",
	"display_name":   "image.display_name",
	"server_type_id": "image.server_type_id",
}

func (self *imageService) GetByPage(page *repository.Page, filter repository.ImageFilter) (images []domain.Image, err error) {
	self.logger.Trace().Msg("Listing Images")
	images, err = self.imageRepository.GetByPage(page, filter, page.OrderBy(imageOrders, "image.id"))
	err = errors.WithMessage(err, "Could not select Images")
	return
}

func (self *imageService) GetById(id int) (*domain.Image, error) {
	self.logger.Trace().Int("id", id).Msg("Getting Image by ID")
	image, err := self.imageRepository.GetById(id)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Image %d", id)
	}
	if image == nil {
		return nil, domain.NewApiError("iaas_image_read_001")
	}
	return image, nil
}

func (self *imageService) GetRegions(requester domain.Requester, imageID int) ([]int, error) {
	if _, err := self.GetById(imageID); err != nil {
		return nil, err
	}
	regions, err := self.imageRepository.GetRegions(imageID)
	return regions, errors.WithMessagef(err, "Could not select regions of Image %d", imageID)
}

// Region bindings are managed by the region robot for its own region.
func (self *imageService) BindRegion(requester domain.Requester, imageID int) error {
	if !requester.Robot {
		return domain.NewApiError("iaas_region_image_create_201")
	}
	image, err := self.imageRepository.GetById(imageID)
	if err != nil {
		return errors.WithMessagef(err, "Could not select Image %d", imageID)
	}
	if image == nil {
		return domain.FieldErrors{"image_id": domain.NewApiError("iaas_region_image_create_101")}
	}
	if err := self.imageRepository.BindRegion(imageID, requester.RegionID()); err != nil {
		return errors.WithMessagef(err, "Could not bind Image %d to region %d", imageID, requester.RegionID())
	}
	self.logger.Debug().Int("image_id", imageID).Int("region_id", requester.RegionID()).Msg("Bound Image to region")
	return nil
}

func (self *imageService) UnbindRegion(requester domain.Requester, imageID int) error {
	if !requester.Robot {
		return domain.NewApiError("iaas_region_image_create_201")
	}
	if available, err := self.imageRepository.AvailableInRegion(imageID, requester.RegionID()); err != nil {
		return errors.WithMessagef(err, "Could not check region availability of Image %d", imageID)
	} else if !available {
		return domain.NewApiError("iaas_region_image_delete_001")
	}
	return errors.WithMessagef(
		self.imageRepository.UnbindRegion(imageID, requester.RegionID()),
		"Could not unbind Image %d from region %d", imageID, requester.RegionID(),
	)
}
