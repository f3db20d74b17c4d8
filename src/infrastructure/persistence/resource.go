package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type resourceRepository struct {
	Db config.PgxIface
}

func NewResourceRepository(db config.PgxIface) repository.ResourceRepository {
	return &resourceRepository{db}
}

func (self *resourceRepository) WithQuerier(querier config.PgxIface) repository.ResourceRepository {
	return &resourceRepository{querier}
}

const resourceFrom = `resource JOIN project ON project.id = resource.project_id`

func (self *resourceRepository) GetByPage(page *repository.Page, filter repository.ResourceFilter, orderBy string) ([]domain.Resource, error) {
	resources := []domain.Resource{}
	cond := &conditions{}
	if filter.ProjectID != nil {
		cond.eq("resource.project_id", *filter.ProjectID)
	}
	if filter.ParentID != nil {
		cond.eq("resource.parent_id", *filter.ParentID)
	}
	if filter.State != nil {
		cond.eq("resource.state", int(*filter.State))
	}
	if filter.Name != nil {
		cond.eq("resource.name", *filter.Name)
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
	if filter.ResourceType != nil {
		cond.eq("resource.resource_type", int(*filter.ResourceType))
	}
	return resources, fetchPage(
		self.Db, page, &resources,
		"resource.*", resourceFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *resourceRepository) GetById(id int) (*domain.Resource, error) {
	resource := domain.Resource{}
	err := pgxscan.Get(
		context.Background(), self.Db, &resource,
		`SELECT * FROM resource WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &resource, err
}

func (self *resourceRepository) GetByProject(projectID int) ([]domain.Resource, error) {
	resources := []domain.Resource{}
	return resources, pgxscan.Select(
		context.Background(), self.Db, &resources,
		`SELECT * FROM resource WHERE project_id = $1 ORDER BY id`,
		projectID,
	)
}

func (self *resourceRepository) Save(resource *domain.Resource) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO resource (name, parent_id, project_id, resource_type, state, specs)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created, updated`,
		resource.Name, resource.ParentID, resource.ProjectID,
		int(resource.ResourceType), int(resource.State), resource.Specs,
	).Scan(&resource.ID, &resource.Created, &resource.Updated)
}

func (self *resourceRepository) Update(resource *domain.Resource) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE resource SET name = $2, parent_id = $3, state = $4, specs = $5, updated = now()
		WHERE id = $1
		RETURNING updated`,
		resource.ID, resource.Name, resource.ParentID, int(resource.State), resource.Specs,
	).Scan(&resource.Updated)
}

func (self *resourceRepository) CountNameInRegion(name string, resourceType domain.ResourceType, addressID, regionID, excludeID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM `+resourceFrom+`
		WHERE resource.name = $1 AND resource.resource_type = $2
			AND project.address_id = $3 AND project.region_id = $4
			AND resource.state != 99 AND resource.id != $5`,
		name, int(resourceType), addressID, regionID, excludeID,
	).Scan(&count)
}

func (self *resourceRepository) CountByStateInRegion(regionID int) (map[domain.State]int, error) {
	return stateCounts(
		self.Db,
		`SELECT resource.state, count(*) FROM `+resourceFrom+` WHERE project.region_id = $1 GROUP BY resource.state`,
		regionID,
	)
}
