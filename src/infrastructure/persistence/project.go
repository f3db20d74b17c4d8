package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type projectRepository struct {
	Db config.PgxIface
}

func NewProjectRepository(db config.PgxIface) repository.ProjectRepository {
	return &projectRepository{db}
}

func (self *projectRepository) WithQuerier(querier config.PgxIface) repository.ProjectRepository {
	return &projectRepository{querier}
}

// Stable states: RUNNING, QUIESCED, SCRUB_QUEUE, CLOSED.
const projectSelects = `project.*, vr.id AS virtual_router_id, infra.min_state, infra.max_state, coalesce(infra.stable, true) AS stable`

const projectFrom = `project
	LEFT JOIN virtual_router vr ON vr.project_id = project.id
	LEFT JOIN LATERAL (
		SELECT min(s.state) AS min_state, max(s.state) AS max_state,
			bool_and(s.state = ANY('{4,6,9,99}'::integer[])) AS stable
		FROM (
			SELECT state FROM vm WHERE vm.project_id = project.id
			UNION ALL SELECT state FROM resource WHERE resource.project_id = project.id
			UNION ALL SELECT state FROM virtual_router WHERE virtual_router.project_id = project.id
		) s
	) infra ON true`

func projectConditions(filter repository.ProjectFilter) *conditions {
	cond := &conditions{}
	if filter.RegionID != nil {
		cond.eq("project.region_id", *filter.RegionID)
	}
	if filter.AddressID != nil {
		cond.eq("project.address_id", *filter.AddressID)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("project.address_id", filter.AddressIDs)
	}
	if filter.Name != nil {
		cond.eq("project.name", *filter.Name)
	}
	if filter.Closed != nil {
		cond.eq("project.closed", *filter.Closed)
	}
	if filter.Archived != nil {
		cond.eq("project.archived", *filter.Archived)
	}
	if filter.ManagerID != nil {
		cond.eq("project.manager_id", *filter.ManagerID)
	}
	if filter.ResellerID != nil {
		cond.eq("project.reseller_id", *filter.ResellerID)
	}
	if filter.RunRobot != nil {
		cond.eq("project.run_robot", *filter.RunRobot)
	}
	return cond
}

func (self *projectRepository) GetByPage(page *repository.Page, filter repository.ProjectFilter, orderBy string) ([]domain.Project, error) {
	projects := []domain.Project{}
	cond := projectConditions(filter)
	return projects, fetchPage(
		self.Db, page, &projects,
		projectSelects, projectFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *projectRepository) GetById(id int) (*domain.Project, error) {
	project := domain.Project{}
	err := pgxscan.Get(
		context.Background(), self.Db, &project,
		`SELECT `+projectSelects+` FROM `+projectFrom+` WHERE project.id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &project, err
}

func (self *projectRepository) Save(project *domain.Project) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO project (address_id, grace_period, manager_id, name, note, region_id, reseller_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created, updated`,
		project.AddressID, project.GracePeriod, project.ManagerID,
		project.Name, project.Note, project.RegionID, project.ResellerID,
	).Scan(&project.ID, &project.Created, &project.Updated)
}

func (self *projectRepository) Update(project *domain.Project) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE project SET
			archived = $2, closed = $3, grace_period = $4, manager_id = $5,
			name = $6, note = $7, reseller_id = $8, run_icarus = $9, run_robot = $10,
			updated = now()
		WHERE id = $1
		RETURNING updated`,
		project.ID,
		project.Archived, project.Closed, project.GracePeriod, project.ManagerID,
		project.Name, project.Note, project.ResellerID, project.RunIcarus, project.RunRobot,
	).Scan(&project.Updated)
}

func (self *projectRepository) GetInfrastructureStates(projectID int) ([]domain.State, error) {
	states := []domain.State{}
	return states, pgxscan.Select(
		context.Background(), self.Db, &states,
		`SELECT state FROM vm WHERE project_id = $1
		UNION ALL SELECT state FROM resource WHERE project_id = $1
		UNION ALL SELECT state FROM virtual_router WHERE project_id = $1`,
		projectID,
	)
}

func (self *projectRepository) GetOpenByAddresses(addressIDs []int) ([]domain.Project, error) {
	projects := []domain.Project{}
	return projects, pgxscan.Select(
		context.Background(), self.Db, &projects,
		`SELECT `+projectSelects+` FROM `+projectFrom+
			` WHERE project.address_id = ANY($1) AND NOT project.closed ORDER BY project.id`,
		addressIDs,
	)
}

func (self *projectRepository) GetRunRobotByRegion(regionID int) ([]domain.Project, error) {
	projects := []domain.Project{}
	return projects, pgxscan.Select(
		context.Background(), self.Db, &projects,
		`SELECT `+projectSelects+` FROM `+projectFrom+
			` WHERE project.region_id = $1 AND project.run_robot ORDER BY project.updated`,
		regionID,
	)
}

func (self *projectRepository) SetRunRobotFlags(projectID int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`UPDATE project SET run_robot = true, run_icarus = true, updated = now() WHERE id = $1`,
		projectID,
	)
	return
}

func (self *projectRepository) ClearRunRobot(projectIDs []int, regionID int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`UPDATE project SET run_robot = false, updated = now() WHERE id = ANY($1) AND region_id = $2`,
		projectIDs, regionID,
	)
	return
}

func (self *projectRepository) CountByRegion(regionID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM project WHERE region_id = $1 AND NOT closed`,
		regionID,
	).Scan(&count)
}
