package repository

import (
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
)

type ProjectFilter struct {
	RegionID   *int
	AddressID  *int
	AddressIDs []int
	Name       *string
	Closed     *bool
	Archived   *bool
	ManagerID  *int
	ResellerID *int
	RunRobot   *bool
}

type ProjectRepository interface {
	WithQuerier(config.PgxIface) ProjectRepository

	GetByPage(*Page, ProjectFilter, string) ([]domain.Project, error)
	GetById(int) (*domain.Project, error)
	Save(*domain.Project) error
	Update(*domain.Project) error

	// GetOpenByAddresses returns the non-closed projects of the addresses.
	GetOpenByAddresses(addressIDs []int) ([]domain.Project, error)

	// GetRunRobotByRegion returns the region's projects flagged for a
	// robot sweep, oldest update first.
	GetRunRobotByRegion(regionID int) ([]domain.Project, error)

	// GetInfrastructureStates returns the states of all robot-managed
	// infrastructure of the project.
	GetInfrastructureStates(projectID int) ([]domain.State, error)

	// SetRunRobotFlags raises run_robot and run_icarus on the project.
	SetRunRobotFlags(projectID int) error

	// ClearRunRobot lowers run_robot on the given projects of a region.
	ClearRunRobot(projectIDs []int, regionID int) error

	CountByRegion(regionID int) (int, error)
}
