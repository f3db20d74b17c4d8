package service

import (
	"context"
	"io"
	"testing"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/strataops/iaas/src/domain"
)

func buildRunRobotService(t *testing.T) (pgxmock.PgxConnIface, RunRobotService) {
	db, err := pgxmock.NewConn()
	if err != nil {
		t.Fatalf("an error was not expected when opening a stub database connection: %q", err)
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	logger := zerolog.New(io.Discard)
	return db, NewRunRobotService(db, &logger)
}

func TestRunRobotRequiresRobot(t *testing.T) {
	t.Parallel()

	// given
	_, runRobotService := buildRunRobotService(t)
	requester := domain.Requester{ID: 5, AddressID: 10}

	// when
	_, listErr := runRobotService.GetWork(requester)
	turnOffErr := runRobotService.TurnOff(requester, []int{1})

	// then
	var apiErr domain.ApiError
	if assert.ErrorAs(t, listErr, &apiErr) {
		assert.Equal(t, "iaas_run_robot_list_201", apiErr.Code)
	}
	if assert.ErrorAs(t, turnOffErr, &apiErr) {
		assert.Equal(t, "iaas_run_robot_turn_off_201", apiErr.Code)
	}
}

func TestRunRobotGetWorkBuckets(t *testing.T) {
	t.Parallel()

	// given
	db, runRobotService := buildRunRobotService(t)
	robot := domain.Requester{ID: 8, AddressID: 3, Robot: true}

	processStates := []int{
		int(domain.StateRequested), int(domain.StateQuiesce), int(domain.StateQuiescedUpdate),
		int(domain.StateRestart), int(domain.StateRunningUpdate), int(domain.StateScrub),
	}

	db.ExpectQuery("SELECT project").
		WithArgs(3).
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "address_id", "region_id", "name"}).
				AddRow(7, 11, 3, "demo"),
		)
	db.ExpectQuery("SELECT").
		WithArgs([]int{7}, processStates).
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "state"}).
				AddRow(20, domain.StateRequested),
		)
	db.ExpectQuery("SELECT").
		WithArgs([]int{7}, processStates).
		WillReturnRows(
			pgxmock.NewRows([]string{"id", "state"}).
				AddRow(30, domain.StateQuiesce).
				AddRow(31, domain.StateScrub),
		)
	db.ExpectQuery("SELECT").
		WithArgs([]int{7}, processStates).
		WillReturnRows(pgxmock.NewRows([]string{"id", "state"}))
	db.ExpectQuery("SELECT").
		WithArgs([]int{7}, processStates).
		WillReturnRows(pgxmock.NewRows([]string{"id", "state"}))

	// when
	work, err := runRobotService.GetWork(robot)

	// then
	assert.Nil(t, err)
	if assert.NotNil(t, work) {
		assert.Equal(t, []int{7}, work.ProjectIDs)
		assert.Equal(t, []int{20}, work.VirtualRouters.Build)
		assert.Equal(t, []int{30}, work.VMs.Quiesce)
		assert.Equal(t, []int{31}, work.VMs.Scrub)
		assert.Empty(t, work.Snapshots.Build)
		assert.Empty(t, work.Backups.Scrub)
	}
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestRunRobotGetWorkOnlyFlaggedProjects(t *testing.T) {
	t.Parallel()

	// given no project in the region has run_robot set
	db, runRobotService := buildRunRobotService(t)
	db.ExpectQuery("SELECT project").
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "address_id", "region_id", "name"}))

	// when
	work, err := runRobotService.GetWork(domain.Requester{ID: 8, AddressID: 3, Robot: true})

	// then no infrastructure is handed out either
	assert.Nil(t, err)
	if assert.NotNil(t, work) {
		assert.Empty(t, work.ProjectIDs)
		assert.Empty(t, work.VirtualRouters.Build)
		assert.Empty(t, work.VMs.Quiesce)
	}
	assert.Nil(t, db.ExpectationsWereMet())
}

func TestRunRobotTurnOff(t *testing.T) {
	t.Parallel()

	t.Run("clears flags in the robot's region", func(t *testing.T) {
		t.Parallel()

		// given
		db, runRobotService := buildRunRobotService(t)
		db.ExpectExec("UPDATE project SET run_robot = false").
			WithArgs([]int{7, 8}, 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 2))

		// when
		err := runRobotService.TurnOff(domain.Requester{ID: 8, AddressID: 3, Robot: true}, []int{7, 8})

		// then
		assert.Nil(t, err)
		assert.Nil(t, db.ExpectationsWereMet())
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		t.Parallel()

		db, runRobotService := buildRunRobotService(t)

		err := runRobotService.TurnOff(domain.Requester{ID: 8, AddressID: 3, Robot: true}, nil)

		assert.Nil(t, err)
		assert.Nil(t, db.ExpectationsWereMet())
	})
}
