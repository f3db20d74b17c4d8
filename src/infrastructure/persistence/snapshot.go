package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type snapshotRepository struct {
	Db config.PgxIface
}

func NewSnapshotRepository(db config.PgxIface) repository.SnapshotRepository {
	return &snapshotRepository{db}
}

func (self *snapshotRepository) WithQuerier(querier config.PgxIface) repository.SnapshotRepository {
	return &snapshotRepository{querier}
}

const snapshotFrom = `snapshot
	JOIN vm ON vm.id = snapshot.vm_id
	JOIN project ON project.id = vm.project_id`

func (self *snapshotRepository) GetByPage(page *repository.Page, filter repository.SnapshotFilter, orderBy string) ([]domain.Snapshot, error) {
	snapshots := []domain.Snapshot{}
	cond := &conditions{}
	if filter.VMID != nil {
		cond.eq("snapshot.vm_id", *filter.VMID)
	}
	if filter.State != nil {
		cond.eq("snapshot.state", int(*filter.State))
	}
	if filter.Active != nil {
		cond.eq("snapshot.active", *filter.Active)
	}
	if filter.ProjectID != nil {
		cond.eq("vm.project_id", *filter.ProjectID)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("project.address_id", filter.AddressIDs)
	}
	if filter.RegionID != nil {
		cond.eq("project.region_id", *filter.RegionID)
	}
	return snapshots, fetchPage(
		self.Db, page, &snapshots,
		"snapshot.*", snapshotFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *snapshotRepository) GetById(id int) (*domain.Snapshot, error) {
	snapshot := domain.Snapshot{}
	err := pgxscan.Get(
		context.Background(), self.Db, &snapshot,
		`SELECT * FROM snapshot WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &snapshot, err
}

func (self *snapshotRepository) GetByVM(vmID int) ([]domain.Snapshot, error) {
	snapshots := []domain.Snapshot{}
	return snapshots, pgxscan.Select(
		context.Background(), self.Db, &snapshots,
		`SELECT * FROM snapshot WHERE vm_id = $1 ORDER BY id`,
		vmID,
	)
}

func (self *snapshotRepository) GetActiveByVM(vmID int) (*domain.Snapshot, error) {
	snapshot := domain.Snapshot{}
	err := pgxscan.Get(
		context.Background(), self.Db, &snapshot,
		`SELECT * FROM snapshot WHERE vm_id = $1 AND active`,
		vmID,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &snapshot, err
}

func (self *snapshotRepository) GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.Snapshot, error) {
	snapshots := []domain.Snapshot{}
	return snapshots, pgxscan.Select(
		context.Background(), self.Db, &snapshots,
		`SELECT snapshot.* FROM `+snapshotFrom+` WHERE vm.project_id = ANY($1) AND snapshot.state = ANY($2)`,
		projectIDs, stateInts(states),
	)
}

func (self *snapshotRepository) Save(snapshot *domain.Snapshot) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO snapshot (active, name, parent_id, remove_subtree, state, vm_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created, updated`,
		snapshot.Active, snapshot.Name, snapshot.ParentID,
		snapshot.RemoveSubtree, int(snapshot.State), snapshot.VMID,
	).Scan(&snapshot.ID, &snapshot.Created, &snapshot.Updated)
}

func (self *snapshotRepository) Update(snapshot *domain.Snapshot) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE snapshot SET active = $2, name = $3, parent_id = $4, remove_subtree = $5, state = $6, updated = now()
		WHERE id = $1
		RETURNING updated`,
		snapshot.ID, snapshot.Active, snapshot.Name, snapshot.ParentID,
		snapshot.RemoveSubtree, int(snapshot.State),
	).Scan(&snapshot.Updated)
}

func (self *snapshotRepository) CountUnstableByVM(vmID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM snapshot WHERE vm_id = $1 AND NOT state = ANY('{4,6,9,99}'::integer[])`,
		vmID,
	).Scan(&count)
}

func (self *snapshotRepository) CountOpenByVM(vmID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM snapshot WHERE vm_id = $1 AND state != 99`,
		vmID,
	).Scan(&count)
}

func (self *snapshotRepository) GetHistoryByPage(snapshotID int, page *repository.Page) ([]domain.SnapshotHistory, error) {
	history := []domain.SnapshotHistory{}
	return history, fetchPage(
		self.Db, page, &history,
		"*", "snapshot_history WHERE snapshot_id = $1", "created DESC",
		snapshotID,
	)
}

func (self *snapshotRepository) SaveHistory(history *domain.SnapshotHistory) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO snapshot_history (snapshot_id, state, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created`,
		history.SnapshotID, int(history.State), history.UserID,
	).Scan(&history.ID, &history.Created)
}
