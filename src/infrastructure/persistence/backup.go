package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type backupRepository struct {
	Db config.PgxIface
}

func NewBackupRepository(db config.PgxIface) repository.BackupRepository {
	return &backupRepository{db}
}

func (self *backupRepository) WithQuerier(querier config.PgxIface) repository.BackupRepository {
	return &backupRepository{querier}
}

const backupFrom = `backup
	JOIN vm ON vm.id = backup.vm_id
	JOIN project ON project.id = vm.project_id`

func (self *backupRepository) GetByPage(page *repository.Page, filter repository.BackupFilter, orderBy string) ([]domain.Backup, error) {
	backups := []domain.Backup{}
	cond := &conditions{}
	if filter.VMID != nil {
		cond.eq("backup.vm_id", *filter.VMID)
	}
	if filter.State != nil {
		cond.eq("backup.state", int(*filter.State))
	}
	if filter.Repository != nil {
		cond.eq("backup.repository", *filter.Repository)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("project.address_id", filter.AddressIDs)
	}
	if filter.RegionID != nil {
		cond.eq("project.region_id", *filter.RegionID)
	}
	return backups, fetchPage(
		self.Db, page, &backups,
		"backup.*", backupFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *backupRepository) GetById(id int) (*domain.Backup, error) {
	backup := domain.Backup{}
	err := pgxscan.Get(
		context.Background(), self.Db, &backup,
		`SELECT * FROM backup WHERE id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &backup, err
}

func (self *backupRepository) GetByVM(vmID int) ([]domain.Backup, error) {
	backups := []domain.Backup{}
	return backups, pgxscan.Select(
		context.Background(), self.Db, &backups,
		`SELECT * FROM backup WHERE vm_id = $1 ORDER BY id`,
		vmID,
	)
}

func (self *backupRepository) GetByProjectsAndStates(projectIDs []int, states []domain.State) ([]domain.Backup, error) {
	backups := []domain.Backup{}
	return backups, pgxscan.Select(
		context.Background(), self.Db, &backups,
		`SELECT backup.* FROM `+backupFrom+` WHERE vm.project_id = ANY($1) AND backup.state = ANY($2)`,
		projectIDs, stateInts(states),
	)
}

func (self *backupRepository) Save(backup *domain.Backup) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO backup (name, repository, state, vm_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created, updated`,
		backup.Name, backup.Repository, int(backup.State), backup.VMID,
	).Scan(&backup.ID, &backup.Created, &backup.Updated)
}

func (self *backupRepository) Update(backup *domain.Backup) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE backup SET name = $2, repository = $3, state = $4, time_valid = $5, updated = now()
		WHERE id = $1
		RETURNING updated`,
		backup.ID, backup.Name, backup.Repository, int(backup.State), backup.TimeValid,
	).Scan(&backup.Updated)
}

func (self *backupRepository) CountUnstableByVM(vmID int) (count int, err error) {
	return count, self.Db.QueryRow(
		context.Background(),
		`SELECT count(*) FROM backup WHERE vm_id = $1 AND NOT state = ANY('{4,6,9,99}'::integer[])`,
		vmID,
	).Scan(&count)
}

func (self *backupRepository) GetHistoryByPage(backupID int, page *repository.Page) ([]domain.BackupHistory, error) {
	history := []domain.BackupHistory{}
	return history, fetchPage(
		self.Db, page, &history,
		"*", "backup_history WHERE backup_id = $1", "created DESC",
		backupID,
	)
}

func (self *backupRepository) SaveHistory(history *domain.BackupHistory) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO backup_history (backup_id, state, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created`,
		history.BackupID, int(history.State), history.UserID,
	).Scan(&history.ID, &history.Created)
}
