package domain

import "time"

const BackupNameMaxLength = 128

const (
	BackupRepositoryPrimary   = 1
	BackupRepositorySecondary = 2
)

type Backup struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Repository int        `json:"repository"`
	State      State      `json:"state"`
	TimeValid  *time.Time `json:"time_valid" db:"time_valid"`
	VMID       int        `json:"vm_id" db:"vm_id"`
	Created    time.Time  `json:"created"`
	Updated    time.Time  `json:"updated"`
}

// BackupHistory is an audit row written for backup changes.
type BackupHistory struct {
	ID       int       `json:"id"`
	BackupID int       `json:"backup_id" db:"backup_id"`
	State    State     `json:"state"`
	UserID   int       `json:"user_id" db:"user_id"`
	Created  time.Time `json:"created"`
}
