package web

import (
	"net/http"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) SnapshotGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.SnapshotFilter{
		VMID:      queryInt(req, "vm_id"),
		State:     queryState(req, "state"),
		Active:    queryBool(req, "active"),
		ProjectID: queryInt(req, "vm__project_id"),
	}

	if snapshots, err := self.SnapshotService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, snapshots, page)
	}
}

func (self *Web) SnapshotPost(w http.ResponseWriter, req *http.Request) {
	create := service.SnapshotCreate{}
	if !self.decode(w, req, &create) {
		return
	}

	if snapshot, err := self.SnapshotService.Create(requester(req), &create); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, snapshot, http.StatusCreated)
	}
}

func (self *Web) SnapshotIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if snapshot, err := self.SnapshotService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, snapshot, http.StatusOK)
	}
}

func (self *Web) SnapshotIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.SnapshotUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if snapshot, err := self.SnapshotService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, snapshot, http.StatusOK)
	}
}

func (self *Web) SnapshotTreeGet(w http.ResponseWriter, req *http.Request) {
	if vmID, err := pathId(req, "vm_id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if tree, err := self.SnapshotService.GetTree(requester(req), vmID); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, tree, http.StatusOK)
	}
}

func (self *Web) SnapshotIdHistoryGet(w http.ResponseWriter, req *http.Request) {
	snapshotID, err := pathId(req, "snapshot_id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	if history, err := self.SnapshotService.GetHistoryByPage(requester(req), snapshotID, page); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, history, page)
	}
}

func (self *Web) BackupGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.BackupFilter{
		VMID:       queryInt(req, "vm_id"),
		State:      queryState(req, "state"),
		Repository: queryInt(req, "repository"),
	}

	if backups, err := self.BackupService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, backups, page)
	}
}

func (self *Web) BackupPost(w http.ResponseWriter, req *http.Request) {
	create := service.BackupCreate{}
	if !self.decode(w, req, &create) {
		return
	}

	if backup, err := self.BackupService.Create(requester(req), &create); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, backup, http.StatusCreated)
	}
}

func (self *Web) BackupIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if backup, err := self.BackupService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, backup, http.StatusOK)
	}
}

func (self *Web) BackupIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.BackupUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if backup, err := self.BackupService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, backup, http.StatusOK)
	}
}

func (self *Web) BackupIdHistoryGet(w http.ResponseWriter, req *http.Request) {
	backupID, err := pathId(req, "backup_id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	if history, err := self.BackupService.GetHistoryByPage(requester(req), backupID, page); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, history, page)
	}
}
