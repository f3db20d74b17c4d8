package web

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) VmGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.VmFilter{
		ProjectID: queryInt(req, "project_id"),
		ServerID:  queryInt(req, "server_id"),
		State:     queryState(req, "state"),
		ImageID:   queryInt(req, "image_id"),
		Name:      queryString(req, "name"),
		RegionID:  queryInt(req, "project__region_id"),
		AddressID: queryInt(req, "project__address_id"),
	}

	if vms, err := self.VmService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, vms, page)
	}
}

func (self *Web) VmPost(w http.ResponseWriter, req *http.Request) {
	create := service.VMCreate{}
	if !self.decode(w, req, &create) {
		return
	}

	if vm, err := self.VmService.Create(requester(req), &create); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, vm, http.StatusCreated)
	}
}

func (self *Web) VmIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if vm, err := self.VmService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, vm, http.StatusOK)
	}
}

func (self *Web) VmIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.VMUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if vm, err := self.VmService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, vm, http.StatusOK)
	}
}

func (self *Web) VmIdHistoryGet(w http.ResponseWriter, req *http.Request) {
	vmID, err := pathId(req, "vm_id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	if history, err := self.VmService.GetHistoryByPage(requester(req), vmID, page); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, history, page)
	}
}

func (self *Web) VmIdStorageGet(w http.ResponseWriter, req *http.Request) {
	if vmID, err := pathId(req, "vm_id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if storages, err := self.VmService.GetStorages(requester(req), vmID); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, storages, http.StatusOK)
	}
}

func (self *Web) VmIdStorageIdGet(w http.ResponseWriter, req *http.Request) {
	vmID, err := pathId(req, "vm_id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	storages, err := self.VmService.GetStorages(requester(req), vmID)
	if err != nil {
		self.Error(w, err)
		return
	}
	for _, storage := range storages {
		if storage.ID == id {
			self.json(w, storage, http.StatusOK)
			return
		}
	}
	self.Error(w, HandlerError{errors.Errorf("VM %d has no Storage %d", vmID, id), http.StatusNotFound})
}
