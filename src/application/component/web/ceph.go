package web

import (
	"net/http"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) CephGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.ResourceFilter{
		ProjectID: queryInt(req, "project_id"),
		ParentID:  queryInt(req, "parent_id"),
		State:     queryState(req, "state"),
		Name:      queryString(req, "name"),
		AddressID: queryInt(req, "project__address_id"),
		RegionID:  queryInt(req, "project__region_id"),
	}

	if resources, err := self.CephService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, resources, page)
	}
}

func (self *Web) CephPost(w http.ResponseWriter, req *http.Request) {
	create := service.CephCreate{}
	if !self.decode(w, req, &create) {
		return
	}

	if resource, err := self.CephService.Create(requester(req), &create); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, resource, http.StatusCreated)
	}
}

func (self *Web) CephIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if resource, err := self.CephService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, resource, http.StatusOK)
	}
}

func (self *Web) CephIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.CephUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if resource, err := self.CephService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, resource, http.StatusOK)
	}
}

func (self *Web) AttachPut(w http.ResponseWriter, req *http.Request) {
	resourceID, err := pathId(req, "resource_id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}
	parentVMID, err := pathId(req, "parent_resource_id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	if err := self.CephService.Attach(requester(req), resourceID, parentVMID); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) DetachPut(w http.ResponseWriter, req *http.Request) {
	if resourceID, err := pathId(req, "resource_id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.CephService.Detach(requester(req), resourceID); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}
