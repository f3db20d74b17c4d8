package web

import (
	"net/http"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) ServerGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.ServerFilter{
		RegionID:      queryInt(req, "region_id"),
		Enabled:       queryBool(req, "enabled"),
		TypeID:        queryInt(req, "type_id"),
		StorageTypeID: queryInt(req, "storage_type_id"),
	}

	if servers, err := self.ServerService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, servers, page)
	}
}

func (self *Web) ServerPost(w http.ResponseWriter, req *http.Request) {
	server := domain.Server{}
	if !self.decode(w, req, &server) {
		return
	}

	if err := self.ServerService.Create(requester(req), &server); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, server, http.StatusCreated)
	}
}

func (self *Web) ServerIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if server, err := self.ServerService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, server, http.StatusOK)
	}
}

func (self *Web) ServerIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.ServerUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if server, err := self.ServerService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, server, http.StatusOK)
	}
}

func (self *Web) ServerTypeGet(w http.ResponseWriter, req *http.Request) {
	if types, err := self.ServerTypeService.GetAll(); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, types, http.StatusOK)
	}
}

func (self *Web) ServerTypeIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if serverType, err := self.ServerTypeService.GetById(id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, serverType, http.StatusOK)
	}
}

func (self *Web) StorageTypeGet(w http.ResponseWriter, req *http.Request) {
	if types, err := self.StorageTypeService.GetAll(); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, types, http.StatusOK)
	}
}

func (self *Web) StorageTypeIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if storageType, err := self.StorageTypeService.GetById(id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, storageType, http.StatusOK)
	}
}

func (self *Web) ImageGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.ImageFilter{
		ServerTypeID: queryInt(req, "server_type_id"),
		RegionID:     queryInt(req, "region"),
		Public:       queryBool(req, "public"),
	}

	if images, err := self.ImageService.GetByPage(page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, images, page)
	}
}

func (self *Web) ImageIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if image, err := self.ImageService.GetById(id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, image, http.StatusOK)
	}
}

func (self *Web) ImageIdRegionGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if regions, err := self.ImageService.GetRegions(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, regions, http.StatusOK)
	}
}

func (self *Web) ImageIdRegionPost(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.ImageService.BindRegion(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) ImageIdRegionDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.ImageService.UnbindRegion(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}
