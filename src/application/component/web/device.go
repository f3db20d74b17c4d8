package web

import (
	"net/http"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) DeviceGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.DeviceFilter{
		ServerID:     queryInt(req, "server_id"),
		VMID:         queryInt(req, "vm_id"),
		DeviceTypeID: queryInt(req, "device_type_id"),
	}

	if devices, err := self.DeviceService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, devices, page)
	}
}

func (self *Web) DevicePost(w http.ResponseWriter, req *http.Request) {
	device := domain.Device{}
	if !self.decode(w, req, &device) {
		return
	}

	if err := self.DeviceService.Create(requester(req), &device); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, device, http.StatusCreated)
	}
}

func (self *Web) DeviceIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if device, err := self.DeviceService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, device, http.StatusOK)
	}
}

func (self *Web) DeviceIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.DeviceUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if device, err := self.DeviceService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, device, http.StatusOK)
	}
}

func (self *Web) DeviceTypeGet(w http.ResponseWriter, req *http.Request) {
	if types, err := self.DeviceTypeService.GetAll(); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, types, http.StatusOK)
	}
}

func (self *Web) DeviceTypeIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if deviceType, err := self.DeviceTypeService.GetById(id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, deviceType, http.StatusOK)
	}
}
