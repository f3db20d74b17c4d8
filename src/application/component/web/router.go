package web

import (
	"net/http"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) RouterGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.RouterFilter{
		RegionID: queryInt(req, "region_id"),
		Enabled:  queryBool(req, "enabled"),
	}

	if routers, err := self.RouterService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, routers, page)
	}
}

func (self *Web) RouterPost(w http.ResponseWriter, req *http.Request) {
	router := domain.Router{}
	if !self.decode(w, req, &router) {
		return
	}

	if err := self.RouterService.Create(requester(req), &router); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, router, http.StatusCreated)
	}
}

func (self *Web) RouterIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if router, err := self.RouterService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, router, http.StatusOK)
	}
}

func (self *Web) RouterIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.RouterUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if router, err := self.RouterService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, router, http.StatusOK)
	}
}

func (self *Web) VirtualRouterGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.VirtualRouterFilter{
		ProjectID: queryInt(req, "project_id"),
		RouterID:  queryInt(req, "router_id"),
		State:     queryState(req, "state"),
		RegionID:  queryInt(req, "project__region_id"),
	}

	if virtualRouters, err := self.VirtualRouterService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, virtualRouters, page)
	}
}

func (self *Web) VirtualRouterIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if virtualRouter, err := self.VirtualRouterService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, virtualRouter, http.StatusOK)
	}
}

func (self *Web) VirtualRouterIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.VirtualRouterUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if virtualRouter, err := self.VirtualRouterService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, virtualRouter, http.StatusOK)
	}
}

func (self *Web) VpnGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.VpnFilter{
		VirtualRouterID: queryInt(req, "virtual_router_id"),
		VPNType:         queryString(req, "vpn_type"),
	}

	if vpns, err := self.VpnService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, vpns, page)
	}
}

func (self *Web) VpnPost(w http.ResponseWriter, req *http.Request) {
	vpn := domain.VPN{}
	if !self.decode(w, req, &vpn) {
		return
	}

	if err := self.VpnService.Create(requester(req), &vpn); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, vpn, http.StatusCreated)
	}
}

func (self *Web) VpnIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if vpn, err := self.VpnService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, vpn, http.StatusOK)
	}
}

func (self *Web) VpnIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := domain.VPN{}
	if !self.decode(w, req, &update) {
		return
	}

	if vpn, err := self.VpnService.Update(requester(req), id, &update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, vpn, http.StatusOK)
	}
}

func (self *Web) VpnIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.VpnService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) VpnIdHistoryGet(w http.ResponseWriter, req *http.Request) {
	vpnID, err := pathId(req, "vpn_id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	if history, err := self.VpnService.GetHistoryByPage(requester(req), vpnID, page); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, history, page)
	}
}
