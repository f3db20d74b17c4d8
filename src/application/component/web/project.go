package web

import (
	"net/http"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) ProjectGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.ProjectFilter{
		RegionID:   queryInt(req, "region_id"),
		AddressID:  queryInt(req, "address_id"),
		Name:       queryString(req, "name"),
		Closed:     queryBool(req, "closed"),
		Archived:   queryBool(req, "archived"),
		ManagerID:  queryInt(req, "manager_id"),
		ResellerID: queryInt(req, "reseller_id"),
	}

	if projects, err := self.ProjectService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, projects, page)
	}
}

func (self *Web) ProjectPost(w http.ResponseWriter, req *http.Request) {
	// An absent grace_period means the default; an explicit 0 sticks.
	project := domain.Project{GracePeriod: domain.DefaultGracePeriod}
	if !self.decode(w, req, &project) {
		return
	}

	if err := self.ProjectService.Create(requester(req), &project); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, project, http.StatusCreated)
	}
}

func (self *Web) ProjectIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if project, err := self.ProjectService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, project, http.StatusOK)
	}
}

func (self *Web) ProjectIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.ProjectUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if project, err := self.ProjectService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, project, http.StatusOK)
	}
}
