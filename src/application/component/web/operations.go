package web

import (
	"net/http"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain"
)

func (self *Web) RunRobotGet(w http.ResponseWriter, req *http.Request) {
	if work, err := self.RunRobotService.GetWork(requester(req)); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, map[string]any{"content": work}, http.StatusOK)
	}
}

func (self *Web) RunRobotPost(w http.ResponseWriter, req *http.Request) {
	body := struct {
		ProjectIDs []int `json:"project_ids"`
	}{}
	if !self.decode(w, req, &body) {
		return
	}

	if err := self.RunRobotService.TurnOff(requester(req), body.ProjectIDs); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) CloudBillGet(w http.ResponseWriter, req *http.Request) {
	if bill, err := self.CloudBillService.Get(requester(req), req.FormValue("timestamp")); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, bill, http.StatusOK)
	}
}

func (self *Web) AppSettingsGet(w http.ResponseWriter, req *http.Request) {
	if settings, err := self.AppSettingsService.GetAll(requester(req)); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, settings, http.StatusOK)
	}
}

func (self *Web) AppSettingsPost(w http.ResponseWriter, req *http.Request) {
	settings := domain.AppSettings{}
	if !self.decode(w, req, &settings) {
		return
	}

	if err := self.AppSettingsService.Create(requester(req), &settings); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, settings, http.StatusCreated)
	}
}

func (self *Web) AppSettingsIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if settings, err := self.AppSettingsService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, settings, http.StatusOK)
	}
}

func (self *Web) AppSettingsIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.AppSettingsUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if settings, err := self.AppSettingsService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, settings, http.StatusOK)
	}
}

func (self *Web) AppSettingsIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.AppSettingsService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) MetricsDataGet(w http.ResponseWriter, req *http.Request) {
	if regionID, err := pathId(req, "region_id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if metrics, err := self.MetricsService.GetByRegion(requester(req), regionID); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, metrics, http.StatusOK)
	}
}

func (self *Web) PolicyLogGet(w http.ResponseWriter, req *http.Request) {
	if projectID, err := pathId(req, "project_id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if log, err := self.PolicyLogService.GetByProject(requester(req), projectID); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, log, http.StatusOK)
	}
}
