package web

import (
	"net/http"

	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) DomainGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.DnsDomainFilter{
		Name:     queryString(req, "name"),
		MemberID: queryInt(req, "member_id"),
	}

	if domains, err := self.DomainService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, domains, page)
	}
}

func (self *Web) DomainPost(w http.ResponseWriter, req *http.Request) {
	dnsDomain := domain.DNSDomain{}
	if !self.decode(w, req, &dnsDomain) {
		return
	}

	if err := self.DomainService.Create(requester(req), &dnsDomain); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, dnsDomain, http.StatusCreated)
	}
}

func (self *Web) DomainIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if dnsDomain, err := self.DomainService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, dnsDomain, http.StatusOK)
	}
}

func (self *Web) DomainIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.DomainService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func recordFilter(req *http.Request) repository.RecordFilter {
	return repository.RecordFilter{
		DomainID: queryInt(req, "domain_id"),
		Type:     queryString(req, "type"),
		Name:     queryString(req, "name"),
		Content:  queryString(req, "content"),
	}
}

func (self *Web) RecordGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	if records, err := self.RecordService.GetByPage(requester(req), page, recordFilter(req)); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, records, page)
	}
}

func (self *Web) RecordPost(w http.ResponseWriter, req *http.Request) {
	record := domain.Record{}
	if !self.decode(w, req, &record) {
		return
	}

	if err := self.RecordService.Create(requester(req), &record); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, record, http.StatusCreated)
	}
}

func (self *Web) RecordIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if record, err := self.RecordService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, record, http.StatusOK)
	}
}

func (self *Web) RecordIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := domain.Record{}
	if !self.decode(w, req, &update) {
		return
	}

	if record, err := self.RecordService.Update(requester(req), id, &update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, record, http.StatusOK)
	}
}

func (self *Web) RecordIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.RecordService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) PtrRecordGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	if records, err := self.PtrRecordService.GetByPage(requester(req), page, recordFilter(req)); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, records, page)
	}
}

func (self *Web) PtrRecordPost(w http.ResponseWriter, req *http.Request) {
	record := domain.Record{}
	if !self.decode(w, req, &record) {
		return
	}

	if err := self.PtrRecordService.Create(requester(req), &record); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, record, http.StatusCreated)
	}
}

func (self *Web) PtrRecordIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if record, err := self.PtrRecordService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, record, http.StatusOK)
	}
}

func (self *Web) PtrRecordIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := domain.Record{}
	if !self.decode(w, req, &update) {
		return
	}

	if record, err := self.PtrRecordService.Update(requester(req), id, &update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, record, http.StatusOK)
	}
}

func (self *Web) PtrRecordIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.PtrRecordService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}
