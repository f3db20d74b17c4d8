package web

import (
	"net/http"
	"strings"

	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

func (self *Web) AsnGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.AsnFilter{
		MemberID: queryInt(req, "member_id"),
		Number:   queryInt64(req, "number"),
	}

	if asns, err := self.AsnService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, asns, page)
	}
}

func (self *Web) AsnPost(w http.ResponseWriter, req *http.Request) {
	asn := domain.Asn{}
	if !self.decode(w, req, &asn) {
		return
	}

	if err := self.AsnService.Create(requester(req), &asn); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, asn, http.StatusCreated)
	}
}

func (self *Web) AsnIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if asn, err := self.AsnService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, asn, http.StatusOK)
	}
}

func (self *Web) AsnIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.AsnUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if asn, err := self.AsnService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, asn, http.StatusOK)
	}
}

func (self *Web) AsnIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.AsnService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) AllocationGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.AllocationFilter{
		AsnID:     queryInt(req, "asn_id"),
		AddressID: queryInt(req, "address_id"),
	}

	if allocations, err := self.AllocationService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, allocations, page)
	}
}

func (self *Web) AllocationPost(w http.ResponseWriter, req *http.Request) {
	allocation := domain.Allocation{}
	if !self.decode(w, req, &allocation) {
		return
	}

	if err := self.AllocationService.Create(requester(req), &allocation); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, allocation, http.StatusCreated)
	}
}

func (self *Web) AllocationIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if allocation, err := self.AllocationService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, allocation, http.StatusOK)
	}
}

func (self *Web) AllocationIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.AllocationUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if allocation, err := self.AllocationService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, allocation, http.StatusOK)
	}
}

func (self *Web) AllocationIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.AllocationService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) AllocationIdSubnetSpaceGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if space, err := self.AllocationService.GetSubnetSpace(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, space, http.StatusOK)
	}
}

func (self *Web) SubnetGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.SubnetFilter{
		AllocationID:    queryInt(req, "allocation_id"),
		AddressID:       queryInt(req, "address_id"),
		VirtualRouterID: queryInt(req, "virtual_router_id"),
		ParentID:        queryInt(req, "parent_id"),
	}

	if subnets, err := self.SubnetService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, subnets, page)
	}
}

func (self *Web) SubnetPost(w http.ResponseWriter, req *http.Request) {
	subnet := domain.Subnet{}
	if !self.decode(w, req, &subnet) {
		return
	}

	if err := self.SubnetService.Create(requester(req), &subnet); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, subnet, http.StatusCreated)
	}
}

func (self *Web) SubnetIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if subnet, err := self.SubnetService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, subnet, http.StatusOK)
	}
}

func (self *Web) SubnetIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.SubnetUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if subnet, err := self.SubnetService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, subnet, http.StatusOK)
	}
}

func (self *Web) SubnetIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.SubnetService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) IPAddressGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.IPAddressFilter{
		SubnetID:        queryInt(req, "subnet_id"),
		VMID:            queryInt(req, "vm_id"),
		Address:         queryString(req, "address"),
		VirtualRouterID: queryInt(req, "subnet__virtual_router_id"),
	}

	if addresses, err := self.IPAddressService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, addresses, page)
	}
}

func (self *Web) IPAddressPost(w http.ResponseWriter, req *http.Request) {
	address := domain.IPAddress{}
	if !self.decode(w, req, &address) {
		return
	}

	if err := self.IPAddressService.Create(requester(req), &address); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, address, http.StatusCreated)
	}
}

func (self *Web) IPAddressIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if address, err := self.IPAddressService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, address, http.StatusOK)
	}
}

func (self *Web) IPAddressIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.IPAddressUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if address, err := self.IPAddressService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, address, http.StatusOK)
	}
}

func (self *Web) IPAddressIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.IPAddressService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (self *Web) IPAddressGroupGet(w http.ResponseWriter, req *http.Request) {
	page, err := getPage(req)
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	filter := repository.IPAddressGroupFilter{
		MemberID: queryInt(req, "member_id"),
		Name:     queryString(req, "name"),
		Version:  queryInt(req, "version"),
	}

	if groups, err := self.IPAddressGroupService.GetByPage(requester(req), page, filter); err != nil {
		self.Error(w, err)
	} else {
		self.content(w, groups, page)
	}
}

func (self *Web) IPAddressGroupPost(w http.ResponseWriter, req *http.Request) {
	group := domain.IPAddressGroup{}
	if !self.decode(w, req, &group) {
		return
	}

	if err := self.IPAddressGroupService.Create(requester(req), &group); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, group, http.StatusCreated)
	}
}

func (self *Web) IPAddressGroupIdGet(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if group, err := self.IPAddressGroupService.GetById(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, group, http.StatusOK)
	}
}

func (self *Web) IPAddressGroupIdPut(w http.ResponseWriter, req *http.Request) {
	id, err := pathId(req, "id")
	if err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
		return
	}

	update := service.IPAddressGroupUpdate{}
	if !self.decode(w, req, &update) {
		return
	}

	if group, err := self.IPAddressGroupService.Update(requester(req), id, update); err != nil {
		self.Error(w, err)
	} else {
		self.json(w, group, http.StatusOK)
	}
}

func (self *Web) IPAddressGroupIdDelete(w http.ResponseWriter, req *http.Request) {
	if id, err := pathId(req, "id"); err != nil {
		self.Error(w, HandlerError{err, http.StatusBadRequest})
	} else if err := self.IPAddressGroupService.Delete(requester(req), id); err != nil {
		self.Error(w, err)
	} else {
		w.WriteHeader(http.StatusNoContent)
	}
}

// IPValidatorGet reports validity of the given addresses and ranges.
// Any authenticated user may call it.
func (self *Web) IPValidatorGet(w http.ResponseWriter, req *http.Request) {
	checks := []domain.IPCheck{}

	if addresses := req.FormValue("ipAddresses"); addresses != "" {
		for _, input := range strings.Split(addresses, ",") {
			checks = append(checks, domain.CheckIPAddress(strings.TrimSpace(input)))
		}
	}
	if ranges := req.FormValue("ipRanges"); ranges != "" {
		for _, input := range strings.Split(ranges, ",") {
			checks = append(checks, domain.CheckIPRange(strings.TrimSpace(input)))
		}
	}

	self.json(w, checks, http.StatusOK)
}
