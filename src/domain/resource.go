package domain

import (
	"regexp"
	"time"
)

// ResourceType discriminates the rows of the resource table.
type ResourceType int

const (
	ResourceTypeCeph ResourceType = 2
)

// AttachableResourceTypes may be attached to a VM as a child resource.
var AttachableResourceTypes = []ResourceType{ResourceTypeCeph}

const ResourceNameMaxLength = 128

var ResourceNamePattern = regexp.MustCompile(`^[A-Za-z0-9-_. ]+$`)

// Resource generalises non-VM capacity. Ceph block storage is the only
// resource type today; specs carry the billed SKU quantities
// (CEPH_001 = size in GB).
type Resource struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	ParentID     *int          `json:"parent_id" db:"parent_id"`
	ProjectID    int           `json:"project_id" db:"project_id"`
	ResourceType ResourceType  `json:"resource_type" db:"resource_type"`
	State        State         `json:"state"`
	Specs        SkuQuantities `json:"specs"`
	Created      time.Time     `json:"created"`
	Updated      time.Time     `json:"updated"`
}

func (self Resource) Attachable() bool {
	for _, resourceType := range AttachableResourceTypes {
		if self.ResourceType == resourceType {
			return true
		}
	}
	return false
}
