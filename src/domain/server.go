package domain

import (
	"math"
	"time"
)

// Capacity limits. A server never commits its full hardware to guests:
// the base values are reserved for the host itself and the create limits
// keep headroom so that in-place updates of existing guests can still fit.
const (
	Oversubscription = 8

	DiskBaseLimit = 100 // GB reserved for the host
	RAMBaseLimit  = 8   // GB reserved for the host

	CPUCreateLimit  = 0.77
	DiskCreateLimit = 0.77
	RAMCreateLimit  = 0.77

	CPUUpdateLimit  = 1.00
	DiskUpdateLimit = 0.90
	RAMUpdateLimit  = 0.95
)

// SuitabilityUnfit is returned when a requirement cannot fit on a server.
const SuitabilityUnfit = -1

type ServerType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type StorageType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Interface is a physical NIC of a server, embedded in server payloads.
type Interface struct {
	ID         int       `json:"id"`
	ServerID   int       `json:"server_id"`
	MacAddress string    `json:"mac_address"`
	Details    *string   `json:"details"`
	Enabled    bool      `json:"enabled"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
}

type Server struct {
	ID            int       `json:"id"`
	AssetTag      *string   `json:"asset_tag"`
	Cores         int       `json:"cores"`
	Enabled       bool      `json:"enabled"`
	GB            int       `json:"gb"`
	Model         *string   `json:"model"`
	RAM           int       `json:"ram"`
	RegionID      int       `json:"region_id"`
	StorageTypeID int       `json:"storage_type_id"`
	TypeID        int       `json:"type_id"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`

	// Aggregated over the server's guest VMs that are not closed.
	// Loaded by the repository, not stored.
	VCPUsInUse int `json:"vcpus_in_use" db:"vcpus_in_use"`
	RAMInUse   int `json:"ram_in_use" db:"ram_in_use"`
	GBInUse    int `json:"gb_in_use" db:"gb_in_use"`

	Interfaces []Interface `json:"interfaces" db:"-"`
}

func (self Server) VCPUs() int {
	return self.Cores * Oversubscription
}

func (self Server) VCPUsForCreate() int {
	return int(math.Ceil(float64(self.VCPUs()) * CPUCreateLimit))
}

func (self Server) VCPUsForUpdate() int {
	return int(math.Ceil(float64(self.VCPUs()) * CPUUpdateLimit))
}

func (self Server) RAMForCreate() int {
	return int(math.Ceil(float64(self.RAM-RAMBaseLimit) * RAMCreateLimit))
}

func (self Server) RAMForUpdate() int {
	return int(math.Ceil(float64(self.RAM-RAMBaseLimit) * RAMUpdateLimit))
}

func (self Server) GBForCreate() int {
	return int(math.Ceil(float64(self.GB-DiskBaseLimit) * DiskCreateLimit))
}

func (self Server) GBForUpdate() int {
	return int(math.Ceil(float64(self.GB-DiskBaseLimit) * DiskUpdateLimit))
}

// CapacityVector is the server's remaining create capacity as
// [ram, gb, vcpus], after subtracting the guests already on it.
func (self Server) CapacityVector() []int {
	return []int{
		self.RAMForCreate() - self.RAMInUse,
		self.GBForCreate() - self.GBInUse,
		self.VCPUsForCreate() - self.VCPUsInUse,
	}
}

// BaseVector is the server's raw capacity as [ram, gb, vcpus],
// ignoring the guests on it.
func (self Server) BaseVector() []int {
	return []int{self.RAM, self.GB, self.VCPUs()}
}

// AvailabilityRatio is the fraction of each base component that is still
// available for create requests.
func (self Server) AvailabilityRatio() []float64 {
	current := self.CapacityVector()
	base := self.BaseVector()
	ratio := make([]float64, len(current))
	for i := range current {
		if base[i] > 0 {
			ratio[i] = float64(current[i]) / float64(base[i])
		}
	}
	return ratio
}

// ConsumptionDelta measures how far the requirement vector [ram, gb, vcpus]
// is from the server's availability profile. Lower is a better fit.
// +Inf means the requirement does not fit at all.
func (self Server) ConsumptionDelta(requirement []int) float64 {
	capacity := self.CapacityVector()

	for i := range requirement {
		if requirement[i] > capacity[i] {
			return math.Inf(1)
		}
	}

	// Fraction of the remaining capacity the requirement would consume.
	consumption := make([]float64, len(requirement))
	for i := range requirement {
		if capacity[i] > 0 {
			consumption[i] = float64(requirement[i]) / float64(capacity[i])
		}
	}
	consumptionLength := magnitude(consumption)

	// Scale the availability ratio down to the consumption vector's length
	// so that only their directions are compared.
	availability := self.AvailabilityRatio()
	availabilityLength := magnitude(availability)

	scaled := make([]float64, len(availability))
	if consumptionLength > 0 && availabilityLength > 0 {
		factor := consumptionLength / availabilityLength
		for i := range availability {
			scaled[i] = availability[i] * factor
		}
	}

	differences := make([]float64, len(consumption))
	for i := range consumption {
		differences[i] = consumption[i] - scaled[i]
	}
	return magnitude(differences)
}

// Suitability scores the server for a requirement vector. The score is
// bounded by [0, len(requirement)]; higher is better. SuitabilityUnfit is
// returned when the requirement cannot fit.
func (self Server) Suitability(requirement []int) float64 {
	delta := self.ConsumptionDelta(requirement)
	if math.IsInf(delta, 1) {
		return SuitabilityUnfit
	}
	return float64(len(requirement)) - delta
}

// HeadroomForUpdate reports whether an increase of [ram, gb, vcpus] fits
// within the server's update limits.
func (self Server) HeadroomForUpdate(ramDelta, gbDelta, vcpuDelta int) bool {
	if ramDelta > self.RAMForUpdate()-self.RAMInUse {
		return false
	}
	if gbDelta > self.GBForUpdate()-self.GBInUse {
		return false
	}
	if vcpuDelta > self.VCPUsForUpdate()-self.VCPUsInUse {
		return false
	}
	return true
}

func magnitude(vec []float64) float64 {
	sum := 0.0
	for _, val := range vec {
		sum += val * val
	}
	return math.Sqrt(sum)
}
