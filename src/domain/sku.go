package domain

import (
	"database/sql/driver"
	"encoding/json"
)

// SKU identifiers used for billing quantities on history rows and
// resource specs.
const (
	SkuNotAvailable = "SKU_Not_Available"

	SkuVCPU = "vCPU_001"
	SkuRAM  = "RAM_001"
	SkuNAT  = "NAT_001"

	SkuHDD = "HDD_001"
	SkuSSD = "SSD_001"

	SkuCephGB = "CEPH_001"

	SkuVPNSiteToSite = "VPNS2S"
	SkuVPNDynamic    = "VPNDSC"
)

const (
	StorageTypeHDD = 1
	StorageTypeSSD = 2
)

// StorageSku maps a storage type id to its billing SKU.
func StorageSku(storageTypeID int) string {
	switch storageTypeID {
	case StorageTypeHDD:
		return SkuHDD
	case StorageTypeSSD:
		return SkuSSD
	default:
		return SkuNotAvailable
	}
}

// Stock image SKUs by image id.
var imageSkus = map[int]string{
	2:  "WIN2016_001",
	3:  "WIN2019_001",
	4:  "WINCORE2019_001",
	5:  "WIN2022_001",
	6:  "UBUNTU1804_001",
	7:  "UBUNTU2004_001",
	8:  "UBUNTU2204_001",
	9:  "CENTOS7_001",
	10: "CENTOSSTREAM8_001",
	11: "CENTOSSTREAM9_001",
	12: "DEBIAN10_001",
	13: "DEBIAN11_001",
	14: "ROCKY8_001",
	15: "ROCKY9_001",
	16: "FEDORA36_001",
	17: "ALMA8_001",
	18: "ALMA9_001",
	19: "UBUNTU2210_001",
}

func ImageSku(imageID int) string {
	if sku, ok := imageSkus[imageID]; ok {
		return sku
	}
	return SkuNotAvailable
}

// SkuQuantities maps a SKU to a billed quantity. Stored as jsonb.
type SkuQuantities map[string]int

func (self SkuQuantities) Value() (driver.Value, error) {
	return json.Marshal(self)
}

func (self *SkuQuantities) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, self)
	case string:
		return json.Unmarshal([]byte(v), self)
	case nil:
		*self = nil
		return nil
	}
	return json.Unmarshal(value.([]byte), self)
}
