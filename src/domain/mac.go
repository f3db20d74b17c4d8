package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// The id limits below keep every derived MAC unique:
// 5 hex digits of region, 1 of server type, 6 of IP address id.
const (
	macMaxRegionID     = 1 << 20
	macMaxServerTypeID = 1 << 4
	macMaxIPAddressID  = 1 << 24
)

// DeriveMac builds the deterministic MAC address for the first IP a VM
// gets in a subnet. Layout of the twelve nibbles:
// region[0]+type : region[1:3] : region[3:5] : ip[0:2] : ip[2:4] : ip[4:6]
func DeriveMac(regionID, serverTypeID, ipAddressID int) (string, error) {
	if regionID < 0 || regionID >= macMaxRegionID {
		return "", errors.Errorf("Region id %d does not fit into a derived MAC", regionID)
	}
	if serverTypeID < 0 || serverTypeID >= macMaxServerTypeID {
		return "", errors.Errorf("Server type id %d does not fit into a derived MAC", serverTypeID)
	}
	if ipAddressID < 0 || ipAddressID >= macMaxIPAddressID {
		return "", errors.Errorf("IP address id %d does not fit into a derived MAC", ipAddressID)
	}

	region := fmt.Sprintf("%05X", regionID)
	ip := fmt.Sprintf("%06X", ipAddressID)

	return fmt.Sprintf(
		"%c%X:%s:%s:%s:%s:%s",
		region[0], serverTypeID,
		region[1:3], region[3:5],
		ip[0:2], ip[2:4], ip[4:6],
	), nil
}
