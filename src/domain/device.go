package domain

import "time"

const DeviceIDOnHostMaxLength = 12

// DeviceType describes a class of host passthrough hardware, typically
// a GPU model, with the SKU it bills under.
type DeviceType struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Sku         string `json:"sku"`
}

// Device is a single passthrough device on a server. A set vm_id means
// the device is assigned to that guest.
type Device struct {
	ID           int       `json:"id"`
	DeviceTypeID int       `json:"device_type_id" db:"device_type_id"`
	IDOnHost     string    `json:"id_on_host" db:"id_on_host"`
	ServerID     int       `json:"server_id" db:"server_id"`
	VMID         *int      `json:"vm_id" db:"vm_id"`
	Created      time.Time `json:"created"`
	Updated      time.Time `json:"updated"`
}
