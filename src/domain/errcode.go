package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ApiError is a machine-readable error returned to API clients.
// Codes follow the pattern `iaas_<service>_<method>_<nnn>`:
// 001-099 are lookup failures, 100-199 validation failures,
// 200-299 permission failures.
type ApiError struct {
	Code   string `json:"error_code"`
	Detail string `json:"detail"`
}

func (self ApiError) Error() string {
	return self.Code + ": " + self.Detail
}

// StatusCode maps the code class to an HTTP status.
func (self ApiError) StatusCode() int {
	parts := strings.Split(self.Code, "_")
	num, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 500
	}
	switch {
	case self.Code == CodeAuthentication:
		return 401
	case num >= 200 && num < 300:
		return 403
	case num >= 100 && num < 200:
		return 400
	default:
		return 404
	}
}

// NewApiError builds an ApiError from the catalog. Unknown codes get a
// generic detail so a missing catalog entry never hides the code itself.
func NewApiError(code string) ApiError {
	detail, ok := errorCatalog[code]
	if !ok {
		detail = "No detail available for this error."
	}
	return ApiError{Code: code, Detail: detail}
}

func NewApiErrorf(code, format string, args ...any) ApiError {
	return ApiError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// FieldErrors collects per-field validation errors for a request.
type FieldErrors map[string]ApiError

func (self FieldErrors) Error() string {
	fields := make([]string, 0, len(self))
	for field := range self {
		fields = append(fields, field)
	}
	return "validation failed for: " + strings.Join(fields, ", ")
}

const CodeAuthentication = "iaas_authentication_001"

var errorCatalog = map[string]string{
	CodeAuthentication: "The X-Auth-Token header is missing or could not be decoded.",

	"iaas_project_list_001":   "One or more filter values are invalid.",
	"iaas_project_create_101": "The name parameter is required and must be at most 100 characters.",
	"iaas_project_create_102": "The region_id parameter must identify a region with at least one enabled server.",
	"iaas_project_create_103": "The grace_period parameter must be zero or a positive number of hours.",
	"iaas_project_create_104": "No region router has capacity for a new project.",
	"iaas_project_create_105": "No floating IP address is available in the region.",
	"iaas_project_create_201": "Private users cannot create cloud infrastructure.",
	"iaas_project_read_001":   "The requested project does not exist.",
	"iaas_project_read_201":   "You do not have permission to read this project.",
	"iaas_project_update_001": "The requested project does not exist.",
	"iaas_project_update_101": "The name parameter is required and must be at most 100 characters.",
	"iaas_project_update_102": "The grace_period parameter must be zero or a positive number of hours.",
	"iaas_project_update_103": "A project can only be archived when all of its infrastructure is closed.",
	"iaas_project_update_201": "You do not have permission to update this project.",

	"iaas_vm_create_101": "The project_id parameter must identify an open project in your address.",
	"iaas_vm_create_102": "The region of the chosen project is currently shut down.",
	"iaas_vm_create_103": "The image_id parameter must identify an image available in the project's region.",
	"iaas_vm_create_104": "The storage_type_id parameter must identify a storage type offered in the region.",
	"iaas_vm_create_105": "At least one storage with a name, a size in GB and a primary flag is required.",
	"iaas_vm_create_106": "Exactly one storage must be flagged as primary.",
	"iaas_vm_create_107": "Each storage must be at least 10 GB.",
	"iaas_vm_create_108": "The primary storage of a Windows VM must be at least 32 GB.",
	"iaas_vm_create_109": "The cpu parameter must be at least 1.",
	"iaas_vm_create_110": "The ram parameter must be at least 1 GB.",
	"iaas_vm_create_111": "Each dns entry must be a valid IP address.",
	"iaas_vm_create_112": "The dns parameter is required for this image.",
	"iaas_vm_create_113": "The name parameter is required, must be at most 128 characters and unique within the project.",
	"iaas_vm_create_114": "The public_key parameter must be a valid SSH public key.",
	"iaas_vm_create_115": "The gateway_subnet_id parameter must identify a cloud subnet of the project.",
	"iaas_vm_create_116": "Each requested IP address must lie inside one of the project's subnets and be unused.",
	"iaas_vm_create_117": "Only one NAT IP address is supported by the chosen image.",
	"iaas_vm_create_118": "No public IP address is available for NAT.",
	"iaas_vm_create_119": "No server in the region can host the requested VM.",
	"iaas_vm_create_140": "The userdata parameter requires an image with cloud-init support.",
	"iaas_vm_create_141": "The userdata parameter must be at most 16384 bytes.",
	"iaas_vm_create_142": "The userdata parameter must start with a cloud-init header or contain a MIME-Version line.",
	"iaas_vm_create_201": "Private users cannot create cloud infrastructure.",
	"iaas_vm_read_001":   "The requested VM does not exist.",
	"iaas_vm_read_201":   "You do not have permission to read this VM.",
	"iaas_vm_update_001": "The requested VM does not exist.",
	"iaas_vm_update_101": "The name parameter must be at most 128 characters and unique within the project.",
	"iaas_vm_update_102": "The requested state change is not allowed from the VM's current state.",
	"iaas_vm_update_103": "A VM can only be scrubbed when it has no GPUs and no open snapshots.",
	"iaas_vm_update_104": "The cpu, ram and storage parameters can only change while the VM is running or quiesced.",
	"iaas_vm_update_105": "The requested resize does not fit on the VM's server.",
	"iaas_vm_update_106": "Storages can be grown or added but never shrunk or removed.",
	"iaas_vm_update_107": "An explicit state cannot be combined with a resize request.",
	"iaas_vm_update_108": "Not enough free GPU devices are available on the VM's server.",
	"iaas_vm_update_201": "You do not have permission to update this VM.",
	"iaas_vm_update_202": "Private users cannot update cloud infrastructure.",

	"iaas_server_create_101": "The region_id, cores, gb and ram parameters are required.",
	"iaas_server_create_102": "The type_id parameter must identify a server type.",
	"iaas_server_create_103": "The storage_type_id parameter must identify a storage type.",
	"iaas_server_create_201": "Only the region operator can manage servers.",
	"iaas_server_read_001":   "The requested server does not exist.",
	"iaas_server_update_001": "The requested server does not exist.",

	"iaas_server_type_read_001":  "The requested server type does not exist.",
	"iaas_storage_type_read_001": "The requested storage type does not exist.",

	"iaas_image_read_001":          "The requested image does not exist.",
	"iaas_region_image_create_101": "The image_id parameter must identify an image for this region's server types.",
	"iaas_region_image_create_201": "Only the region operator can bind images to a region.",
	"iaas_region_image_delete_001": "The image is not bound to this region.",

	"iaas_asn_create_101": "The number parameter must be between 1 and 2^32 for real ASNs.",
	"iaas_asn_create_102": "The ASN number is already in use.",
	"iaas_asn_read_001":   "The requested ASN does not exist.",
	"iaas_asn_update_001": "The requested ASN does not exist.",
	"iaas_asn_update_101": "The number parameter must be between 1 and 2^32 for real ASNs.",
	"iaas_asn_update_102": "The ASN number is already in use.",
	"iaas_asn_update_201": "You do not have permission to update this ASN.",
	"iaas_asn_delete_001": "The requested ASN does not exist.",
	"iaas_asn_delete_101": "The ASN still has allocations and cannot be deleted.",
	"iaas_asn_delete_201": "You do not have permission to delete this ASN.",

	"iaas_allocation_create_101": "The asn_id parameter must identify an ASN visible to you.",
	"iaas_allocation_create_102": "The address_range parameter must be a valid CIDR.",
	"iaas_allocation_create_103": "Allocations outside the ASN owner's address must use private address space.",
	"iaas_allocation_create_104": "The name parameter is required.",
	"iaas_allocation_read_001":   "The requested allocation does not exist.",
	"iaas_allocation_update_001": "The requested allocation does not exist.",
	"iaas_allocation_delete_001": "The requested allocation does not exist.",
	"iaas_allocation_delete_101": "The allocation still has subnets and cannot be deleted.",

	"iaas_subnet_create_101": "The address_range parameter must be a valid CIDR of at most 49 characters.",
	"iaas_subnet_create_102": "The address_range must lie inside the allocation's range.",
	"iaas_subnet_create_103": "The address_range overlaps another subnet of the allocation.",
	"iaas_subnet_create_104": "The gateway must be an address inside the subnet range.",
	"iaas_subnet_create_105": "The name parameter is required and must be at most 128 characters.",
	"iaas_subnet_create_106": "The allocation_id parameter must identify an allocation visible to you.",
	"iaas_subnet_create_107": "The virtual router has no free VLANs.",
	"iaas_subnet_read_001":   "The requested subnet does not exist.",
	"iaas_subnet_update_001": "The requested subnet does not exist.",
	"iaas_subnet_update_101": "The address range cannot change while the subnet has IP addresses.",
	"iaas_subnet_delete_001": "The requested subnet does not exist.",
	"iaas_subnet_delete_101": "The subnet still has IP addresses or child subnets and cannot be deleted.",

	"iaas_ip_address_create_101": "The address parameter must be a valid IP inside the subnet's range.",
	"iaas_ip_address_create_102": "The address is already in use in this subnet.",
	"iaas_ip_address_create_103": "A cloud IP address requires a vm_id.",
	"iaas_ip_address_create_104": "The name parameter must be at most 64 characters.",
	"iaas_ip_address_read_001":   "The requested IP address does not exist.",
	"iaas_ip_address_update_001": "The requested IP address does not exist.",
	"iaas_ip_address_delete_001": "The requested IP address does not exist.",

	"iaas_ip_address_group_create_101": "The name parameter is required and must be at most 50 characters.",
	"iaas_ip_address_group_create_102": "The version parameter must be 4 or 6.",
	"iaas_ip_address_group_create_103": "Each cidr must be a valid CIDR of the declared IP version.",
	"iaas_ip_address_group_read_001":   "The requested IP address group does not exist.",
	"iaas_ip_address_group_update_001": "The requested IP address group does not exist.",
	"iaas_ip_address_group_delete_001": "The requested IP address group does not exist.",

	"iaas_device_create_101":    "The server_id, device_type_id and id_on_host parameters are required.",
	"iaas_device_create_201":    "Only the region operator can register devices.",
	"iaas_device_read_001":      "The requested device does not exist.",
	"iaas_device_update_001":    "The requested device does not exist.",
	"iaas_device_update_101":    "A device can only attach to a VM on its own server.",
	"iaas_device_type_read_001": "The requested device type does not exist.",

	"iaas_ceph_create_101": "The project_id parameter must identify an open project in your address.",
	"iaas_ceph_create_102": "The CEPH_001 parameter must be a positive integer number of GB.",
	"iaas_ceph_create_103": "The name parameter is required, uses characters [A-Za-z0-9-_. ], is at most 128 characters and unique in the region.",
	"iaas_ceph_create_201": "Private users cannot create cloud infrastructure.",
	"iaas_ceph_read_001":   "The requested Ceph resource does not exist.",
	"iaas_ceph_update_001": "The requested Ceph resource does not exist.",
	"iaas_ceph_update_101": "The requested state change is not allowed from the resource's current state.",
	"iaas_ceph_update_102": "A Ceph resource can grow but never shrink.",
	"iaas_ceph_update_103": "A resize is only possible while the resource is running or quiesced.",
	"iaas_ceph_update_104": "An explicit state combined with a resize must be an update state.",
	"iaas_ceph_update_201": "You do not have permission to update this resource.",

	"iaas_attach_update_001": "The requested resource does not exist.",
	"iaas_attach_update_101": "The resource cannot be attached in its current state.",
	"iaas_attach_update_102": "The parent VM must be in the same project and running or quiesced.",
	"iaas_attach_update_201": "You do not have permission to attach this resource.",
	"iaas_detach_update_001": "The requested resource does not exist.",
	"iaas_detach_update_101": "The resource cannot be detached in its current state.",
	"iaas_detach_update_201": "You do not have permission to detach this resource.",

	"iaas_snapshot_create_101": "The vm_id parameter must identify a running or quiesced VM in your address.",
	"iaas_snapshot_create_102": "All existing snapshots of the VM must be stable.",
	"iaas_snapshot_create_103": "The name parameter is required and must be at most 128 characters.",
	"iaas_snapshot_read_001":   "The requested snapshot does not exist.",
	"iaas_snapshot_update_001": "The requested snapshot does not exist.",
	"iaas_snapshot_update_101": "The requested state change is not allowed from the snapshot's current state.",
	"iaas_snapshot_update_102": "The name parameter must be at most 128 characters.",

	"iaas_backup_create_101": "The vm_id parameter must identify a running or quiesced VM in your address.",
	"iaas_backup_create_102": "All existing backups of the VM must be stable.",
	"iaas_backup_create_103": "The name parameter is required and must be at most 128 characters.",
	"iaas_backup_create_104": "The repository parameter must be 1 (primary) or 2 (secondary).",
	"iaas_backup_read_001":   "The requested backup does not exist.",
	"iaas_backup_update_001": "The requested backup does not exist.",
	"iaas_backup_update_101": "The requested state change is not allowed from the backup's current state.",

	"iaas_virtual_router_read_001":   "The requested virtual router does not exist.",
	"iaas_virtual_router_update_001": "The requested virtual router does not exist.",
	"iaas_virtual_router_update_101": "The requested state change is not allowed from the virtual router's current state.",
	"iaas_virtual_router_update_201": "You do not have permission to update this virtual router.",

	"iaas_router_create_101": "The region_id and vlans parameters are required.",
	"iaas_router_create_201": "Only the region operator can manage routers.",
	"iaas_router_read_001":   "The requested router does not exist.",
	"iaas_router_update_001": "The requested router does not exist.",

	"iaas_vpn_create_101": "The virtual_router_id parameter must identify a virtual router of one of your projects.",
	"iaas_vpn_create_102": "The vpn_type parameter must be site_to_site or dynamic.",
	"iaas_vpn_create_103": "The ike_version parameter must be v1-only or v2-only.",
	"iaas_vpn_create_104": "The ike_authentication parameter contains an unsupported algorithm.",
	"iaas_vpn_create_105": "The ike_dh_groups parameter contains an unsupported group.",
	"iaas_vpn_create_106": "The ike_encryption parameter contains an unsupported algorithm.",
	"iaas_vpn_create_107": "The ike_lifetime parameter must be between 180 and 86400 seconds.",
	"iaas_vpn_create_108": "The ike_pre_shared_key parameter is required.",
	"iaas_vpn_create_109": "The ike_gateway_type parameter must be public_ip or hostname, with a matching value.",
	"iaas_vpn_create_110": "The ipsec_authentication parameter contains an unsupported algorithm.",
	"iaas_vpn_create_111": "The ipsec_encryption parameter contains an unsupported algorithm.",
	"iaas_vpn_create_112": "The ipsec_pfs_groups parameter contains an unsupported group.",
	"iaas_vpn_create_113": "The ipsec_lifetime parameter must be between 180 and 86400 seconds.",
	"iaas_vpn_create_114": "The ipsec_establish_time parameter must be immediately or on-traffic.",
	"iaas_vpn_create_115": "Each route needs a local cloud subnet of the virtual router and a valid remote CIDR.",
	"iaas_vpn_read_001":   "The requested VPN does not exist.",
	"iaas_vpn_update_001": "The requested VPN does not exist.",
	"iaas_vpn_delete_001": "The requested VPN does not exist.",

	"iaas_domain_create_101": "The name parameter must be a valid domain name of at most 240 characters.",
	"iaas_domain_read_001":   "The requested domain does not exist.",
	"iaas_domain_delete_001": "The requested domain does not exist.",

	"iaas_record_create_101": "The type parameter must be one of the supported record types (PTR records have their own service).",
	"iaas_record_create_102": "The content parameter is required and must be at most 255 characters.",
	"iaas_record_create_103": "The name parameter is required and must be at most 80 characters.",
	"iaas_record_create_104": "The ttl parameter must be at least 180 seconds.",
	"iaas_record_create_105": "The priority parameter is required for MX, SRV and NAPTR records.",
	"iaas_record_create_106": "The domain_id parameter must identify one of your domains.",
	"iaas_record_read_001":   "The requested record does not exist.",
	"iaas_record_update_001": "The requested record does not exist.",
	"iaas_record_delete_001": "The requested record does not exist.",

	"iaas_ptr_record_create_101": "The name parameter must be a valid IP address.",
	"iaas_ptr_record_create_102": "The content parameter must be a valid FQDN of at most 255 characters.",
	"iaas_ptr_record_read_001":   "The requested PTR record does not exist.",
	"iaas_ptr_record_update_001": "The requested PTR record does not exist.",
	"iaas_ptr_record_delete_001": "The requested PTR record does not exist.",

	"iaas_run_robot_list_201":     "Only the region robot can list robot work.",
	"iaas_run_robot_turn_off_201": "Only the region robot can turn off robot flags.",

	"iaas_cloud_bill_list_001": "The timestamp parameter must be a valid RFC3339 timestamp.",

	"iaas_app_settings_create_101": "The settings row already exists; update it instead.",
	"iaas_app_settings_read_001":   "No settings row exists yet.",
	"iaas_app_settings_201":        "Only administrators can manage application settings.",

	"iaas_metrics_read_201": "Only the region robot or operator can read region metrics.",

	"iaas_policy_log_list_001": "The requested project does not exist or has no virtual router.",
}
