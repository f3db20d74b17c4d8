package domain

import (
	"time"

	"golang.org/x/exp/slices"
)

const (
	VPNTypeSiteToSite = "site_to_site"
	VPNTypeDynamic    = "dynamic"

	IKEVersion1 = "v1-only"
	IKEVersion2 = "v2-only"

	IKEGatewayPublicIP = "public_ip"
	IKEGatewayHostname = "hostname"

	IPSecEstablishImmediately = "immediately"
	IPSecEstablishOnTraffic   = "on-traffic"

	VPNLifetimeMin = 180
	VPNLifetimeMax = 86400
)

// Algorithm sets supported by the region firewalls.
var (
	IKEAuthentications   = []string{"sha1", "sha-256", "sha-384"}
	IKEDHGroups          = []string{"1", "2", "5", "19", "20", "24"}
	IKEEncryptions       = []string{"aes-128-cbc", "aes-192-cbc", "aes-256-cbc"}
	IPSecAuthentications = []string{"hmac-sha1-96", "hmac-sha-256-128"}
	IPSecEncryptions     = append(
		slices.Clone(IKEEncryptions),
		"aes-128-gcm", "aes-192-gcm", "aes-256-gcm",
	)
	IPSecPFSGroups = []string{"group1", "group2", "group5", "group14", "group19", "group20", "group24"}
)

type VPN struct {
	ID                 int       `json:"id"`
	Description        *string   `json:"description"`
	DNS                *string   `json:"dns"`
	IKEAuthentication  string    `json:"ike_authentication" db:"ike_authentication"`
	IKEDHGroups        string    `json:"ike_dh_groups" db:"ike_dh_groups"`
	IKEEncryption      string    `json:"ike_encryption" db:"ike_encryption"`
	IKELifetime        int       `json:"ike_lifetime" db:"ike_lifetime"`
	IKEPreSharedKey    string    `json:"ike_pre_shared_key" db:"ike_pre_shared_key"`
	IKEVersion         string    `json:"ike_version" db:"ike_version"`
	IKEGatewayType     string    `json:"ike_gateway_type" db:"ike_gateway_type"`
	IKEGatewayValue    string    `json:"ike_gateway_value" db:"ike_gateway_value"`
	IPSecAuthentication string   `json:"ipsec_authentication" db:"ipsec_authentication"`
	IPSecEncryption    string    `json:"ipsec_encryption" db:"ipsec_encryption"`
	IPSecEstablishTime string    `json:"ipsec_establish_time" db:"ipsec_establish_time"`
	IPSecPFSGroupsUsed string    `json:"ipsec_pfs_groups" db:"ipsec_pfs_groups"`
	IPSecLifetime      int       `json:"ipsec_lifetime" db:"ipsec_lifetime"`
	StifNumber         int       `json:"stif_number" db:"stif_number"`
	TrafficSelector    bool      `json:"traffic_selector" db:"traffic_selector"`
	VirtualRouterID    int       `json:"virtual_router_id" db:"virtual_router_id"`
	VPNType            string    `json:"vpn_type" db:"vpn_type"`
	Created            time.Time `json:"created"`
	Updated            time.Time `json:"updated"`

	// The public IP of the virtual router, loaded by the repository.
	IKEPublicIP *string `json:"ike_public_ip" db:"ike_public_ip"`

	Routes []VPNRoute `json:"routes" db:"-"`
}

func (self VPN) Sku() string {
	if self.VPNType == VPNTypeDynamic {
		return SkuVPNDynamic
	}
	return SkuVPNSiteToSite
}

type VPNRoute struct {
	ID            int    `json:"id"`
	VPNID         int    `json:"vpn_id" db:"vpn_id"`
	LocalSubnetID int    `json:"local_subnet_id" db:"local_subnet_id"`
	RemoteSubnet  string `json:"remote_subnet" db:"remote_subnet"`
}

// VPNHistory is an audit row written for VPN changes.
type VPNHistory struct {
	ID      int       `json:"id"`
	VPNID   int       `json:"vpn_id" db:"vpn_id"`
	UserID  int       `json:"user_id" db:"user_id"`
	Message string    `json:"message"`
	Created time.Time `json:"created"`
}

// ValidAlgorithms reports whether every entry of the comma-separated
// value is in the allowed set.
func ValidAlgorithms(value string, allowed []string) bool {
	if value == "" {
		return false
	}
	for _, entry := range splitTrim(value) {
		if !slices.Contains(allowed, entry) {
			return false
		}
	}
	return true
}
