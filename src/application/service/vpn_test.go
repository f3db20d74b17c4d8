package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strataops/iaas/src/domain"
)

func validVpn() domain.VPN {
	return domain.VPN{
		VirtualRouterID:     7,
		VPNType:             domain.VPNTypeSiteToSite,
		IKEVersion:          domain.IKEVersion2,
		IKEAuthentication:   "sha-256",
		IKEDHGroups:         "19,20",
		IKEEncryption:       "aes-256-cbc",
		IKELifetime:         3600,
		IKEPreSharedKey:     "hunter2",
		IKEGatewayType:      domain.IKEGatewayPublicIP,
		IKEGatewayValue:     "203.0.113.7",
		IPSecAuthentication: "hmac-sha-256-128",
		IPSecEncryption:     "aes-256-gcm",
		IPSecPFSGroupsUsed:  "group19",
		IPSecLifetime:       3600,
		IPSecEstablishTime:  domain.IPSecEstablishImmediately,
		Routes: []domain.VPNRoute{
			{LocalSubnetID: 3, RemoteSubnet: "192.168.50.0/24"},
		},
	}
}

func TestVpnValidate(t *testing.T) {
	t.Parallel()

	cloudSubnets := []domain.Subnet{{ID: 3, AddressRange: "10.0.0.0/24"}}
	vpnService := &vpnService{}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		vpn := validVpn()
		assert.Nil(t, vpnService.validate(&vpn, cloudSubnets))
	})

	tries := map[string]struct {
		mutate func(*domain.VPN)
		field  string
		code   string
	}{
		"unknown type": {
			func(vpn *domain.VPN) { vpn.VPNType = "transport" },
			"vpn_type", "iaas_vpn_create_102",
		},
		"unknown ike version": {
			func(vpn *domain.VPN) { vpn.IKEVersion = "v3" },
			"ike_version", "iaas_vpn_create_103",
		},
		"bad ike authentication": {
			func(vpn *domain.VPN) { vpn.IKEAuthentication = "md5" },
			"ike_authentication", "iaas_vpn_create_104",
		},
		"bad dh group": {
			func(vpn *domain.VPN) { vpn.IKEDHGroups = "19,99" },
			"ike_dh_groups", "iaas_vpn_create_105",
		},
		"gcm not allowed for ike": {
			func(vpn *domain.VPN) { vpn.IKEEncryption = "aes-128-gcm" },
			"ike_encryption", "iaas_vpn_create_106",
		},
		"ike lifetime too short": {
			func(vpn *domain.VPN) { vpn.IKELifetime = 60 },
			"ike_lifetime", "iaas_vpn_create_107",
		},
		"missing pre-shared key": {
			func(vpn *domain.VPN) { vpn.IKEPreSharedKey = "" },
			"ike_pre_shared_key", "iaas_vpn_create_108",
		},
		"gateway ip not an ip": {
			func(vpn *domain.VPN) { vpn.IKEGatewayValue = "gateway.example.com" },
			"ike_gateway_value", "iaas_vpn_create_109",
		},
		"unknown gateway type": {
			func(vpn *domain.VPN) { vpn.IKEGatewayType = "magic" },
			"ike_gateway_type", "iaas_vpn_create_109",
		},
		"bad ipsec authentication": {
			func(vpn *domain.VPN) { vpn.IPSecAuthentication = "none" },
			"ipsec_authentication", "iaas_vpn_create_110",
		},
		"bad pfs group": {
			func(vpn *domain.VPN) { vpn.IPSecPFSGroupsUsed = "group3" },
			"ipsec_pfs_groups", "iaas_vpn_create_112",
		},
		"ipsec lifetime too long": {
			func(vpn *domain.VPN) { vpn.IPSecLifetime = 100000 },
			"ipsec_lifetime", "iaas_vpn_create_113",
		},
		"bad establish time": {
			func(vpn *domain.VPN) { vpn.IPSecEstablishTime = "later" },
			"ipsec_establish_time", "iaas_vpn_create_114",
		},
		"route outside the virtual router": {
			func(vpn *domain.VPN) { vpn.Routes[0].LocalSubnetID = 99 },
			"routes", "iaas_vpn_create_115",
		},
		"route remote not a cidr": {
			func(vpn *domain.VPN) { vpn.Routes[0].RemoteSubnet = "192.168.50.1" },
			"routes", "iaas_vpn_create_115",
		},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			vpn := validVpn()
			try.mutate(&vpn)

			fieldErrors := vpnService.validate(&vpn, cloudSubnets)
			if assert.NotNil(t, fieldErrors) {
				assert.Equal(t, try.code, fieldErrors[try.field].Code)
			}
		})
	}
}
