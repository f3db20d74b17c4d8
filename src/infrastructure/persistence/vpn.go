package persistence

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type vpnRepository struct {
	Db config.PgxIface
}

func NewVpnRepository(db config.PgxIface) repository.VpnRepository {
	return &vpnRepository{db}
}

func (self *vpnRepository) WithQuerier(querier config.PgxIface) repository.VpnRepository {
	return &vpnRepository{querier}
}

const vpnSelects = `vpn.*, ip_address.address AS ike_public_ip`

const vpnFrom = `vpn
	JOIN virtual_router ON virtual_router.id = vpn.virtual_router_id
	JOIN project ON project.id = virtual_router.project_id
	LEFT JOIN ip_address ON ip_address.id = virtual_router.ip_address_id`

func (self *vpnRepository) GetByPage(page *repository.Page, filter repository.VpnFilter, orderBy string) ([]domain.VPN, error) {
	vpns := []domain.VPN{}
	cond := &conditions{}
	if filter.VirtualRouterID != nil {
		cond.eq("vpn.virtual_router_id", *filter.VirtualRouterID)
	}
	if filter.VPNType != nil {
		cond.eq("vpn.vpn_type", *filter.VPNType)
	}
	if len(filter.AddressIDs) > 0 {
		cond.anyInt("project.address_id", filter.AddressIDs)
	}
	if filter.RegionID != nil {
		cond.eq("project.region_id", *filter.RegionID)
	}
	return vpns, fetchPage(
		self.Db, page, &vpns,
		vpnSelects, vpnFrom+cond.where(), orderBy,
		cond.args...,
	)
}

func (self *vpnRepository) GetById(id int) (*domain.VPN, error) {
	vpn := domain.VPN{}
	err := pgxscan.Get(
		context.Background(), self.Db, &vpn,
		`SELECT `+vpnSelects+` FROM `+vpnFrom+` WHERE vpn.id = $1`,
		id,
	)
	if pgxscan.NotFound(err) {
		return nil, nil
	}
	return &vpn, err
}

func (self *vpnRepository) GetByVirtualRouter(virtualRouterID int) ([]domain.VPN, error) {
	vpns := []domain.VPN{}
	return vpns, pgxscan.Select(
		context.Background(), self.Db, &vpns,
		`SELECT `+vpnSelects+` FROM `+vpnFrom+` WHERE vpn.virtual_router_id = $1 ORDER BY vpn.id`,
		virtualRouterID,
	)
}

func (self *vpnRepository) Save(vpn *domain.VPN) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO vpn (
			description, dns,
			ike_authentication, ike_dh_groups, ike_encryption, ike_lifetime,
			ike_pre_shared_key, ike_version, ike_gateway_type, ike_gateway_value,
			ipsec_authentication, ipsec_encryption, ipsec_establish_time,
			ipsec_pfs_groups, ipsec_lifetime,
			stif_number, traffic_selector, virtual_router_id, vpn_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created, updated`,
		vpn.Description, vpn.DNS,
		vpn.IKEAuthentication, vpn.IKEDHGroups, vpn.IKEEncryption, vpn.IKELifetime,
		vpn.IKEPreSharedKey, vpn.IKEVersion, vpn.IKEGatewayType, vpn.IKEGatewayValue,
		vpn.IPSecAuthentication, vpn.IPSecEncryption, vpn.IPSecEstablishTime,
		vpn.IPSecPFSGroupsUsed, vpn.IPSecLifetime,
		vpn.StifNumber, vpn.TrafficSelector, vpn.VirtualRouterID, vpn.VPNType,
	).Scan(&vpn.ID, &vpn.Created, &vpn.Updated)
}

func (self *vpnRepository) Update(vpn *domain.VPN) error {
	return self.Db.QueryRow(
		context.Background(),
		`UPDATE vpn SET
			description = $2, dns = $3,
			ike_authentication = $4, ike_dh_groups = $5, ike_encryption = $6, ike_lifetime = $7,
			ike_pre_shared_key = $8, ike_version = $9, ike_gateway_type = $10, ike_gateway_value = $11,
			ipsec_authentication = $12, ipsec_encryption = $13, ipsec_establish_time = $14,
			ipsec_pfs_groups = $15, ipsec_lifetime = $16,
			traffic_selector = $17,
			updated = now()
		WHERE id = $1
		RETURNING updated`,
		vpn.ID,
		vpn.Description, vpn.DNS,
		vpn.IKEAuthentication, vpn.IKEDHGroups, vpn.IKEEncryption, vpn.IKELifetime,
		vpn.IKEPreSharedKey, vpn.IKEVersion, vpn.IKEGatewayType, vpn.IKEGatewayValue,
		vpn.IPSecAuthentication, vpn.IPSecEncryption, vpn.IPSecEstablishTime,
		vpn.IPSecPFSGroupsUsed, vpn.IPSecLifetime,
		vpn.TrafficSelector,
	).Scan(&vpn.Updated)
}

func (self *vpnRepository) Delete(id int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`DELETE FROM vpn WHERE id = $1`,
		id,
	)
	return
}

func (self *vpnRepository) GetRoutes(vpnID int) ([]domain.VPNRoute, error) {
	routes := []domain.VPNRoute{}
	return routes, pgxscan.Select(
		context.Background(), self.Db, &routes,
		`SELECT * FROM vpn_route WHERE vpn_id = $1 ORDER BY id`,
		vpnID,
	)
}

func (self *vpnRepository) SaveRoute(route *domain.VPNRoute) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO vpn_route (vpn_id, local_subnet_id, remote_subnet)
		VALUES ($1, $2, $3)
		RETURNING id`,
		route.VPNID, route.LocalSubnetID, route.RemoteSubnet,
	).Scan(&route.ID)
}

func (self *vpnRepository) DeleteRoutes(vpnID int) (err error) {
	_, err = self.Db.Exec(
		context.Background(),
		`DELETE FROM vpn_route WHERE vpn_id = $1`,
		vpnID,
	)
	return
}

func (self *vpnRepository) NextStifNumber(virtualRouterID int) (number int, err error) {
	return number, self.Db.QueryRow(
		context.Background(),
		`SELECT coalesce(min(candidate), 1) FROM generate_series(1, (
			SELECT coalesce(max(stif_number), 0) + 1 FROM vpn WHERE virtual_router_id = $1
		)) AS candidate
		WHERE candidate NOT IN (SELECT stif_number FROM vpn WHERE virtual_router_id = $1)`,
		virtualRouterID,
	).Scan(&number)
}

func (self *vpnRepository) GetHistoryByPage(vpnID int, page *repository.Page) ([]domain.VPNHistory, error) {
	history := []domain.VPNHistory{}
	return history, fetchPage(
		self.Db, page, &history,
		"*", "vpn_history WHERE vpn_id = $1", "created DESC",
		vpnID,
	)
}

func (self *vpnRepository) SaveHistory(history *domain.VPNHistory) error {
	return self.Db.QueryRow(
		context.Background(),
		`INSERT INTO vpn_history (vpn_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created`,
		history.VPNID, history.UserID, history.Message,
	).Scan(&history.ID, &history.Created)
}
