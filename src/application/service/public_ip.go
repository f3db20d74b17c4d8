package service

import (
	"net/netip"

	"github.com/pkg/errors"

	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

// allocatePublicIP reserves the first free address in the router's
// public subnets, creating its row. Returns nil when every public
// subnet is exhausted.
func allocatePublicIP(
	subnetRepository repository.SubnetRepository,
	ipAddressRepository repository.IPAddressRepository,
	router *domain.Router,
	name string,
) (*domain.IPAddress, error) {
	for _, cidr := range router.PublicSubnets {
		subnet, err := subnetRepository.GetByRange(cidr)
		if err != nil {
			return nil, errors.WithMessagef(err, "Could not select public Subnet %q", cidr)
		}
		if subnet == nil {
			continue
		}

		prefix, err := subnet.Prefix()
		if err != nil {
			return nil, err
		}

		for address := prefix.Masked().Addr().Next(); prefix.Contains(address); address = address.Next() {
			if subnet.Gateway != nil && address.String() == *subnet.Gateway {
				continue
			}
			if isBroadcast(address, prefix) {
				break
			}
			count, err := ipAddressRepository.CountByAddress(subnet.ID, address.String())
			if err != nil {
				return nil, errors.WithMessagef(err, "Could not check address %q in Subnet %d", address, subnet.ID)
			}
			if count > 0 {
				continue
			}

			publicIP := domain.IPAddress{
				Address:  address.String(),
				Name:     name,
				SubnetID: subnet.ID,
			}
			if err := ipAddressRepository.Save(&publicIP); err != nil {
				return nil, errors.WithMessagef(err, "Could not insert public IP %q", address)
			}
			return &publicIP, nil
		}
	}
	return nil, nil
}

func isBroadcast(address netip.Addr, prefix netip.Prefix) bool {
	if !address.Is4() {
		return false
	}
	return !prefix.Contains(address.Next())
}
