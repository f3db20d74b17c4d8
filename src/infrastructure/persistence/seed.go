package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
)

// Seed inserts the static catalogs. Every statement is idempotent so the
// subcommand can run on every deploy.
func Seed(db config.PgxIface, logger *zerolog.Logger) error {
	return pgx.BeginFunc(context.Background(), db, func(tx pgx.Tx) error {
		for _, seed := range []struct {
			what string
			sql  string
		}{
			{"server types", `
				INSERT INTO server_type (id, name) VALUES
					(1, 'HyperV'),
					(2, 'KVM'),
					(3, 'Phantom')
				ON CONFLICT DO NOTHING`},
			{"storage types", `
				INSERT INTO storage_type (id, name) VALUES
					(1, 'HDD'),
					(2, 'SSD')
				ON CONFLICT DO NOTHING`},
			{"device types", `
				INSERT INTO device_type (id, description, sku) VALUES
					(1, 'NVIDIA A100 40GB', 'GPUA100_001'),
					(2, 'NVIDIA A100 80GB', 'GPUA100_002'),
					(3, 'NVIDIA H100 80GB', 'GPUH100_001')
				ON CONFLICT DO NOTHING`},
			{"images", `
				INSERT INTO image (id, answer_file_name, cloud_init, display_name, filename, multiple_ips, os_variant, public, server_type_id) VALUES
					(2, 'win2016.xml', false, 'Windows Server 2016', 'win2016.vhdx', false, 'win2k16', true, 1),
					(3, 'win2019.xml', false, 'Windows Server 2019', 'win2019.vhdx', false, 'win2k19', true, 1),
					(4, 'win2019core.xml', false, 'Windows Server 2019 Core', 'win2019core.vhdx', false, 'win2k19', true, 1),
					(5, 'win2022.xml', false, 'Windows Server 2022', 'win2022.vhdx', false, 'win2k22', true, 1),
					(6, NULL, true, 'Ubuntu 18.04', 'ubuntu1804.qcow2', true, 'ubuntu18.04', true, 2),
					(7, NULL, true, 'Ubuntu 20.04', 'ubuntu2004.qcow2', true, 'ubuntu20.04', true, 2),
					(8, NULL, true, 'Ubuntu 22.04', 'ubuntu2204.qcow2', true, 'ubuntu22.04', true, 2),
					(9, NULL, true, 'CentOS 7', 'centos7.qcow2', true, 'centos7.0', true, 2),
					(10, NULL, true, 'CentOS Stream 8', 'centosstream8.qcow2', true, 'centos-stream8', true, 2),
					(11, NULL, true, 'CentOS Stream 9', 'centosstream9.qcow2', true, 'centos-stream9', true, 2),
					(12, NULL, true, 'Debian 10', 'debian10.qcow2', true, 'debian10', true, 2),
					(13, NULL, true, 'Debian 11', 'debian11.qcow2', true, 'debian11', true, 2),
					(14, NULL, true, 'Rocky Linux 8', 'rocky8.qcow2', true, 'rocky8', true, 2),
					(15, NULL, true, 'Rocky Linux 9', 'rocky9.qcow2', true, 'rocky9', true, 2),
					(16, NULL, true, 'Fedora 36', 'fedora36.qcow2', true, 'fedora36', true, 2),
					(17, NULL, true, 'AlmaLinux 8', 'alma8.qcow2', true, 'almalinux8', true, 2),
					(18, NULL, true, 'AlmaLinux 9', 'alma9.qcow2', true, 'almalinux9', true, 2),
					(19, NULL, true, 'Ubuntu 22.10', 'ubuntu2210.qcow2', true, 'ubuntu22.10', true, 2)
				ON CONFLICT DO NOTHING`},
			{"image id sequence", `
				SELECT setval(pg_get_serial_sequence('image', 'id'), greatest(19, (SELECT max(id) FROM image)))`},
		} {
			if _, err := tx.Exec(context.Background(), seed.sql); err != nil {
				return errors.WithMessagef(err, "Failed to seed %s", seed.what)
			}
			logger.Debug().Str("catalog", seed.what).Msg("Seeded")
		}
		return nil
	})
}
