package iaas

import (
	"context"
	"time"

	"cirello.io/oversight"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	prometheus "github.com/prometheus/client_golang/api"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/application"
	"github.com/strataops/iaas/src/application/component/web"
	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

type StartCmd struct {
	LokiAddr        string `arg:"--loki-addr,env:IAAS_LOKI_ADDR" default:"http://127.0.0.1:3100"`
	DnsProviderAddr string `arg:"--dns-provider-addr,env:IAAS_DNS_PROVIDER_ADDR" default:"https://dns.example.com/api"`

	WebListen     string `arg:"--web-listen,env:IAAS_WEB_LISTEN" default:":8080"`
	WebTokenHash  string `arg:"--web-token-hash" help:"file that contains the token hash key"`
	WebTokenBlock string `arg:"--web-token-block" help:"file that contains the token block key"`

	LogDb bool `arg:"--log-db"`
}

func (cmd StartCmd) Run(logger *zerolog.Logger) error {
	if url, err := config.DbUrl(); err != nil {
		return err
	} else if err := persistence.Migrate(url, logger); err != nil {
		return errors.WithMessage(err, "While migrating the database")
	}

	instance, err := NewInstance(cmd, logger)
	if err != nil {
		return err
	}
	defer instance.Close()

	return instance.Run(context.Background())
}

func NewInstance(cmd StartCmd, logger *zerolog.Logger) (Instance, error) {
	instance := Instance{logger: logger}

	if db, err := config.DBConnection(logger, cmd.LogDb); err != nil {
		return instance, err
	} else {
		instance.db = db
	}

	var lokiClient prometheus.Client
	if client, err := prometheus.NewClient(prometheus.Config{
		Address: cmd.LokiAddr,
	}); err != nil {
		return instance, err
	} else {
		lokiClient = client
	}

	dnsProvider := application.NewDnsProviderClient(
		cmd.DnsProviderAddr,
		persistence.NewAppSettingsRepository(instance.db),
		logger,
	)

	// Most services only need the pool. The project service comes first
	// because visibility checks of project-owned aggregates go through it.
	projectService := service.NewProjectService(instance.db, logger)

	webConfig, err := config.NewWebConfig(cmd.WebListen, cmd.WebTokenHash, cmd.WebTokenBlock)
	if err != nil {
		return instance, err
	}

	instance.Web = &web.Web{
		Config: webConfig,
		Logger: logger.With().Str("component", "Web").Logger(),
		Db:     instance.db,

		ProjectService:        projectService,
		VmService:             service.NewVmService(instance.db, projectService, logger),
		ServerService:         service.NewServerService(instance.db, logger),
		ServerTypeService:     service.NewServerTypeService(instance.db, logger),
		StorageTypeService:    service.NewStorageTypeService(instance.db, logger),
		ImageService:          service.NewImageService(instance.db, logger),
		AsnService:            service.NewAsnService(instance.db, logger),
		AllocationService:     service.NewAllocationService(instance.db, logger),
		SubnetService:         service.NewSubnetService(instance.db, projectService, logger),
		IPAddressService:      service.NewIPAddressService(instance.db, logger),
		IPAddressGroupService: service.NewIPAddressGroupService(instance.db, logger),
		DeviceService:         service.NewDeviceService(instance.db, logger),
		DeviceTypeService:     service.NewDeviceTypeService(instance.db, logger),
		CephService:           service.NewCephService(instance.db, projectService, logger),
		SnapshotService:       service.NewSnapshotService(instance.db, projectService, logger),
		BackupService:         service.NewBackupService(instance.db, projectService, logger),
		RouterService:         service.NewRouterService(instance.db, logger),
		VirtualRouterService:  service.NewVirtualRouterService(instance.db, logger),
		VpnService:            service.NewVpnService(instance.db, projectService, logger),
		DomainService:         service.NewDomainService(instance.db, dnsProvider, logger),
		RecordService:         service.NewRecordService(instance.db, dnsProvider, logger),
		PtrRecordService:      service.NewPtrRecordService(instance.db, dnsProvider, logger),
		RunRobotService:       service.NewRunRobotService(instance.db, logger),
		CloudBillService:      service.NewCloudBillService(instance.db, logger),
		AppSettingsService:    service.NewAppSettingsService(instance.db, logger),
		MetricsService:        service.NewMetricsService(instance.db, logger),
		PolicyLogService:      service.NewPolicyLogService(instance.db, lokiClient, logger),
	}

	return instance, nil
}

type Instance struct {
	Web *web.Web

	logger *zerolog.Logger
	db     *pgxpool.Pool
}

func (self Instance) Close() {
	if self.db != nil {
		self.db.Close()
	}
}

func (self Instance) Run(ctx context.Context) error {
	self.logger.Info().Msg("Starting components")

	supervisor := oversight.New(
		oversight.WithLogger(&config.SupervisorLogger{Logger: self.logger}),
		oversight.WithSpecification(
			10,                    // number of restarts
			1*time.Minute,         // within this time period
			oversight.OneForOne(), // restart every task on its own
		),
	)

	if err := supervisor.Add(self.Web.Start); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := supervisor.Start(ctx); err != nil {
		return errors.WithMessage(err, "While starting supervisor")
	}

	<-ctx.Done()
	return nil
}

type MigrateCmd struct{}

func (cmd MigrateCmd) Run(logger *zerolog.Logger) error {
	url, err := config.DbUrl()
	if err != nil {
		return err
	}
	return persistence.Migrate(url, logger)
}

type SeedCmd struct {
	LogDb bool `arg:"--log-db"`
}

func (cmd SeedCmd) Run(logger *zerolog.Logger) error {
	db, err := config.DBConnection(logger, cmd.LogDb)
	if err != nil {
		return err
	}
	defer db.Close()

	return persistence.Seed(db, logger)
}
