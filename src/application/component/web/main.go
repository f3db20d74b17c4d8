package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/application"
	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

type Web struct {
	Config config.WebConfig

	Logger zerolog.Logger
	Db     config.PgxIface

	ProjectService        service.ProjectService
	VmService             service.VmService
	ServerService         service.ServerService
	ServerTypeService     service.ServerTypeService
	StorageTypeService    service.StorageTypeService
	ImageService          service.ImageService
	AsnService            service.AsnService
	AllocationService     service.AllocationService
	SubnetService         service.SubnetService
	IPAddressService      service.IPAddressService
	IPAddressGroupService service.IPAddressGroupService
	DeviceService         service.DeviceService
	DeviceTypeService     service.DeviceTypeService
	CephService           service.CephService
	SnapshotService       service.SnapshotService
	BackupService         service.BackupService
	RouterService         service.RouterService
	VirtualRouterService  service.VirtualRouterService
	VpnService            service.VpnService
	DomainService         service.DomainService
	RecordService         service.RecordService
	PtrRecordService      service.PtrRecordService
	RunRobotService       service.RunRobotService
	CloudBillService      service.CloudBillService
	AppSettingsService    service.AppSettingsService
	MetricsService        service.MetricsService
	PolicyLogService      service.PolicyLogService
}

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iaas_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iaas_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func (self *Web) router() *mux.Router {
	muxRouter := mux.NewRouter().StrictSlash(true).UseEncodedPath()
	muxRouter.NotFoundHandler = http.NotFoundHandler()

	muxRouter.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r := muxRouter.NewRoute().Subrouter()
	r.Use(self.instrument, self.authenticate)

	// sorted by aggregate, please keep it this way
	r.HandleFunc("/allocation", self.AllocationGet).Methods(http.MethodGet)
	r.HandleFunc("/allocation", self.AllocationPost).Methods(http.MethodPost)
	r.HandleFunc("/allocation/{id}", self.AllocationIdGet).Methods(http.MethodGet)
	r.HandleFunc("/allocation/{id}", self.AllocationIdPut).Methods(http.MethodPut)
	r.HandleFunc("/allocation/{id}", self.AllocationIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/allocation/{id}/subnet_space", self.AllocationIdSubnetSpaceGet).Methods(http.MethodGet)
	r.HandleFunc("/app_settings", self.AppSettingsGet).Methods(http.MethodGet)
	r.HandleFunc("/app_settings", self.AppSettingsPost).Methods(http.MethodPost)
	r.HandleFunc("/app_settings/{id}", self.AppSettingsIdGet).Methods(http.MethodGet)
	r.HandleFunc("/app_settings/{id}", self.AppSettingsIdPut).Methods(http.MethodPut)
	r.HandleFunc("/app_settings/{id}", self.AppSettingsIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/asn", self.AsnGet).Methods(http.MethodGet)
	r.HandleFunc("/asn", self.AsnPost).Methods(http.MethodPost)
	r.HandleFunc("/asn/{id}", self.AsnIdGet).Methods(http.MethodGet)
	r.HandleFunc("/asn/{id}", self.AsnIdPut).Methods(http.MethodPut)
	r.HandleFunc("/asn/{id}", self.AsnIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/attach/{resource_id}/parent/{parent_resource_id}", self.AttachPut).Methods(http.MethodPut)
	r.HandleFunc("/backup", self.BackupGet).Methods(http.MethodGet)
	r.HandleFunc("/backup", self.BackupPost).Methods(http.MethodPost)
	r.HandleFunc("/backup/{id}", self.BackupIdGet).Methods(http.MethodGet)
	r.HandleFunc("/backup/{id}", self.BackupIdPut).Methods(http.MethodPut)
	r.HandleFunc("/backup/{backup_id}/history", self.BackupIdHistoryGet).Methods(http.MethodGet)
	r.HandleFunc("/ceph", self.CephGet).Methods(http.MethodGet)
	r.HandleFunc("/ceph", self.CephPost).Methods(http.MethodPost)
	r.HandleFunc("/ceph/{id}", self.CephIdGet).Methods(http.MethodGet)
	r.HandleFunc("/ceph/{id}", self.CephIdPut).Methods(http.MethodPut)
	r.HandleFunc("/cloud_bill", self.CloudBillGet).Methods(http.MethodGet)
	r.HandleFunc("/detach/{resource_id}", self.DetachPut).Methods(http.MethodPut)
	r.HandleFunc("/device", self.DeviceGet).Methods(http.MethodGet)
	r.HandleFunc("/device", self.DevicePost).Methods(http.MethodPost)
	r.HandleFunc("/device/{id}", self.DeviceIdGet).Methods(http.MethodGet)
	r.HandleFunc("/device/{id}", self.DeviceIdPut).Methods(http.MethodPut)
	r.HandleFunc("/device_type", self.DeviceTypeGet).Methods(http.MethodGet)
	r.HandleFunc("/device_type/{id}", self.DeviceTypeIdGet).Methods(http.MethodGet)
	r.HandleFunc("/domain", self.DomainGet).Methods(http.MethodGet)
	r.HandleFunc("/domain", self.DomainPost).Methods(http.MethodPost)
	r.HandleFunc("/domain/{id}", self.DomainIdGet).Methods(http.MethodGet)
	r.HandleFunc("/domain/{id}", self.DomainIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/image", self.ImageGet).Methods(http.MethodGet)
	r.HandleFunc("/image/{id}", self.ImageIdGet).Methods(http.MethodGet)
	r.HandleFunc("/image/{id}/region", self.ImageIdRegionGet).Methods(http.MethodGet)
	r.HandleFunc("/image/{id}/region", self.ImageIdRegionPost).Methods(http.MethodPost)
	r.HandleFunc("/image/{id}/region", self.ImageIdRegionDelete).Methods(http.MethodDelete)
	r.HandleFunc("/ip_address", self.IPAddressGet).Methods(http.MethodGet)
	r.HandleFunc("/ip_address", self.IPAddressPost).Methods(http.MethodPost)
	r.HandleFunc("/ip_address/{id}", self.IPAddressIdGet).Methods(http.MethodGet)
	r.HandleFunc("/ip_address/{id}", self.IPAddressIdPut).Methods(http.MethodPut)
	r.HandleFunc("/ip_address/{id}", self.IPAddressIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/ip_address_group", self.IPAddressGroupGet).Methods(http.MethodGet)
	r.HandleFunc("/ip_address_group", self.IPAddressGroupPost).Methods(http.MethodPost)
	r.HandleFunc("/ip_address_group/{id}", self.IPAddressGroupIdGet).Methods(http.MethodGet)
	r.HandleFunc("/ip_address_group/{id}", self.IPAddressGroupIdPut).Methods(http.MethodPut)
	r.HandleFunc("/ip_address_group/{id}", self.IPAddressGroupIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/ip_validator", self.IPValidatorGet).Methods(http.MethodGet)
	r.HandleFunc("/metrics_data/{region_id}", self.MetricsDataGet).Methods(http.MethodGet)
	r.HandleFunc("/policy_log/{project_id}", self.PolicyLogGet).Methods(http.MethodGet)
	r.HandleFunc("/project", self.ProjectGet).Methods(http.MethodGet)
	r.HandleFunc("/project", self.ProjectPost).Methods(http.MethodPost)
	r.HandleFunc("/project/{id}", self.ProjectIdGet).Methods(http.MethodGet)
	r.HandleFunc("/project/{id}", self.ProjectIdPut).Methods(http.MethodPut)
	r.HandleFunc("/ptr_record", self.PtrRecordGet).Methods(http.MethodGet)
	r.HandleFunc("/ptr_record", self.PtrRecordPost).Methods(http.MethodPost)
	r.HandleFunc("/ptr_record/{id}", self.PtrRecordIdGet).Methods(http.MethodGet)
	r.HandleFunc("/ptr_record/{id}", self.PtrRecordIdPut).Methods(http.MethodPut)
	r.HandleFunc("/ptr_record/{id}", self.PtrRecordIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/record", self.RecordGet).Methods(http.MethodGet)
	r.HandleFunc("/record", self.RecordPost).Methods(http.MethodPost)
	r.HandleFunc("/record/{id}", self.RecordIdGet).Methods(http.MethodGet)
	r.HandleFunc("/record/{id}", self.RecordIdPut).Methods(http.MethodPut)
	r.HandleFunc("/record/{id}", self.RecordIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/router", self.RouterGet).Methods(http.MethodGet)
	r.HandleFunc("/router", self.RouterPost).Methods(http.MethodPost)
	r.HandleFunc("/router/{id}", self.RouterIdGet).Methods(http.MethodGet)
	r.HandleFunc("/router/{id}", self.RouterIdPut).Methods(http.MethodPut)
	r.HandleFunc("/run_robot", self.RunRobotGet).Methods(http.MethodGet)
	r.HandleFunc("/run_robot", self.RunRobotPost).Methods(http.MethodPost)
	r.HandleFunc("/server", self.ServerGet).Methods(http.MethodGet)
	r.HandleFunc("/server", self.ServerPost).Methods(http.MethodPost)
	r.HandleFunc("/server/{id}", self.ServerIdGet).Methods(http.MethodGet)
	r.HandleFunc("/server/{id}", self.ServerIdPut).Methods(http.MethodPut)
	r.HandleFunc("/server_type", self.ServerTypeGet).Methods(http.MethodGet)
	r.HandleFunc("/server_type/{id}", self.ServerTypeIdGet).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", self.SnapshotGet).Methods(http.MethodGet)
	r.HandleFunc("/snapshot", self.SnapshotPost).Methods(http.MethodPost)
	r.HandleFunc("/snapshot/{id}", self.SnapshotIdGet).Methods(http.MethodGet)
	r.HandleFunc("/snapshot/{id}", self.SnapshotIdPut).Methods(http.MethodPut)
	r.HandleFunc("/snapshot/{snapshot_id}/history", self.SnapshotIdHistoryGet).Methods(http.MethodGet)
	r.HandleFunc("/snapshot_tree/{vm_id}", self.SnapshotTreeGet).Methods(http.MethodGet)
	r.HandleFunc("/storage_type", self.StorageTypeGet).Methods(http.MethodGet)
	r.HandleFunc("/storage_type/{id}", self.StorageTypeIdGet).Methods(http.MethodGet)
	r.HandleFunc("/subnet", self.SubnetGet).Methods(http.MethodGet)
	r.HandleFunc("/subnet", self.SubnetPost).Methods(http.MethodPost)
	r.HandleFunc("/subnet/{id}", self.SubnetIdGet).Methods(http.MethodGet)
	r.HandleFunc("/subnet/{id}", self.SubnetIdPut).Methods(http.MethodPut)
	r.HandleFunc("/subnet/{id}", self.SubnetIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/virtual_router", self.VirtualRouterGet).Methods(http.MethodGet)
	r.HandleFunc("/virtual_router/{id}", self.VirtualRouterIdGet).Methods(http.MethodGet)
	r.HandleFunc("/virtual_router/{id}", self.VirtualRouterIdPut).Methods(http.MethodPut)
	r.HandleFunc("/vm", self.VmGet).Methods(http.MethodGet)
	r.HandleFunc("/vm", self.VmPost).Methods(http.MethodPost)
	r.HandleFunc("/vm/{id}", self.VmIdGet).Methods(http.MethodGet)
	r.HandleFunc("/vm/{id}", self.VmIdPut).Methods(http.MethodPut)
	r.HandleFunc("/vm/{vm_id}/history", self.VmIdHistoryGet).Methods(http.MethodGet)
	r.HandleFunc("/vm/{vm_id}/storage", self.VmIdStorageGet).Methods(http.MethodGet)
	r.HandleFunc("/vm/{vm_id}/storage/{id}", self.VmIdStorageIdGet).Methods(http.MethodGet)
	r.HandleFunc("/vpn", self.VpnGet).Methods(http.MethodGet)
	r.HandleFunc("/vpn", self.VpnPost).Methods(http.MethodPost)
	r.HandleFunc("/vpn/{id}", self.VpnIdGet).Methods(http.MethodGet)
	r.HandleFunc("/vpn/{id}", self.VpnIdPut).Methods(http.MethodPut)
	r.HandleFunc("/vpn/{id}", self.VpnIdDelete).Methods(http.MethodDelete)
	r.HandleFunc("/vpn/{vpn_id}/history", self.VpnIdHistoryGet).Methods(http.MethodGet)

	return muxRouter
}

func (self *Web) Start(ctx context.Context) error {
	self.Logger.Info().Str("listen", self.Config.Listen).Msg("Starting")

	server := &http.Server{Addr: self.Config.Listen, Handler: self.router()}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			self.Logger.Err(err).Msgf("Failed to start web server on %s", self.Config.Listen)
		}
	}()

	<-ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		self.Logger.Err(err).Msg("Failed to stop web server")
	}

	return nil
}

type contextKey int

const requesterKey contextKey = iota

func (self *Web) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		token := req.Header.Get("X-Auth-Token")
		requester := domain.Requester{}
		if token == "" {
			self.Error(w, domain.NewApiError(domain.CodeAuthentication))
			return
		}
		if err := self.Config.TokenCodec.Decode("token", token, &requester); err != nil {
			self.Logger.Debug().Err(err).Msg("Rejected auth token")
			self.Error(w, domain.NewApiError(domain.CodeAuthentication))
			return
		}
		next.ServeHTTP(w, req.WithContext(
			context.WithValue(req.Context(), requesterKey, requester),
		))
	})
}

func requester(req *http.Request) domain.Requester {
	return req.Context().Value(requesterKey).(domain.Requester)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (self *statusRecorder) WriteHeader(status int) {
	self.status = status
	self.ResponseWriter.WriteHeader(status)
}

func (self *Web) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		route := req.URL.Path
		if current := mux.CurrentRoute(req); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		recorder := &statusRecorder{w, http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, req)

		httpDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(recorder.status)).Inc()
	})
}

func getPage(req *http.Request) (*repository.Page, error) {
	page := repository.Page{}

	if offsetStr := req.FormValue("offset"); offsetStr == "" {
		page.Offset = 0
	} else if offset, err := strconv.Atoi(offsetStr); err != nil || offset < 0 {
		return nil, errors.New("offset parameter is invalid, should be a non-negative integer")
	} else {
		page.Offset = offset
	}

	if limitStr := req.FormValue("limit"); limitStr == "" {
		page.Limit = 10
	} else if limit, err := strconv.Atoi(limitStr); err != nil || limit < 1 {
		return nil, errors.New("limit parameter is invalid, should be a positive integer")
	} else {
		page.Limit = limit
	}

	page.Order = req.FormValue("order")

	return &page, nil
}

func pathId(req *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(req)[name])
	return id, errors.WithMessagef(err, "Could not parse %s", name)
}

// Query parameter helpers for list filters. Absent parameters stay nil.
func queryInt(req *http.Request, name string) *int {
	if str := req.FormValue(name); str != "" {
		if v, err := strconv.Atoi(str); err == nil {
			return &v
		}
	}
	return nil
}

func queryInt64(req *http.Request, name string) *int64 {
	if str := req.FormValue(name); str != "" {
		if v, err := strconv.ParseInt(str, 10, 64); err == nil {
			return &v
		}
	}
	return nil
}

func queryString(req *http.Request, name string) *string {
	if str := req.FormValue(name); str != "" {
		return &str
	}
	return nil
}

func queryBool(req *http.Request, name string) *bool {
	if str := req.FormValue(name); str != "" {
		if v, err := strconv.ParseBool(str); err == nil {
			return &v
		}
	}
	return nil
}

func queryState(req *http.Request, name string) *domain.State {
	if v := queryInt(req, name); v != nil {
		state := domain.State(*v)
		return &state
	}
	return nil
}

func (self *Web) decode(w http.ResponseWriter, req *http.Request, body any) bool {
	if err := json.NewDecoder(req.Body).Decode(body); err != nil {
		self.Error(w, HandlerError{
			errors.WithMessage(err, "Could not unmarshal request body"),
			http.StatusBadRequest,
		})
		return false
	}
	return true
}

// content writes the standard collection envelope.
func (self *Web) content(w http.ResponseWriter, items any, page *repository.Page) {
	self.json(w, map[string]any{"content": items, "page": page}, http.StatusOK)
}

func (self *Web) json(w http.ResponseWriter, obj any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		self.Logger.Err(err).Msg("While encoding response body")
	}
}

type HandlerError struct {
	error
	StatusCode int
}

// Error translates service errors to HTTP responses: ApiError by code
// class, FieldErrors to 400, unreachable upstreams to 503, everything
// else to 500.
func (self *Web) Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var body any

	var apiErr domain.ApiError
	var fieldErrs domain.FieldErrors
	var handlerErr HandlerError
	switch {
	case errors.As(err, &fieldErrs):
		status = http.StatusBadRequest
		body = map[string]any{"errors": fieldErrs}
	case errors.As(err, &apiErr):
		status = apiErr.StatusCode()
		body = apiErr
	case errors.As(err, &handlerErr):
		status = handlerErr.StatusCode
		detail := ""
		if handlerErr.error != nil {
			detail = handlerErr.error.Error()
		}
		body = map[string]string{"detail": detail}
	case errors.Is(err, application.ErrDnsProviderUnavailable),
		errors.Is(err, service.ErrLogStoreUnavailable):
		status = http.StatusServiceUnavailable
		body = map[string]string{"detail": err.Error()}
	default:
		body = map[string]string{"detail": "Internal server error."}
	}

	var e *zerolog.Event
	if status >= 500 {
		e = self.Logger.Error().Err(err)
	} else {
		e = self.Logger.Debug().Err(err)
	}
	e.Int("status", status).Msg("Handler error")

	self.json(w, body, status)
}
