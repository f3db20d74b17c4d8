package application

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

// DnsProviderClient talks to the external authoritative DNS provider.
// The provider assigns the ids that dns_domain and record rows carry.
type DnsProviderClient interface {
	CreateDomain(name, email string) (int, error)
	DeleteDomain(id int) (bool, error)
	CreateReverseDomain4(cidr, email string) (int, error)
	CreateReverseDomain6(cidr, email string) (int, error)
	ListRecords(domainID int) ([]domain.Record, error)
	CreateRecord(domainID int, record domain.Record) (int, error)
	UpdateRecord(id int, record domain.Record) (bool, error)
	DeleteRecord(id int) (bool, error)
}

// ErrDnsProviderUnavailable marks transport-level failures so the API
// layer can answer 503 instead of a validation error.
var ErrDnsProviderUnavailable = errors.New("DNS provider unreachable")

var dnsProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "iaas_dns_provider_requests_total",
	Help: "Requests made to the external DNS provider.",
}, []string{"operation", "outcome"})

type dnsProviderClient struct {
	baseURL     string
	client      *retryablehttp.Client
	appSettings repository.AppSettingsRepository
	logger      zerolog.Logger
}

func NewDnsProviderClient(baseURL string, appSettings repository.AppSettingsRepository, logger *zerolog.Logger) DnsProviderClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 4
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = nil

	return &dnsProviderClient{
		baseURL:     baseURL,
		client:      client,
		appSettings: appSettings,
		logger:      logger.With().Str("component", "DnsProviderClient").Logger(),
	}
}

// The provider answers every mutating call with the same envelope.
type providerStatus struct {
	Status bool   `json:"status"`
	ID     int    `json:"id"`
	Error  string `json:"error"`
}

type providerRecord struct {
	ID       int    `json:"id"`
	DomainID int    `json:"domain_id"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	TTL      int    `json:"ttl"`
	Priority *int   `json:"priority"`
}

func (self *dnsProviderClient) CreateDomain(name, email string) (int, error) {
	return self.getStatusID("createregulardomain", url.Values{
		"name":  {name},
		"email": {email},
	})
}

func (self *dnsProviderClient) DeleteDomain(id int) (bool, error) {
	status, err := self.get("deletedomain/"+strconv.Itoa(id), nil)
	return status != nil && status.Status, err
}

func (self *dnsProviderClient) CreateReverseDomain4(cidr, email string) (int, error) {
	return self.getStatusID("createreversedomain4", url.Values{
		"subnet": {cidr},
		"email":  {email},
	})
}

func (self *dnsProviderClient) CreateReverseDomain6(cidr, email string) (int, error) {
	return self.getStatusID("createreversedomain6", url.Values{
		"subnet": {cidr},
		"email":  {email},
	})
}

func (self *dnsProviderClient) ListRecords(domainID int) ([]domain.Record, error) {
	body, err := self.do("getrecords", "getrecords/"+strconv.Itoa(domainID), nil)
	if err != nil {
		return nil, err
	}

	providerRecords := []providerRecord{}
	if err := json.Unmarshal(body, &providerRecords); err != nil {
		return nil, errors.WithMessage(err, "Failed to decode provider record list")
	}

	records := make([]domain.Record, len(providerRecords))
	for i, entry := range providerRecords {
		records[i] = domain.Record{
			ID:       entry.ID,
			DomainID: entry.DomainID,
			Name:     entry.Name,
			Content:  entry.Content,
			Type:     entry.Type,
			TTL:      entry.TTL,
			Priority: entry.Priority,
		}
	}
	return records, nil
}

func (self *dnsProviderClient) CreateRecord(domainID int, record domain.Record) (int, error) {
	return self.getStatusID("createrecord/"+strconv.Itoa(domainID), recordValues(record))
}

func (self *dnsProviderClient) UpdateRecord(id int, record domain.Record) (bool, error) {
	values := recordValues(record)
	values.Del("type")
	status, err := self.get("updaterecord/"+strconv.Itoa(id), values)
	return status != nil && status.Status, err
}

func (self *dnsProviderClient) DeleteRecord(id int) (bool, error) {
	status, err := self.get("deleterecord/"+strconv.Itoa(id), nil)
	return status != nil && status.Status, err
}

func recordValues(record domain.Record) url.Values {
	values := url.Values{
		"name":    {record.Name},
		"content": {record.Content},
		"type":    {record.Type},
		"ttl":     {strconv.Itoa(record.TTL)},
		"geozone": {strconv.Itoa(record.GeoRegion)},
	}
	if record.Priority != nil {
		values.Set("priority", strconv.Itoa(*record.Priority))
	}
	if record.Failover {
		values.Set("failover", "true")
		if record.FailoverContent != nil {
			values.Set("failovercontent", *record.FailoverContent)
		}
	}
	return values
}

func (self *dnsProviderClient) getStatusID(path string, query url.Values) (int, error) {
	status, err := self.get(path, query)
	if err != nil {
		return 0, err
	}
	return status.ID, nil
}

// get calls an envelope endpoint and turns status=false into an error
// carrying the provider's message.
func (self *dnsProviderClient) get(path string, query url.Values) (*providerStatus, error) {
	// Strip the trailing id so the metric label stays bounded.
	operation, _, _ := strings.Cut(path, "/")

	body, err := self.do(operation, path, query)
	if err != nil {
		return nil, err
	}

	status := providerStatus{}
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, errors.WithMessage(err, "Failed to decode provider response")
	}
	if !status.Status {
		return &status, errors.Errorf("Provider refused %s: %s", operation, status.Error)
	}
	return &status, nil
}

func (self *dnsProviderClient) do(operation, path string, query url.Values) ([]byte, error) {
	settings, err := self.appSettings.Get()
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, errors.New("DNS provider credentials are not configured")
	}

	requestURL := self.baseURL + "/rapi/" + path + "/"
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := retryablehttp.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(settings.ProviderEmail, settings.ProviderAPIKey)

	self.logger.Trace().Str("operation", operation).Msg("Calling DNS provider")

	res, err := self.client.Do(req)
	if err != nil {
		dnsProviderRequests.WithLabelValues(operation, "transport_error").Inc()
		return nil, errors.WithMessage(ErrDnsProviderUnavailable, err.Error())
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		dnsProviderRequests.WithLabelValues(operation, "transport_error").Inc()
		return nil, errors.WithMessage(ErrDnsProviderUnavailable, err.Error())
	}

	if res.StatusCode/100 != 2 {
		dnsProviderRequests.WithLabelValues(operation, "http_"+strconv.Itoa(res.StatusCode)).Inc()
		return nil, errors.WithMessagef(ErrDnsProviderUnavailable,
			"provider answered %d: %s", res.StatusCode, string(body),
		)
	}

	dnsProviderRequests.WithLabelValues(operation, "success").Inc()
	return body, nil
}
