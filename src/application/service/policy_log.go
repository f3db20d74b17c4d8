package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/grafana/loki/pkg/loghttp"
	"github.com/pborman/ansi"
	"github.com/pkg/errors"
	prometheus "github.com/prometheus/client_golang/api"
	"github.com/rs/zerolog"

	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
	"github.com/strataops/iaas/src/infrastructure/persistence"
)

// ErrLogStoreUnavailable marks failures to reach Loki so the web layer
// can answer 503 instead of 500.
var ErrLogStoreUnavailable = errors.New("log store unavailable")

const policyLogWindow = 7 * 24 * time.Hour

type PolicyLog []PolicyLogLine

type PolicyLogLine struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

type PolicyLogService interface {
	GetByProject(requester domain.Requester, projectID int) (PolicyLog, error)
}

type policyLogService struct {
	logger            zerolog.Logger
	loki              prometheus.Client
	projectRepository repository.ProjectRepository
}

func NewPolicyLogService(db config.PgxIface, lokiClient prometheus.Client, logger *zerolog.Logger) PolicyLogService {
	return &policyLogService{
		logger:            logger.With().Str("component", "PolicyLogService").Logger(),
		loki:              lokiClient,
		projectRepository: persistence.NewProjectRepository(db),
	}
}

func (self *policyLogService) GetByProject(requester domain.Requester, projectID int) (PolicyLog, error) {
	project, err := self.projectRepository.GetById(projectID)
	if err != nil {
		return nil, errors.WithMessagef(err, "Could not select Project %d", projectID)
	}
	visible := project != nil
	if visible {
		if requester.Robot {
			visible = project.RegionID == requester.RegionID()
		} else {
			visible = requester.CanSeeAddress(project.AddressID)
		}
	}
	if !visible || project.VirtualRouterID == nil {
		return nil, domain.NewApiError("iaas_policy_log_list_001")
	}

	query := fmt.Sprintf(`{job="firewall", virtual_router_id="%d"}`, *project.VirtualRouterID)
	log, err := self.queryRange(query, time.Now().UTC().Add(-policyLogWindow))
	if err != nil {
		return nil, err
	}

	log.Sort()
	log.Deduplicate()

	self.logger.Trace().
		Int("project_id", projectID).
		Int("lines", len(log)).
		Msg("Fetched policy log")
	return log, nil
}

// queryRange pages through Loki's query_range endpoint, advancing the
// window past the newest entry seen until a short page ends the scan.
func (self *policyLogService) queryRange(query string, start time.Time) (PolicyLog, error) {
	const limit int64 = 5000
	const linesToFetch = 10000

	end := time.Now().UTC().Add(time.Minute)
	log := PolicyLog{}

	for {
		req, err := http.NewRequest(
			http.MethodGet,
			self.loki.URL("/loki/api/v1/query_range", nil).String(),
			http.NoBody,
		)
		if err != nil {
			return nil, err
		}

		q := req.URL.Query()
		q.Set("query", query)
		q.Set("limit", strconv.FormatInt(limit, 10))
		q.Set("start", strconv.FormatInt(start.UnixNano(), 10))
		q.Set("end", strconv.FormatInt(end.UnixNano(), 10))
		q.Set("direction", "FORWARD")
		req.URL.RawQuery = q.Encode()

		resp, body, err := self.loki.Do(context.Background(), req)
		if err != nil {
			return nil, errors.WithMessage(ErrLogStoreUnavailable, err.Error())
		}
		if resp.StatusCode/100 != 2 {
			return nil, errors.WithMessagef(ErrLogStoreUnavailable, "Error response %d from Loki: %s", resp.StatusCode, string(body))
		}

		response := loghttp.QueryResponse{}
		if err := json.Unmarshal(body, &response); err != nil {
			return nil, err
		}

		streams, ok := response.Data.Result.(loghttp.Streams)
		if !ok {
			return nil, fmt.Errorf("Unexpected Loki result type: %s", response.Data.Result.Type())
		}
		if len(streams) == 0 {
			return log, nil
		}

		var numEntries int64
		for _, stream := range streams {
			log.fromStream(stream)
			numEntries += int64(len(stream.Entries))
			for _, entry := range stream.Entries {
				if entry.Timestamp.After(start) {
					start = entry.Timestamp
				}
			}
		}
		if numEntries < limit || len(log) >= linesToFetch {
			return log, nil
		}
	}
}

func (self *PolicyLog) fromStream(stream loghttp.Stream) {
	for _, entry := range stream.Entries {
		text := entry.Line
		if sane, err := ansi.Strip([]byte(entry.Line)); err == nil {
			text = string(sane)
		}
		*self = append(*self, PolicyLogLine{Time: entry.Timestamp, Text: text})
	}
}

func (self *PolicyLog) Sort() {
	sort.Slice(*self, func(i, j int) bool {
		return (*self)[i].Time.Before((*self)[j].Time)
	})
}

// Deduplicate drops adjacent equal lines. Assumes the log is sorted.
func (self *PolicyLog) Deduplicate() {
	deduped := make(PolicyLog, 0, len(*self))
	for i, line := range *self {
		if i > 0 && line.Time.Equal((*self)[i-1].Time) && line.Text == (*self)[i-1].Text {
			continue
		}
		deduped = append(deduped, line)
	}
	*self = deduped
}
