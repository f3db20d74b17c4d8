package web

import (
	"io"
	"net/http"
	"testing"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"

	"github.com/strataops/iaas/src/application"
	"github.com/strataops/iaas/src/application/service"
	"github.com/strataops/iaas/src/config"
	"github.com/strataops/iaas/src/domain"
	"github.com/strataops/iaas/src/domain/repository"
)

// Stubs embed the service interface so that only the methods a test
// actually exercises need a body.
type stubProjectService struct {
	service.ProjectService

	getByPage func(domain.Requester, *repository.Page, repository.ProjectFilter) ([]domain.Project, error)
	getById   func(domain.Requester, int) (*domain.Project, error)
	create    func(domain.Requester, *domain.Project) error
}

func (self stubProjectService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.ProjectFilter) ([]domain.Project, error) {
	return self.getByPage(requester, page, filter)
}

func (self stubProjectService) GetById(requester domain.Requester, id int) (*domain.Project, error) {
	return self.getById(requester, id)
}

func (self stubProjectService) Create(requester domain.Requester, project *domain.Project) error {
	return self.create(requester, project)
}

type stubDomainService struct {
	service.DomainService

	getByPage func(domain.Requester, *repository.Page, repository.DnsDomainFilter) ([]domain.DNSDomain, error)
}

func (self stubDomainService) GetByPage(requester domain.Requester, page *repository.Page, filter repository.DnsDomainFilter) ([]domain.DNSDomain, error) {
	return self.getByPage(requester, page, filter)
}

func buildWeb(t *testing.T) *Web {
	t.Helper()
	return &Web{
		Config: config.WebConfig{
			Listen: ":0",
			TokenCodec: securecookie.New(
				[]byte("very-secret-hash-key-of-32-bytes"),
				[]byte("0123456789abcdef"),
			),
		},
		Logger: zerolog.New(io.Discard),
	}
}

func authToken(t *testing.T, web *Web, requester domain.Requester) string {
	t.Helper()
	token, err := web.Config.TokenCodec.Encode("token", requester)
	if err != nil {
		t.Fatalf("an error was not expected when encoding the auth token: %q", err)
	}
	return token
}

func TestWebAuthentication(t *testing.T) {
	t.Parallel()

	web := buildWeb(t)

	tries := map[string]struct {
		token string
	}{
		"missing token": {""},
		"garbage token": {"not-a-token"},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			apitest.New().Handler(web.router()).
				Get("/project").
				Header("X-Auth-Token", try.token).
				Expect(t).
				Status(http.StatusUnauthorized).
				Body(`{
					"error_code": "iaas_authentication_001",
					"detail": "The X-Auth-Token header is missing or could not be decoded."
				}`).
				End()
		})
	}
}

func TestWebMetricsNeedNoToken(t *testing.T) {
	t.Parallel()

	apitest.New().Handler(buildWeb(t).router()).
		Get("/metrics").
		Expect(t).
		Status(http.StatusOK).
		End()
}

func TestWebProjectList(t *testing.T) {
	t.Parallel()

	// given
	web := buildWeb(t)
	var seenRequester domain.Requester
	var seenFilter repository.ProjectFilter
	var seenOrder string
	web.ProjectService = stubProjectService{
		getByPage: func(requester domain.Requester, page *repository.Page, filter repository.ProjectFilter) ([]domain.Project, error) {
			seenRequester = requester
			seenFilter = filter
			seenOrder = page.Order
			page.Total = 12
			return []domain.Project{}, nil
		},
	}
	token := authToken(t, web, domain.Requester{ID: 5, AddressID: 10})

	// when
	apitest.New().Handler(web.router()).
		Get("/project").
		Query("region_id", "3").
		Query("archived", "true").
		Query("order", "-name").
		Header("X-Auth-Token", token).
		Expect(t).
		Status(http.StatusOK).
		Body(`{
			"content": [],
			"page": {
				"offset": 0,
				"limit": 10,
				"total": 12,
				"number": 1,
				"pages": 2,
				"prev_offset": null,
				"next_offset": 10
			}
		}`).
		End()

	// then
	assert.Equal(t, 5, seenRequester.ID)
	assert.Equal(t, 10, seenRequester.AddressID)
	if assert.NotNil(t, seenFilter.RegionID) {
		assert.Equal(t, 3, *seenFilter.RegionID)
	}
	if assert.NotNil(t, seenFilter.Archived) {
		assert.True(t, *seenFilter.Archived)
	}
	assert.Nil(t, seenFilter.Name)
	assert.Equal(t, "-name", seenOrder)
}

func TestWebPageParameters(t *testing.T) {
	t.Parallel()

	web := buildWeb(t)
	web.ProjectService = stubProjectService{
		getByPage: func(domain.Requester, *repository.Page, repository.ProjectFilter) ([]domain.Project, error) {
			return []domain.Project{}, nil
		},
	}
	token := authToken(t, web, domain.Requester{ID: 5, AddressID: 10})

	tries := map[string]struct {
		query  [2]string
		status int
	}{
		"zero limit":      {[2]string{"limit", "0"}, http.StatusBadRequest},
		"negative limit":  {[2]string{"limit", "-1"}, http.StatusBadRequest},
		"garbage limit":   {[2]string{"limit", "ten"}, http.StatusBadRequest},
		"negative offset": {[2]string{"offset", "-5"}, http.StatusBadRequest},
		"valid limit":     {[2]string{"limit", "1"}, http.StatusOK},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			apitest.New().Handler(web.router()).
				Get("/project").
				Query(try.query[0], try.query[1]).
				Header("X-Auth-Token", token).
				Expect(t).
				Status(try.status).
				End()
		})
	}
}

func TestWebProjectIdGetPermission(t *testing.T) {
	t.Parallel()

	// given
	web := buildWeb(t)
	web.ProjectService = stubProjectService{
		getById: func(domain.Requester, int) (*domain.Project, error) {
			return nil, domain.NewApiError("iaas_project_read_201")
		},
	}

	// when / then
	apitest.New().Handler(web.router()).
		Get("/project/42").
		Header("X-Auth-Token", authToken(t, web, domain.Requester{ID: 5, AddressID: 10})).
		Expect(t).
		Status(http.StatusForbidden).
		Body(`{
			"error_code": "iaas_project_read_201",
			"detail": "You do not have permission to read this project."
		}`).
		End()
}

func TestWebProjectPostFieldErrors(t *testing.T) {
	t.Parallel()

	// given
	web := buildWeb(t)
	web.ProjectService = stubProjectService{
		create: func(domain.Requester, *domain.Project) error {
			return domain.FieldErrors{"name": domain.NewApiError("iaas_project_create_101")}
		},
	}

	// when / then
	apitest.New().Handler(web.router()).
		Post("/project").
		Header("X-Auth-Token", authToken(t, web, domain.Requester{ID: 5, AddressID: 10})).
		JSON(`{"name": "", "region_id": 3}`).
		Expect(t).
		Status(http.StatusBadRequest).
		Body(`{
			"errors": {
				"name": {
					"error_code": "iaas_project_create_101",
					"detail": "The name parameter is required and must be at most 100 characters."
				}
			}
		}`).
		End()
}

func TestWebProjectPostGracePeriod(t *testing.T) {
	t.Parallel()

	tries := map[string]struct {
		body        string
		gracePeriod int
	}{
		"absent field uses the default": {`{"name": "demo", "region_id": 3}`, domain.DefaultGracePeriod},
		"explicit zero sticks":          {`{"name": "demo", "region_id": 3, "grace_period": 0}`, 0},
		"explicit value sticks":         {`{"name": "demo", "region_id": 3, "grace_period": 24}`, 24},
	}

	for k, try := range tries {
		k := k
		try := try
		t.Run(k, func(t *testing.T) {
			t.Parallel()

			// given
			web := buildWeb(t)
			var seenGracePeriod int
			web.ProjectService = stubProjectService{
				create: func(_ domain.Requester, project *domain.Project) error {
					seenGracePeriod = project.GracePeriod
					return nil
				},
			}

			// when
			apitest.New().Handler(web.router()).
				Post("/project").
				Header("X-Auth-Token", authToken(t, web, domain.Requester{ID: 5, AddressID: 10})).
				JSON(try.body).
				Expect(t).
				Status(http.StatusCreated).
				End()

			// then
			assert.Equal(t, try.gracePeriod, seenGracePeriod)
		})
	}
}

func TestWebDomainProviderDown(t *testing.T) {
	t.Parallel()

	// given
	web := buildWeb(t)
	web.DomainService = stubDomainService{
		getByPage: func(domain.Requester, *repository.Page, repository.DnsDomainFilter) ([]domain.DNSDomain, error) {
			return nil, errors.WithMessage(application.ErrDnsProviderUnavailable, "connection refused")
		},
	}

	// when / then
	apitest.New().Handler(web.router()).
		Get("/domain").
		Header("X-Auth-Token", authToken(t, web, domain.Requester{ID: 5, AddressID: 10})).
		Expect(t).
		Status(http.StatusServiceUnavailable).
		End()
}
