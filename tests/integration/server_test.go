package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	accessapp "github.com/crm/backend/internal/application/access"
	activityapp "github.com/crm/backend/internal/application/activity"
	identityapp "github.com/crm/backend/internal/application/identity"
	marketingapp "github.com/crm/backend/internal/application/marketing"
	partnerapp "github.com/crm/backend/internal/application/partner"
	salesapp "github.com/crm/backend/internal/application/sales"
	"github.com/crm/backend/internal/domain/shared/valueobject"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/event"
	"github.com/crm/backend/internal/infrastructure/idempotency"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
	"github.com/crm/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// CRMTestServer runs the CRM API against a real PostgreSQL database
type CRMTestServer struct {
	DB        *TestDB
	Engine    *gin.Engine
	Bus       *event.InMemoryEventBus
	Blacklist auth.TokenBlacklist
	LeadRepo  *persistence.GormLeadRepository
	t         *testing.T
}

// NewCRMTestServer wires repositories, services and routes the way the server binary does
func NewCRMTestServer(t *testing.T) *CRMTestServer {
	t.Helper()

	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	testDB := NewSharedTestDB(t)
	testDB.CleanTables()
	log := zap.NewNop()

	userRepo := persistence.NewGormUserRepository(testDB.DB)
	companyRepo := persistence.NewGormCompanyRepository(testDB.DB)
	membershipRepo := persistence.NewGormMembershipRepository(testDB.DB)
	agentKeyRepo := persistence.NewGormAgentKeyRepository(testDB.DB)
	leadRepo := persistence.NewGormLeadRepository(testDB.DB)
	leadSourceRepo := persistence.NewGormLeadSourceRepository(testDB.DB)
	customerRepo := persistence.NewGormCustomerRepository(testDB.DB)
	opportunityRepo := persistence.NewGormOpportunityRepository(testDB.DB)
	stageRepo := persistence.NewGormPipelineStageRepository(testDB.DB)
	activityRepo := persistence.NewGormActivityRepository(testDB.DB)
	txScope := persistence.NewGormTransactionScope(testDB.DB)

	guard := accessapp.NewRepositoryGuard(accessapp.Repositories{
		Customers:      customerRepo,
		Leads:          leadRepo,
		Opportunities:  opportunityRepo,
		PipelineStages: stageRepo,
		LeadSources:    leadSourceRepo,
	}, log)

	bus := event.NewInMemoryEventBus(log)
	blacklist := auth.NewInMemoryTokenBlacklist()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "integration-test-secret-key-0123456789",
		RefreshSecret:          "integration-test-refresh-secret-0123456789",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "crm-test",
		MaxRefreshCount:        10,
	})
	authService := identityapp.NewAuthService(userRepo, membershipRepo, jwtService, blacklist, identityapp.AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}, log)
	companyService := identityapp.NewCompanyService(userRepo, companyRepo, membershipRepo, bus, log)
	resolver := identityapp.NewResolver(userRepo, membershipRepo, log)
	agentKeyService := identityapp.NewAgentKeyService(agentKeyRepo, log)

	leadService := marketingapp.NewLeadService(leadRepo, guard, log)
	leadService.SetEventPublisher(bus)
	conversionService := marketingapp.NewConversionService(leadRepo, txScope, guard, marketingapp.ConversionConfig{
		DefaultCurrency:    valueobject.DefaultCurrency,
		DefaultProbability: 10,
	}, log)
	conversionService.SetEventPublisher(bus)
	customerService := partnerapp.NewCustomerService(customerRepo, guard, log)
	customerService.SetEventPublisher(bus)
	opportunityService := salesapp.NewOpportunityService(opportunityRepo, stageRepo, guard, valueobject.DefaultCurrency, log)
	opportunityService.SetEventPublisher(bus)
	stageService := salesapp.NewPipelineStageService(stageRepo, log)
	timelineService := activityapp.NewTimelineService(activityRepo, guard, 100)

	bus.Subscribe(salesapp.NewCompanyCreatedHandler(stageService))
	bus.Subscribe(activityapp.NewTimelineRecorder(activityRepo, log))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		_ = bus.Stop(context.Background())
	})

	handlers := router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Company:       handler.NewCompanyHandler(companyService),
		Lead:          handler.NewLeadHandler(leadService, conversionService),
		LeadSource:    handler.NewLeadSourceHandler(marketingapp.NewLeadSourceService(leadSourceRepo, log)),
		Customer:      handler.NewCustomerHandler(customerService),
		Opportunity:   handler.NewOpportunityHandler(opportunityService),
		PipelineStage: handler.NewPipelineStageHandler(stageService),
		AgentKey:      handler.NewAgentKeyHandler(agentKeyService),
		Activity:      handler.NewActivityHandler(timelineService),
		System: handler.NewSystemHandler("test", map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error { return testDB.SqlDB.PingContext(ctx) },
		}),
	}

	idempotencyStore := idempotency.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = idempotencyStore.Close() })

	engine := gin.New()
	engine.Use(middleware.RequestID())
	guards := router.Guards{
		Authenticated: []gin.HandlerFunc{
			middleware.Authenticate(middleware.AuthConfig{
				Tokens: authService,
				Agents: agentKeyService,
				Logger: log,
			}),
			middleware.ResolvePrincipal(resolver, log),
		},
		Tenant: []gin.HandlerFunc{
			middleware.RequireTenant(),
			middleware.Idempotency(middleware.IdempotencyConfig{Store: idempotencyStore, Logger: log}),
		},
	}
	router.RegisterCRM(router.NewRouter(engine, router.WithAPIVersion("v1")), handlers, guards).Setup()

	return &CRMTestServer{
		DB:        testDB,
		Engine:    engine,
		Bus:       bus,
		Blacklist: blacklist,
		LeadRepo:  leadRepo,
		t:         t,
	}
}

// APIResponse is the decoded response envelope
type APIResponse struct {
	Status   int             `json:"-"`
	Replayed bool            `json:"-"`
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorCode returns the error code of a failed response, "" on success
func (r *APIResponse) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

// Request sends a JSON request. headers are key/value pairs.
func (s *CRMTestServer) Request(method, path string, body any, headers ...string) *APIResponse {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	resp := &APIResponse{
		Status:   w.Code,
		Replayed: w.Header().Get(middleware.IdempotentReplayedHeader) == "true",
	}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), resp), "body: %s", w.Body.String())
	}
	return resp
}

// As sends a request authenticated with an access token
func (s *CRMTestServer) As(token, method, path string, body any) *APIResponse {
	s.t.Helper()
	return s.Request(method, path, body, "Authorization", "Bearer "+token)
}

// AsAgent sends a request authenticated with an agent API key
func (s *CRMTestServer) AsAgent(key, method, path string, body any) *APIResponse {
	s.t.Helper()
	return s.Request(method, path, body, middleware.APIKeyHeader, key)
}

// Decode unmarshals the data field of a successful response
func Decode[T any](t *testing.T, resp *APIResponse) T {
	t.Helper()
	require.True(t, resp.Success, "status %d error %s", resp.Status, resp.ErrorCode())
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

// TestUser is a registered and logged-in user
type TestUser struct {
	ID           int64
	Username     string
	Password     string
	AccessToken  string
	RefreshToken string
}

// RegisterUser signs up and logs in a new user
func (s *CRMTestServer) RegisterUser(username string) *TestUser {
	s.t.Helper()

	password := "Sup3r-secret-pass"
	resp := s.Request(http.MethodPost, "/auth/register", map[string]any{
		"username":     username,
		"email":        username + "@example.com",
		"password":     password,
		"display_name": username,
	})
	require.Equal(s.t, http.StatusCreated, resp.Status, "register %s: %s", username, resp.ErrorCode())
	registered := Decode[handler.AuthUserResponse](s.t, resp)

	user := &TestUser{ID: registered.ID, Username: username, Password: password}
	s.Login(user)
	return user
}

// Login refreshes the tokens of user
func (s *CRMTestServer) Login(user *TestUser) {
	s.t.Helper()

	resp := s.Request(http.MethodPost, "/auth/login", map[string]any{
		"login":    user.Username,
		"password": user.Password,
	})
	require.Equal(s.t, http.StatusOK, resp.Status, "login %s: %s", user.Username, resp.ErrorCode())
	login := Decode[handler.LoginResponse](s.t, resp)
	user.AccessToken = login.Token.AccessToken
	user.RefreshToken = login.Token.RefreshToken
}

// CreateCompany creates a company owned by user and waits for its pipeline to be seeded
func (s *CRMTestServer) CreateCompany(user *TestUser, name string) int64 {
	s.t.Helper()

	resp := s.As(user.AccessToken, http.MethodPost, "/me/companies", map[string]any{"name": name})
	require.Equal(s.t, http.StatusCreated, resp.Status, "create company %s: %s", name, resp.ErrorCode())
	company := Decode[handler.CompanyResponse](s.t, resp)

	testutil.RequireEventually(s.t, func() bool {
		return s.DB.CountRows("pipeline_stages", company.ID) > 0
	}, 5*time.Second, 20*time.Millisecond, "pipeline for company %d was not seeded", company.ID)
	return company.ID
}

// SwitchCompany makes companyID the user's active company
func (s *CRMTestServer) SwitchCompany(user *TestUser, companyID int64) *APIResponse {
	s.t.Helper()
	return s.As(user.AccessToken, http.MethodPut, "/me/active-company", map[string]any{"company_id": companyID})
}

// CreateLead captures a lead in the caller's active company
func (s *CRMTestServer) CreateLead(token, companyName string) marketingapp.LeadResponse {
	s.t.Helper()

	resp := s.As(token, http.MethodPost, "/leads", map[string]any{
		"first_name":   "Ada",
		"last_name":    "Lovelace",
		"company_name": companyName,
		"email":        fmt.Sprintf("ada@%s.example.com", sanitizeHost(companyName)),
		"rating":       "hot",
	})
	require.Equal(s.t, http.StatusCreated, resp.Status, "create lead: %s", resp.ErrorCode())
	return Decode[marketingapp.LeadResponse](s.t, resp)
}

func sanitizeHost(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		}
	}
	if len(out) == 0 {
		return "lead"
	}
	return string(out)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
