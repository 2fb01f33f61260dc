package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/metrics"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

type stubAgencies struct {
	owned map[uuid.UUID]*models.Agency
	byID  map[uuid.UUID]*models.Agency
}

func (s stubAgencies) GetByOwner(_ context.Context, ownerID uuid.UUID) (*models.Agency, error) {
	if a, ok := s.owned[ownerID]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (s stubAgencies) GetByID(_ context.Context, id uuid.UUID) (*models.Agency, error) {
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

type stubProfiles map[uuid.UUID]*models.UserProfile

func (s stubProfiles) GetByUserID(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if p, ok := s[userID]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestBearerAuth(t *testing.T) {
	log, _ := test.NewNullLogger()
	user := &models.User{ID: uuid.New(), Username: "mia"}

	tests := []struct {
		name       string
		header     string
		setup      func(m *MockAuthenticator)
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantError:  MsgNoCredentials,
		},
		{
			name:       "not a bearer header",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
			wantError:  MsgNoCredentials,
		},
		{
			name:   "unregistered user",
			header: "Bearer tok",
			setup: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "tok").Return(nil, &service.Error{Kind: service.ErrUnauthorized, Message: service.MsgUnregistered})
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  service.MsgUnregistered,
		},
		{
			name:   "storage failure",
			header: "Bearer tok",
			setup: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "tok").Return(nil, errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Internal server error",
		},
		{
			name:   "valid token",
			header: "Bearer tok",
			setup: func(m *MockAuthenticator) {
				m.On("Authenticate", mock.Anything, "tok").Return(user, nil)
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authn := new(MockAuthenticator)
			if tt.setup != nil {
				tt.setup(authn)
			}

			router := gin.New()
			router.GET("/me", BearerAuth(authn, log), func(c *gin.Context) {
				got, err := GetUserFromContext(c)
				require.NoError(t, err)
				c.JSON(http.StatusOK, gin.H{"id": got.ID})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, user.ID.String(), body["id"])
		})
	}
}

func TestResolveIdentityAndGuards(t *testing.T) {
	log, _ := test.NewNullLogger()

	owner := &models.User{ID: uuid.New()}
	agent := &models.User{ID: uuid.New()}
	inactive := &models.User{ID: uuid.New()}
	stranger := &models.User{ID: uuid.New()}

	agency := &models.Agency{ID: uuid.New(), Slug: "northern-lights", IsSetUp: true, OwnerID: owner.ID}
	agencies := stubAgencies{
		owned: map[uuid.UUID]*models.Agency{owner.ID: agency},
		byID:  map[uuid.UUID]*models.Agency{agency.ID: agency},
	}
	profiles := stubProfiles{
		agent.ID:    {ID: uuid.New(), UserID: agent.ID, AgencyID: &agency.ID, Role: models.RoleAgent, IsActive: true},
		inactive.ID: {ID: uuid.New(), UserID: inactive.ID, AgencyID: &agency.ID, Role: models.RoleAgent, IsActive: false},
	}

	tests := []struct {
		name       string
		user       *models.User
		guard      gin.HandlerFunc
		wantStatus int
		wantError  string
	}{
		{"owner is a member", owner, RequireAgencyMember(), http.StatusOK, ""},
		{"agent is a member", agent, RequireAgencyMember(), http.StatusOK, ""},
		{"inactive profile", inactive, RequireAgencyMember(), http.StatusForbidden, identity.ErrProfileInactive.Message},
		{"no profile", stranger, RequireAgencyMember(), http.StatusForbidden, identity.ErrProfileInactive.Message},
		{"owner guard passes owner", owner, RequireAgencyOwner(), http.StatusOK, ""},
		{"owner guard rejects agent", agent, RequireAgencyOwner(), http.StatusForbidden, identity.ErrNotOwner.Message},
		{"manager guard rejects agent", agent, RequireManagerOrOwner(), http.StatusForbidden, identity.ErrNotManager.Message},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/probe",
				func(c *gin.Context) { c.Set(string(UserContextKey), tt.user); c.Next() },
				ResolveIdentity(agencies, profiles, log),
				tt.guard,
				func(c *gin.Context) {
					id := GetIdentity(c)
					c.JSON(http.StatusOK, gin.H{"slug": id.AgencySlug})
				},
			)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}
			assert.Equal(t, "northern-lights", body["slug"])
		})
	}
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("preflight from allowed origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://app.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("foreign origin gets no grant", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	collector := metrics.NewCollector()
	router := gin.New()
	router.Use(Metrics(collector))
	router.GET("/bookings/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bookings/"+uuid.NewString(), nil))
	}

	counts := collector.Snapshot()["request_counts"].(map[string]int64)
	var total int64
	for key, n := range counts {
		assert.Contains(t, key, "/bookings/:id")
		total += n
	}
	assert.Equal(t, int64(2), total)
}
