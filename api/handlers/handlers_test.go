package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func memberIdentity() identity.Identity {
	agencyID, profileID := uuid.New(), uuid.New()
	return identity.Identity{
		UserID:        uuid.New(),
		ProfileID:     &profileID,
		AgencyID:      &agencyID,
		AgencySlug:    "northern-lights",
		Role:          models.RoleAgent,
		ProfileActive: true,
		AgencySetUp:   true,
	}
}

// newRouter returns an engine whose requests carry the given caller
func newRouter(id identity.Identity, user *models.User) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(string(middleware.IdentityContextKey), id)
		if user != nil {
			c.Set(string(middleware.UserContextKey), user)
		}
		c.Next()
	})
	return router
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}
