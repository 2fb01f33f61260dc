package middleware

import (
	"context"
	"net/http"
	"strings"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// contextKey is a type for context keys
type contextKey string

// Context keys
const (
	UserContextKey     contextKey = "user"
	IdentityContextKey contextKey = "identity"
)

// MsgNoCredentials is returned when the Authorization header is missing
const MsgNoCredentials = "Authentication credentials were not provided."

// Authenticator turns a bearer token into a registered user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// BearerAuth verifies the bearer token and stores the user in the context
func BearerAuth(authn Authenticator, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgNoCredentials})
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			var svcErr *service.Error
			if errors.As(err, &svcErr) && errors.Is(err, service.ErrUnauthorized) {
				log.WithField("reason", svcErr.Message).Warn("Rejected bearer token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": svcErr.Message})
				return
			}
			log.WithError(err).Error("Failed to authenticate request")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(string(UserContextKey), user)
		c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer" header
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// ResolveIdentity resolves the caller's agency and role once per request.
// It must run after BearerAuth.
func ResolveIdentity(agencies identity.AgencyLookup, profiles identity.ProfileLookup, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgNoCredentials})
			return
		}

		id, err := identity.Resolve(c.Request.Context(), agencies, profiles, user.ID)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Failed to resolve identity")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(string(IdentityContextKey), id)
		c.Next()
	}
}

// Guard builds a middleware that rejects callers failing check with 403
func Guard(check func(identity.Identity) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(GetIdentity(c)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

// RequireAgencyMember admits active members of a set-up agency
func RequireAgencyMember() gin.HandlerFunc {
	return Guard(identity.Identity.RequireMember)
}

// RequireAgencyOwner admits only the agency owner
func RequireAgencyOwner() gin.HandlerFunc {
	return Guard(identity.Identity.RequireOwner)
}

// RequireManagerOrOwner admits owners and managers
func RequireManagerOrOwner() gin.HandlerFunc {
	return Guard(identity.Identity.RequireManagerOrOwner)
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	val, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil, errors.New("user not found in context")
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil, errors.New("user in context has incorrect type")
	}
	return user, nil
}

// GetIdentity returns the resolved identity, or the zero identity when
// none was resolved
func GetIdentity(c *gin.Context) identity.Identity {
	val, _ := c.Get(string(IdentityContextKey))
	id, _ := val.(identity.Identity)
	return id
}
