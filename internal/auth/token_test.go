package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, claims Claims, method jwt.SigningMethod, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	now := time.Now()
	return Claims{
		Email:         "jane@example.com",
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-123",
			Issuer:    "https://issuer.example.com",
			Audience:  jwt.ClaimStrings{"bookings"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestVerify(t *testing.T) {
	v := NewHMACVerifier(testSecret, "https://issuer.example.com", "bookings", 0)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name    string
		token   string
		wantUID string
		wantErr bool
	}{
		{name: "valid", token: sign(t, validClaims(), jwt.SigningMethodHS256, testSecret), wantUID: "uid-123"},
		{name: "expired", token: sign(t, expired, jwt.SigningMethodHS256, testSecret), wantErr: true},
		{name: "wrong audience", token: sign(t, wrongAudience, jwt.SigningMethodHS256, testSecret), wantErr: true},
		{name: "no expiry", token: sign(t, noExpiry, jwt.SigningMethodHS256, testSecret), wantErr: true},
		{name: "no subject", token: sign(t, noSubject, jwt.SigningMethodHS256, testSecret), wantErr: true},
		{name: "wrong secret", token: sign(t, validClaims(), jwt.SigningMethodHS256, []byte("nope")), wantErr: true},
		{name: "wrong algorithm", token: sign(t, validClaims(), jwt.SigningMethodHS512, testSecret), wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Verify(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUID, claims.UID())
			assert.Equal(t, "jane@example.com", claims.Email)
			assert.True(t, claims.EmailVerified)
		})
	}
}

func TestClaims_UIDPrefersUserID(t *testing.T) {
	c := Claims{UserID: "provider-uid", RegisteredClaims: jwt.RegisteredClaims{Subject: "sub"}}
	assert.Equal(t, "provider-uid", c.UID())
}
