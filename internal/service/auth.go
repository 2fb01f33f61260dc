package service

import (
	"context"
	"strings"

	"example.com/backstage/bookings/internal/auth"
	"example.com/backstage/bookings/internal/cache"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/messaging"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Messages returned by the auth endpoints
const (
	MsgMissingToken         = "Missing token."
	MsgInvalidToken         = "Invalid token."
	MsgUnregistered         = "User not registered in the system"
	MsgExpiredToken         = "Invalid or expired token"
	MsgAlreadyRegistered    = "User already registered."
	MsgRegistered           = "Registration successful."
	MsgVerificationThrottle = "Verification email recently sent. Try again later."
	MsgVerificationFailed   = "Failed to send verification email"
)

// AuthService binds identity provider tokens to local users
type AuthService struct {
	deps
	verifier auth.Verifier
	profiles *cache.ProfileCache
}

// Authenticate verifies a bearer token and loads its registered user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		return nil, unauthorized(MsgExpiredToken)
	}
	user, err := s.repo.Users().GetByExternalUID(ctx, claims.UID())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, unauthorized(MsgUnregistered)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	return user, nil
}

// Register creates the local user of a token holder. It reports whether
// the user was created by this call.
func (s *AuthService) Register(ctx context.Context, token string) (*models.User, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false, badRequest(MsgMissingToken)
	}
	claims, err := s.verifier.Verify(token)
	if err != nil {
		s.log.WithError(err).Warn("Token verification failed")
		return nil, false, unauthorized(MsgInvalidToken)
	}

	uid := claims.UID()
	username := uid
	if at := strings.Index(claims.Email, "@"); at > 0 {
		username = claims.Email[:at]
	}
	user, created, err := s.repo.Users().GetOrCreate(ctx, &models.User{
		ExternalUID:     uid,
		Email:           optionalEmail(claims.Email),
		Username:        username,
		IsEmailVerified: claims.EmailVerified,
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to register user")
	}
	if created {
		s.log.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
	}
	return user, created, nil
}

// VerifyEmail marks the user's email verified
func (s *AuthService) VerifyEmail(ctx context.Context, user *models.User) error {
	user.IsEmailVerified = true
	if err := s.repo.Users().Save(ctx, user); err != nil {
		return errors.Wrap(err, "failed to update email verification status")
	}
	invalidateProfiles(ctx, s.profiles, s.log, user.ID)
	return nil
}

// ProfileSummary returns the profile summary of user, cached per user
func (s *AuthService) ProfileSummary(ctx context.Context, user *models.User, id identity.Identity) (*cache.ProfileSummary, error) {
	if cached, err := s.profiles.Get(ctx, user.ID); err != nil {
		s.log.WithError(err).Warn("Failed to read profile cache")
	} else if cached != nil {
		return cached, nil
	}

	summary := &cache.ProfileSummary{
		ID:              user.ID,
		Email:           user.Email,
		Username:        user.Username,
		IsEmailVerified: user.IsEmailVerified,
	}
	if agencyID, ok := id.Agency(); ok {
		agency, err := s.repo.Agencies().GetByID(ctx, agencyID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, errors.Wrap(err, "failed to load agency")
		}
		if agency != nil {
			summary.Agency = &cache.AgencyRef{ID: agency.ID, Slug: agency.Slug, Name: agency.Name}
		}
	}
	if id.Role != "" {
		role := string(id.Role)
		summary.Role = &role
	}

	if err := s.profiles.Put(ctx, summary); err != nil {
		s.log.WithError(err).Warn("Failed to write profile cache")
	}
	return summary, nil
}

// VerificationRequest is the payload of a verification email event
type VerificationRequest struct {
	Email       string `json:"email"`
	ContinueURL string `json:"continue_url,omitempty"`
}

// SendVerificationEmail asks the mailer to send a verification email, at
// most once per cooldown window
func (s *AuthService) SendVerificationEmail(ctx context.Context, user *models.User, continueURL string) error {
	acquired, err := s.profiles.AcquireCooldown(ctx, user.ID)
	if err != nil {
		return errors.Wrap(err, "failed to check verification cooldown")
	}
	if !acquired {
		return &Error{Kind: ErrRateLimited, Message: MsgVerificationThrottle}
	}

	event := messaging.NewEvent(messaging.EventVerificationRequested, nil, user.ID, VerificationRequest{
		Email:       user.EmailOrEmpty(),
		ContinueURL: continueURL,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("Failed to publish verification email request")
		if rerr := s.profiles.ReleaseCooldown(ctx, user.ID); rerr != nil {
			s.log.WithError(rerr).Warn("Failed to release verification cooldown")
		}
		return &Error{Kind: ErrUnavailable, Message: MsgVerificationFailed}
	}
	return nil
}
