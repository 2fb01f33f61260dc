package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	profileKeyPrefix  = "bookings:profile:"
	cooldownKeyPrefix = "bookings:verify-email:"
)

// AgencyRef is the short agency reference of a profile summary
type AgencyRef struct {
	ID   uuid.UUID `json:"id"`
	Slug string    `json:"slug"`
	Name string    `json:"name"`
}

// ProfileSummary is the cached answer of the user profile endpoint
type ProfileSummary struct {
	ID              uuid.UUID  `json:"id"`
	Email           *string    `json:"email"`
	Username        string     `json:"username"`
	IsEmailVerified bool       `json:"is_email_verified"`
	Agency          *AgencyRef `json:"agency"`
	Role            *string    `json:"role"`
}

// ProfileCache stores profile summaries per user and throttles
// verification emails
type ProfileCache struct {
	client   Client
	ttl      time.Duration
	cooldown time.Duration
}

// NewProfileCache creates a profile cache on client
func NewProfileCache(client Client, ttl, cooldown time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl, cooldown: cooldown}
}

// Get returns the cached summary, or nil on a miss
func (c *ProfileCache) Get(ctx context.Context, userID uuid.UUID) (*ProfileSummary, error) {
	raw, err := c.client.Get(ctx, profileKeyPrefix+userID.String())
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cached profile")
	}
	var summary ProfileSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, errors.Wrap(err, "failed to decode cached profile")
	}
	return &summary, nil
}

// Put caches summary for the configured TTL
func (c *ProfileCache) Put(ctx context.Context, summary *ProfileSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return errors.Wrap(err, "failed to encode profile")
	}
	return errors.Wrap(c.client.Set(ctx, profileKeyPrefix+summary.ID.String(), string(data), c.ttl), "failed to cache profile")
}

// Invalidate drops the cached summaries of the given users
func (c *ProfileCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = profileKeyPrefix + id.String()
	}
	return errors.Wrap(c.client.Delete(ctx, keys...), "failed to invalidate cached profile")
}

// AcquireCooldown claims the verification email slot of a user. It returns
// false while a previous claim has not expired.
func (c *ProfileCache) AcquireCooldown(ctx context.Context, userID uuid.UUID) (bool, error) {
	ok, err := c.client.SetNX(ctx, cooldownKeyPrefix+userID.String(), "1", c.cooldown)
	return ok, errors.Wrap(err, "failed to set verification cooldown")
}

// ReleaseCooldown clears the claim, used when sending failed
func (c *ProfileCache) ReleaseCooldown(ctx context.Context, userID uuid.UUID) error {
	return errors.Wrap(c.client.Delete(ctx, cooldownKeyPrefix+userID.String()), "failed to clear verification cooldown")
}
