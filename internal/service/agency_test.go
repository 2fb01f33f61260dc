package service

import (
	"context"
	"testing"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAgencyBusinessDetailsCompleteSetUp(t *testing.T) {
	agencyID := uuid.New()
	repo := newMockRepository()
	d, _ := testDeps(repo, &recordingPublisher{})
	svc := &AgencyService{deps: d}

	id := memberOf(agencyID)
	id.AgencySlug = "acme"
	agency := &models.Agency{ID: agencyID, Name: "Acme", Slug: "acme"}
	details := &models.AgencyBusinessDetails{AgencyID: agencyID, CompanyName: "Acme Bookings GmbH"}

	repo.agencies.On("GetBySlug", mock.Anything, "acme").Return(agency, nil)
	repo.agencies.On("GetBusinessDetails", mock.Anything, agencyID).Return(details, nil)
	repo.agencies.On("SaveBusinessDetails", mock.Anything, details).Return(nil)
	repo.agencies.On("Save", mock.Anything, agency).Return(nil)

	_, err := svc.UpdateBusinessDetails(context.Background(), id, "acme", BusinessDetailsInput{
		TaxNumber: strPtr("DE123456789"),
		City:      strPtr("Berlin"),
	})
	require.NoError(t, err)
	assert.False(t, agency.IsSetUp)
	repo.agencies.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	got, err := svc.UpdateBusinessDetails(context.Background(), id, "acme", BusinessDetailsInput{
		Address: strPtr("Torstrasse 1"),
		Town:    strPtr("Mitte"),
		Country: strPtr("DE"),
	})
	require.NoError(t, err)
	assert.True(t, got.Complete())
	assert.True(t, agency.IsSetUp)
	repo.agencies.AssertNumberOfCalls(t, "Save", 1)
}

func TestAgencyFindRejectsOtherSlug(t *testing.T) {
	repo := newMockRepository()
	d, _ := testDeps(repo, &recordingPublisher{})
	svc := &AgencyService{deps: d}

	id := memberOf(uuid.New())
	id.AgencySlug = "acme"

	_, err := svc.BusinessDetails(context.Background(), id, "rival")
	assert.True(t, errors.Is(err, ErrNotFound))
	repo.agencies.AssertNotCalled(t, "GetBySlug", mock.Anything, mock.Anything)
}
