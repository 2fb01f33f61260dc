package service

import (
	"context"
	"testing"

	"example.com/backstage/bookings/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestContactCreateReference(t *testing.T) {
	agencyID := uuid.New()
	promoterID, venueID := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		in        ContactInput
		promoter  *models.Promoter
		venue     *models.Venue
		wantField string
		wantMsg   string
		wantName  string
	}{
		{
			name:      "promoter of another agency",
			in:        ContactInput{ReferenceType: strPtr("promoter"), PromoterID: &promoterID},
			wantField: "promoter_id",
			wantMsg:   "The specified promoter does not exist or does not belong to your agency.",
		},
		{
			name:      "venue of another agency",
			in:        ContactInput{ReferenceType: strPtr("venue"), VenueID: &venueID},
			wantField: "venue_id",
			wantMsg:   "The specified venue does not exist or does not belong to your agency.",
		},
		{
			name:      "venue contact with promoter id",
			in:        ContactInput{ReferenceType: strPtr("venue"), VenueID: &venueID, PromoterID: &promoterID},
			wantField: "promoter_id",
			wantMsg:   "Promoter ID should be empty for venue contacts.",
		},
		{
			name:      "agency contact with venue id",
			in:        ContactInput{ReferenceType: strPtr("agency"), VenueID: &venueID},
			wantField: "reference_type",
			wantMsg:   "Agency contacts should not have promoter or venue references.",
		},
		{
			name:     "own promoter",
			in:       ContactInput{ReferenceType: strPtr("promoter"), PromoterID: &promoterID},
			promoter: &models.Promoter{ID: promoterID, AgencyID: agencyID, CompanyName: "Nightfall Events"},
			wantName: "Nightfall Events",
		},
		{
			name:     "own venue",
			in:       ContactInput{ReferenceType: strPtr("venue"), VenueID: &venueID},
			venue:    &models.Venue{ID: venueID, AgencyID: agencyID, VenueName: "Tresor"},
			wantName: "Tresor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			d, _ := testDeps(repo, &recordingPublisher{})
			svc := &ContactService{deps: d}
			repo.resolver.On("Promoter", mock.Anything, agencyID, models.PromoterID{UUID: promoterID}).Return(tt.promoter, nil)
			repo.resolver.On("Venue", mock.Anything, agencyID, models.VenueID{UUID: venueID}).Return(tt.venue, nil)
			repo.contacts.On("EmailTaken", mock.Anything, agencyID, "lena@example.com", mock.Anything).Return(false, nil)
			repo.contacts.On("Create", mock.Anything, mock.AnythingOfType("*models.Contact")).Return(nil)

			in := tt.in
			in.ContactName = strPtr("Lena Vogt")
			in.ContactEmail = strPtr("lena@example.com")
			view, err := svc.Create(context.Background(), memberOf(agencyID), in)

			if tt.wantField != "" {
				assert.Equal(t, []string{tt.wantMsg}, fieldErrors(t, err)[tt.wantField])
				repo.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.ReferenceType(*tt.in.ReferenceType), view.ReferenceType)
			assert.Equal(t, tt.wantName, view.ReferenceDisplayName)
			ref, err := view.Reference()
			require.NoError(t, err)
			assert.Equal(t, models.ReferenceType(*tt.in.ReferenceType), ref.Type())
		})
	}
}
