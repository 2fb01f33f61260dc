package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeMember() ArtistMember {
	dob := NewDate(time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC))
	expiry := NewDate(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	return ArtistMember{
		PassportName:       "Mara Quell",
		ResidentialAddress: "Torstrasse 1, Berlin",
		CountryOfResidence: "DE",
		DOB:                &dob,
		PassportNumber:     "C01X00T47",
		PassportExpiry:     &expiry,
		ArtistFee:          decimal.NewNullDecimal(decimal.NewFromInt(1500)),
		CountryOfDeparture: "DE",
	}
}

func TestArtistMemberIsOnboarded(t *testing.T) {
	tests := []struct {
		name   string
		modify func(m *ArtistMember)
		want   bool
	}{
		{name: "complete", modify: func(m *ArtistMember) {}, want: true},
		{name: "blank passport name", modify: func(m *ArtistMember) { m.PassportName = "  " }, want: false},
		{name: "no dob", modify: func(m *ArtistMember) { m.DOB = nil }, want: false},
		{name: "no passport expiry", modify: func(m *ArtistMember) { m.PassportExpiry = nil }, want: false},
		{name: "no fee", modify: func(m *ArtistMember) { m.ArtistFee = decimal.NullDecimal{} }, want: false},
		{name: "zero fee", modify: func(m *ArtistMember) { m.ArtistFee = decimal.NewNullDecimal(decimal.Zero) }, want: false},
		{name: "no departure country", modify: func(m *ArtistMember) { m.CountryOfDeparture = "" }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := completeMember()
			tt.modify(&m)
			assert.Equal(t, tt.want, m.IsOnboarded())
		})
	}
}

func TestArtistIsOnboarded(t *testing.T) {
	incomplete := completeMember()
	incomplete.PassportNumber = ""
	artist := &Artist{NumberOfMembers: 2, Members: []ArtistMember{completeMember(), incomplete}}

	assert.False(t, artist.IsOnboarded())
	assert.Equal(t, 1, artist.OnboardedMembers())

	artist.Members[1].PassportNumber = "C01X00T48"
	assert.True(t, artist.IsOnboarded())
	assert.Equal(t, 2, artist.OnboardedMembers())

	assert.False(t, (&Artist{NumberOfMembers: 1}).IsOnboarded(), "an artist without members is not onboarded")
}

func TestContactReference(t *testing.T) {
	promoterID := PromoterID{UUID: uuid.New()}
	venueID := VenueID{UUID: uuid.New()}

	refs := []ContactReference{
		AgencyReference{},
		PromoterReference{PromoterID: promoterID},
		VenueReference{VenueID: venueID},
	}
	for _, ref := range refs {
		t.Run(string(ref.Type()), func(t *testing.T) {
			c := &Contact{}
			c.SetReference(PromoterReference{PromoterID: PromoterID{UUID: uuid.New()}})
			c.SetReference(ref)

			assert.Equal(t, ref.Type(), c.ReferenceType)
			got, err := c.Reference()
			require.NoError(t, err)
			assert.Equal(t, ref, got)
		})
	}
}

func TestContactReferenceInconsistentColumns(t *testing.T) {
	promoterID := PromoterID{UUID: uuid.New()}
	venueID := VenueID{UUID: uuid.New()}

	tests := []struct {
		name    string
		contact Contact
	}{
		{name: "agency with promoter", contact: Contact{ReferenceType: ReferenceAgency, PromoterID: &promoterID}},
		{name: "promoter without id", contact: Contact{ReferenceType: ReferencePromoter}},
		{name: "promoter with venue", contact: Contact{ReferenceType: ReferencePromoter, PromoterID: &promoterID, VenueID: &venueID}},
		{name: "venue without id", contact: Contact{ReferenceType: ReferenceVenue}},
		{name: "venue with promoter", contact: Contact{ReferenceType: ReferenceVenue, VenueID: &venueID, PromoterID: &promoterID}},
		{name: "unknown type", contact: Contact{ReferenceType: "artist"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.contact.Reference()
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}
