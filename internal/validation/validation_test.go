package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artistInput struct {
	ArtistName string `json:"artist_name" validate:"required,max=10"`
	Color      string `json:"color" validate:"omitempty,hexcolor6"`
	Currency   string `json:"currency" validate:"currency3"`
	Doors      string `json:"doors_time" validate:"clock"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(artistInput{ArtistName: "", Color: "blue", Currency: "eur", Doors: "25:00"})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"This field is required."}, verr.Fields["artist_name"])
	assert.Equal(t, []string{"Enter a valid hex color, e.g. #3B82F6."}, verr.Fields["color"])
	assert.Equal(t, []string{"Enter a 3-letter currency code."}, verr.Fields["currency"])
	assert.Contains(t, verr.Fields, "doors_time")
}

func TestStructPasses(t *testing.T) {
	err := Struct(artistInput{ArtistName: "Boards", Color: "#3B82F6", Currency: "EUR", Doors: "21:30"})
	assert.NoError(t, err)
}

func TestFieldErrors(t *testing.T) {
	f := FieldErrors{}
	assert.NoError(t, f.Err())

	f.Add("email", "taken")
	f.Merge(FieldErrors{"email": {"again"}, "name": {"missing"}})

	err := f.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: email: taken again; name: missing", err.Error())
}

func TestPatterns(t *testing.T) {
	assert.True(t, IsClockTime("09:05"))
	assert.True(t, IsClockTime("23:59:59"))
	assert.False(t, IsClockTime("9:05"))
	assert.True(t, IsCountry("ES"))
	assert.False(t, IsCountry("ESP"))
}
