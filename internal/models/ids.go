package models

import (
	"github.com/google/uuid"
)

// ID is a UUID tagged with the kind of entity it identifies, so an artist
// reference cannot be passed where a venue reference is expected.
type ID[K any] struct {
	uuid.UUID
}

type (
	artistKind   struct{}
	promoterKind struct{}
	venueKind    struct{}
	contactKind  struct{}
)

// Typed cross-module references
type (
	ArtistID   = ID[artistKind]
	PromoterID = ID[promoterKind]
	VenueID    = ID[venueKind]
	ContactID  = ID[contactKind]
)

// ParseID parses a textual UUID into the typed id at dst
func ParseID[K any](s string, dst *ID[K]) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	dst.UUID = u
	return nil
}

// IsZero reports whether the id is unset
func (id ID[K]) IsZero() bool {
	return id.UUID == uuid.Nil
}

// GormDataType sets the column type used by migrations
func (ID[K]) GormDataType() string {
	return "uuid"
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
