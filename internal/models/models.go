package models

// All returns every persisted model in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Agency{},
		&AgencyBusinessDetails{},
		&AgencySettings{},
		&UserProfile{},
		&Artist{},
		&ArtistSocialLinks{},
		&ArtistMember{},
		&ArtistNote{},
		&Promoter{},
		&Venue{},
		&Contact{},
		&BookingType{},
		&Booking{},
	}
}
