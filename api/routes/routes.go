package routes

import (
	"strings"

	"example.com/backstage/bookings/api/handlers"
	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/booking"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/metrics"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Dependencies are what the routes are built from
type Dependencies struct {
	Service  *service.Service
	Agencies identity.AgencyLookup
	Profiles identity.ProfileLookup
	Metrics  *metrics.Collector
	Probes   map[string]handlers.Probe
	Log      logrus.FieldLogger
}

// bookingActions are the POST workflow actions, routed by their
// hyphenated names
var bookingActions = []string{
	booking.ActionConfirm,
	booking.ActionCancel,
	booking.ActionSendContract,
	booking.ActionMarkContractSigned,
	booking.ActionSendArtistInvoice,
	booking.ActionMarkArtistPaid,
	booking.ActionSendBookingInvoice,
	booking.ActionMarkBookingPaid,
}

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, d Dependencies) {
	svc, log := d.Service, d.Log

	r.GET("/health", handlers.NewHealthHandler(d.Probes).HealthCheck)
	r.GET("/metrics", handlers.MetricsHandler(d.Metrics))

	api := r.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(svc.Auth, log)
	api.POST("/auth/register", authHandler.Register)

	authed := api.Group("")
	authed.Use(
		middleware.BearerAuth(svc.Auth, log),
		middleware.ResolveIdentity(d.Agencies, d.Profiles, log),
	)

	auth := authed.Group("/auth")
	{
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.GET("/user/profile", authHandler.Profile)
		auth.POST("/send-verification-email", authHandler.SendVerificationEmail)
	}

	agencyHandler := handlers.NewAgencyHandler(svc.Agencies, log)
	agencies := authed.Group("/agencies")
	{
		agencies.GET("", agencyHandler.ListAgencies)
		agencies.POST("", agencyHandler.CreateAgency)
		agencies.GET("/:slug", agencyHandler.GetAgency)
		agencies.GET("/:slug/business-details", agencyHandler.GetBusinessDetails)
		agencies.GET("/:slug/settings", agencyHandler.GetSettings)

		manage := agencies.Group("", middleware.RequireManagerOrOwner())
		manage.PUT("/:slug", agencyHandler.UpdateAgency)
		manage.PUT("/:slug/business-details", agencyHandler.UpdateBusinessDetails)
		manage.PUT("/:slug/settings", agencyHandler.UpdateSettings)
	}

	profileHandler := handlers.NewProfileHandler(svc.Profiles, log)
	users := authed.Group("/users")
	{
		users.GET("", profileHandler.ListProfiles)
		users.GET("/:id", profileHandler.GetProfile)

		owner := users.Group("", middleware.RequireAgencyOwner())
		owner.POST("", profileHandler.CreateProfile)
		owner.POST("/bulk-create", profileHandler.BulkCreateProfiles)
		owner.PATCH("/:id", profileHandler.UpdateProfile)
		owner.PUT("/:id", profileHandler.UpdateProfile)
		owner.DELETE("/:id", profileHandler.DeleteProfile)
	}

	artistHandler := handlers.NewArtistHandler(svc.Artists, log)
	artists := authed.Group("/artists")
	{
		artists.GET("", artistHandler.ListArtists)
		artists.POST("", artistHandler.CreateArtist)
		artists.POST("/bulk-create", artistHandler.BulkCreateArtists)
		artists.GET("/:id", artistHandler.GetArtist)
		artists.PUT("/:id", artistHandler.UpdateArtist)
		artists.PATCH("/:id", artistHandler.UpdateArtist)
		artists.DELETE("/:id", artistHandler.DeleteArtist)
		artists.GET("/:id/social-links", artistHandler.GetSocialLinks)
		artists.PATCH("/:id/social-links", artistHandler.UpdateSocialLinks)
		artists.PUT("/:id/social-links", artistHandler.UpdateSocialLinks)
		artists.GET("/:id/onboarding-status", artistHandler.GetOnboardingStatus)

		artists.GET("/:id/members", artistHandler.ListMembers)
		artists.POST("/:id/members", artistHandler.CreateMember)
		artists.GET("/:id/members/:member_id", artistHandler.GetMember)
		artists.PUT("/:id/members/:member_id", artistHandler.UpdateMember)
		artists.PATCH("/:id/members/:member_id", artistHandler.UpdateMember)
		artists.DELETE("/:id/members/:member_id", artistHandler.DeleteMember)

		artists.GET("/:id/notes", artistHandler.ListNotes)
		artists.POST("/:id/notes", artistHandler.CreateNote)
		artists.GET("/:id/notes/:note_id", artistHandler.GetNote)
		artists.PUT("/:id/notes/:note_id", artistHandler.UpdateNote)
		artists.PATCH("/:id/notes/:note_id", artistHandler.UpdateNote)
		artists.DELETE("/:id/notes/:note_id", artistHandler.DeleteNote)
	}

	promoterHandler := handlers.NewPromoterHandler(svc.Promoters, log)
	promoters := authed.Group("/promoters")
	{
		promoters.GET("", promoterHandler.ListPromoters)
		promoters.POST("", promoterHandler.CreatePromoter)
		promoters.GET("/active", promoterHandler.ListActivePromoters)
		promoters.GET("/by-type", promoterHandler.ByType)
		promoters.GET("/by-country", promoterHandler.ByCountry)
		promoters.GET("/dashboard-stats", promoterHandler.DashboardStats)
		promoters.POST("/bulk-update-status", promoterHandler.BulkUpdateStatus)
		promoters.GET("/:id", promoterHandler.GetPromoter)
		promoters.PUT("/:id", promoterHandler.UpdatePromoter)
		promoters.PATCH("/:id", promoterHandler.UpdatePromoter)
		promoters.DELETE("/:id", promoterHandler.DeletePromoter)
		promoters.GET("/:id/summary", promoterHandler.GetSummary)
		promoters.POST("/:id/duplicate", promoterHandler.DuplicatePromoter)
		promoters.PATCH("/:id/toggle-status", promoterHandler.ToggleStatus)
	}

	venueHandler := handlers.NewVenueHandler(svc.Venues, log)
	venues := authed.Group("/venues")
	{
		venues.GET("", venueHandler.ListVenues)
		venues.POST("", venueHandler.CreateVenue)
		venues.GET("/active", venueHandler.ListActiveVenues)
		venues.GET("/by-type", venueHandler.ByType)
		venues.GET("/by-capacity", venueHandler.ByCapacity)
		venues.GET("/by-country", venueHandler.ByCountry)
		venues.GET("/dashboard-stats", venueHandler.DashboardStats)
		venues.POST("/bulk-update-status", venueHandler.BulkUpdateStatus)
		venues.GET("/:id", venueHandler.GetVenue)
		venues.PUT("/:id", venueHandler.UpdateVenue)
		venues.PATCH("/:id", venueHandler.UpdateVenue)
		venues.DELETE("/:id", venueHandler.DeleteVenue)
		venues.GET("/:id/summary", venueHandler.GetSummary)
		venues.POST("/:id/duplicate", venueHandler.DuplicateVenue)
		venues.PATCH("/:id/toggle-status", venueHandler.ToggleStatus)
	}

	contactHandler := handlers.NewContactHandler(svc.Contacts, log)
	contacts := authed.Group("/contacts")
	{
		contacts.GET("", contactHandler.ListContacts)
		contacts.POST("", contactHandler.CreateContact)
		contacts.GET("/active", contactHandler.ListActiveContacts)
		contacts.GET("/by-type", contactHandler.ByType)
		contacts.GET("/by-reference", contactHandler.ByReference)
		contacts.GET("/promoter-contacts", contactHandler.ListPromoterContacts)
		contacts.GET("/venue-contacts", contactHandler.ListVenueContacts)
		contacts.GET("/agency-contacts", contactHandler.ListAgencyContacts)
		contacts.GET("/primary", contactHandler.ListPrimary)
		contacts.GET("/emergency", contactHandler.ListEmergency)
		contacts.GET("/dashboard-stats", contactHandler.DashboardStats)
		contacts.POST("/bulk-update-status", contactHandler.BulkUpdateStatus)
		contacts.GET("/:id", contactHandler.GetContact)
		contacts.PUT("/:id", contactHandler.UpdateContact)
		contacts.PATCH("/:id", contactHandler.UpdateContact)
		contacts.DELETE("/:id", contactHandler.DeleteContact)
		contacts.GET("/:id/summary", contactHandler.GetSummary)
		contacts.PATCH("/:id/toggle-status", contactHandler.ToggleStatus)
		contacts.PATCH("/:id/set-primary", contactHandler.SetPrimary)
	}

	members := authed.Group("", middleware.RequireAgencyMember())

	bookingTypeHandler := handlers.NewBookingTypeHandler(svc.BookingTypes, log)
	bookingTypes := members.Group("/booking-types")
	{
		bookingTypes.GET("", bookingTypeHandler.ListBookingTypes)
		bookingTypes.POST("", bookingTypeHandler.CreateBookingType)
		bookingTypes.GET("/:id", bookingTypeHandler.GetBookingType)
		bookingTypes.PUT("/:id", bookingTypeHandler.UpdateBookingType)
		bookingTypes.PATCH("/:id", bookingTypeHandler.UpdateBookingType)
		bookingTypes.DELETE("/:id", bookingTypeHandler.DeleteBookingType)
	}

	bookingHandler := handlers.NewBookingHandler(svc.Bookings, log)
	bookings := members.Group("/bookings")
	{
		bookings.GET("", bookingHandler.ListBookings)
		bookings.POST("", bookingHandler.CreateBooking)
		bookings.GET("/stats", bookingHandler.GetStats)
		bookings.GET("/upcoming", bookingHandler.GetUpcoming)
		bookings.GET("/calendar", bookingHandler.GetCalendar)
		bookings.GET("/search", bookingHandler.SearchBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.PUT("/:id", bookingHandler.UpdateBooking)
		bookings.PATCH("/:id", bookingHandler.UpdateBooking)
		bookings.DELETE("/:id", bookingHandler.DeleteBooking)
		bookings.GET("/:id/timeline", bookingHandler.GetTimeline)
		bookings.GET("/:id/enriched-detail", bookingHandler.GetEnrichedDetail)
		for _, action := range bookingActions {
			bookings.POST("/:id/"+strings.ReplaceAll(action, "_", "-"), bookingHandler.Transition(action))
		}
	}
}
