package handlers

import (
	"context"
	"net/http"

	"example.com/backstage/bookings/api/middleware"
	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ArtistService is what ArtistHandler needs from the service layer
type ArtistService interface {
	List(ctx context.Context, id identity.Identity, f repository.ArtistFilter) (repository.Page[service.ArtistView], error)
	Get(ctx context.Context, id identity.Identity, artistID uuid.UUID) (*service.ArtistView, error)
	Create(ctx context.Context, id identity.Identity, in service.ArtistInput) (*service.ArtistView, error)
	BulkCreate(ctx context.Context, id identity.Identity, inputs []service.ArtistInput) ([]service.ArtistView, error)
	Update(ctx context.Context, id identity.Identity, artistID uuid.UUID, in service.ArtistInput) (*service.ArtistView, error)
	Delete(ctx context.Context, id identity.Identity, artistID uuid.UUID) error
	SocialLinks(ctx context.Context, id identity.Identity, artistID uuid.UUID) (*models.ArtistSocialLinks, error)
	UpdateSocialLinks(ctx context.Context, id identity.Identity, artistID uuid.UUID, in service.SocialLinksInput) (*models.ArtistSocialLinks, error)
	OnboardingStatus(ctx context.Context, id identity.Identity, artistID uuid.UUID) (*service.OnboardingStatus, error)
	Members(ctx context.Context, id identity.Identity, artistID uuid.UUID) ([]service.MemberView, error)
	Member(ctx context.Context, id identity.Identity, artistID, memberID uuid.UUID) (*service.MemberView, error)
	CreateMember(ctx context.Context, id identity.Identity, artistID uuid.UUID, in service.MemberInput) (*service.MemberView, error)
	UpdateMember(ctx context.Context, id identity.Identity, artistID, memberID uuid.UUID, in service.MemberInput) (*service.MemberView, error)
	DeleteMember(ctx context.Context, id identity.Identity, artistID, memberID uuid.UUID) error
	Notes(ctx context.Context, id identity.Identity, artistID uuid.UUID) ([]service.NoteView, error)
	Note(ctx context.Context, id identity.Identity, artistID, noteID uuid.UUID) (*service.NoteView, error)
	CreateNote(ctx context.Context, id identity.Identity, artistID uuid.UUID, in service.NoteInput) (*service.NoteView, error)
	UpdateNote(ctx context.Context, id identity.Identity, artistID, noteID uuid.UUID, in service.NoteInput) (*service.NoteView, error)
	DeleteNote(ctx context.Context, id identity.Identity, artistID, noteID uuid.UUID) error
}

// ArtistHandler handles artists and their members, notes and links
type ArtistHandler struct {
	service ArtistService
	log     logrus.FieldLogger
}

// NewArtistHandler creates a new ArtistHandler instance
func NewArtistHandler(svc ArtistService, log logrus.FieldLogger) *ArtistHandler {
	return &ArtistHandler{service: svc, log: log}
}

// ListArtists returns a filtered page of artists
func (h *ArtistHandler) ListArtists(c *gin.Context) {
	q := newQuery(c)
	f := repository.ArtistFilter{
		ListOptions:   q.ListOptions(),
		ArtistType:    q.String("artist_type"),
		Status:        q.String("status"),
		IsActive:      q.Bool("is_active"),
		CreatedAfter:  q.Timestamp("created_after"),
		CreatedBefore: q.Timestamp("created_before"),
	}
	if err := q.Err(); err != nil {
		WriteError(c, h.log, err)
		return
	}
	page, err := h.service.List(c.Request.Context(), middleware.GetIdentity(c), f)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	writePage(c, page)
}

// GetArtist returns one artist with members and notes
func (h *ArtistHandler) GetArtist(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	artist, err := h.service.Get(c.Request.Context(), middleware.GetIdentity(c), artistID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

// CreateArtist creates an artist in the caller's agency
func (h *ArtistHandler) CreateArtist(c *gin.Context) {
	var in service.ArtistInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	artist, err := h.service.Create(c.Request.Context(), middleware.GetIdentity(c), in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, artist)
}

// BulkCreateArtists creates several artists in one transaction
func (h *ArtistHandler) BulkCreateArtists(c *gin.Context) {
	var inputs []service.ArtistInput
	if !bindJSON(c, h.log, &inputs) {
		return
	}
	artists, err := h.service.BulkCreate(c.Request.Context(), middleware.GetIdentity(c), inputs)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, artists)
}

// UpdateArtist partially updates an artist
func (h *ArtistHandler) UpdateArtist(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.ArtistInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	artist, err := h.service.Update(c.Request.Context(), middleware.GetIdentity(c), artistID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

// DeleteArtist deletes an artist with its children
func (h *ArtistHandler) DeleteArtist(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.GetIdentity(c), artistID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSocialLinks returns the artist's social links
func (h *ArtistHandler) GetSocialLinks(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	links, err := h.service.SocialLinks(c.Request.Context(), middleware.GetIdentity(c), artistID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// UpdateSocialLinks partially updates the artist's social links
func (h *ArtistHandler) UpdateSocialLinks(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.SocialLinksInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	links, err := h.service.UpdateSocialLinks(c.Request.Context(), middleware.GetIdentity(c), artistID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// GetOnboardingStatus reports how many members are onboarded
func (h *ArtistHandler) GetOnboardingStatus(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	status, err := h.service.OnboardingStatus(c.Request.Context(), middleware.GetIdentity(c), artistID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListMembers returns the artist's members
func (h *ArtistHandler) ListMembers(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := h.service.Members(c.Request.Context(), middleware.GetIdentity(c), artistID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// GetMember returns one member
func (h *ArtistHandler) GetMember(c *gin.Context) {
	artistID, memberID, ok := childIDs(c, "member_id")
	if !ok {
		return
	}
	member, err := h.service.Member(c.Request.Context(), middleware.GetIdentity(c), artistID, memberID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// CreateMember adds a member to the artist
func (h *ArtistHandler) CreateMember(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.MemberInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	member, err := h.service.CreateMember(c.Request.Context(), middleware.GetIdentity(c), artistID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// UpdateMember partially updates a member
func (h *ArtistHandler) UpdateMember(c *gin.Context) {
	artistID, memberID, ok := childIDs(c, "member_id")
	if !ok {
		return
	}
	var in service.MemberInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	member, err := h.service.UpdateMember(c.Request.Context(), middleware.GetIdentity(c), artistID, memberID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeleteMember removes a member
func (h *ArtistHandler) DeleteMember(c *gin.Context) {
	artistID, memberID, ok := childIDs(c, "member_id")
	if !ok {
		return
	}
	if err := h.service.DeleteMember(c.Request.Context(), middleware.GetIdentity(c), artistID, memberID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListNotes returns the artist's notes, newest first
func (h *ArtistHandler) ListNotes(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	notes, err := h.service.Notes(c.Request.Context(), middleware.GetIdentity(c), artistID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// GetNote returns one note
func (h *ArtistHandler) GetNote(c *gin.Context) {
	artistID, noteID, ok := childIDs(c, "note_id")
	if !ok {
		return
	}
	note, err := h.service.Note(c.Request.Context(), middleware.GetIdentity(c), artistID, noteID)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// CreateNote adds a note authored by the caller
func (h *ArtistHandler) CreateNote(c *gin.Context) {
	artistID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.NoteInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	note, err := h.service.CreateNote(c.Request.Context(), middleware.GetIdentity(c), artistID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// UpdateNote partially updates a note
func (h *ArtistHandler) UpdateNote(c *gin.Context) {
	artistID, noteID, ok := childIDs(c, "note_id")
	if !ok {
		return
	}
	var in service.NoteInput
	if !bindJSON(c, h.log, &in) {
		return
	}
	note, err := h.service.UpdateNote(c.Request.Context(), middleware.GetIdentity(c), artistID, noteID, in)
	if err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// DeleteNote removes a note
func (h *ArtistHandler) DeleteNote(c *gin.Context) {
	artistID, noteID, ok := childIDs(c, "note_id")
	if !ok {
		return
	}
	if err := h.service.DeleteNote(c.Request.Context(), middleware.GetIdentity(c), artistID, noteID); err != nil {
		WriteError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func childIDs(c *gin.Context, child string) (uuid.UUID, uuid.UUID, bool) {
	parentID, ok := pathID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	childID, ok := pathID(c, child)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return parentID, childID, true
}
