package service

import (
	"context"
	"strings"
	"time"

	"example.com/backstage/bookings/internal/identity"
	"example.com/backstage/bookings/internal/models"
	"example.com/backstage/bookings/internal/repository"
	"example.com/backstage/bookings/internal/validation"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MsgPromoterNotFound     = "Promoter not found"
	MsgPromoterEmailTaken   = "A promoter with this email already exists in your agency."
	MsgNoProfileForPromoter = "You must have an agency profile to create promoters."
	MsgNoContactMethod      = "At least one contact method (email, phone, or website) must be provided."
	defaultCopySuffix       = " (Copy)"
	unknownCountry          = "Unknown"
)

// PromoterService manages promoters
type PromoterService struct {
	deps
}

// PromoterInput creates or partially updates a promoter
type PromoterInput struct {
	PromoterName   *string              `json:"promoter_name" validate:"omitempty,max=255"`
	PromoterEmail  *string              `json:"promoter_email" validate:"omitempty,email"`
	PromoterPhone  *string              `json:"promoter_phone" validate:"omitempty,max=50"`
	CompanyName    *string              `json:"company_name" validate:"omitempty,max=255"`
	CompanyAddress *string              `json:"company_address"`
	CompanyCity    *string              `json:"company_city" validate:"omitempty,max=100"`
	CompanyZipcode *string              `json:"company_zipcode" validate:"omitempty,max=20"`
	CompanyCountry *string              `json:"company_country" validate:"omitempty,country2"`
	PromoterType   *models.PromoterType `json:"promoter_type" validate:"omitempty,oneof=festival club venue agency private corporate"`
	TaxID          *string              `json:"tax_id" validate:"omitempty,max=50"`
	Website        *string              `json:"website" validate:"omitempty,url,max=200"`
	Notes          *string              `json:"notes"`
	IsActive       *bool                `json:"is_active"`
}

func (in *PromoterInput) apply(p *models.Promoter) {
	set(&p.PromoterName, in.PromoterName)
	if in.PromoterEmail != nil {
		p.PromoterEmail = optionalEmail(*in.PromoterEmail)
	}
	set(&p.PromoterPhone, in.PromoterPhone)
	set(&p.CompanyName, in.CompanyName)
	set(&p.CompanyAddress, in.CompanyAddress)
	set(&p.CompanyCity, in.CompanyCity)
	set(&p.CompanyZipcode, in.CompanyZipcode)
	set(&p.CompanyCountry, in.CompanyCountry)
	set(&p.PromoterType, in.PromoterType)
	set(&p.TaxID, in.TaxID)
	set(&p.Website, in.Website)
	set(&p.Notes, in.Notes)
	set(&p.IsActive, in.IsActive)
}

// PromoterSummary is the compact card of a promoter
type PromoterSummary struct {
	ID             uuid.UUID      `json:"id"`
	DisplayName    string         `json:"display_name"`
	FullAddress    string         `json:"full_address"`
	ContactMethods ContactMethods `json:"contact_methods"`
	IsActive       bool           `json:"is_active"`
	PromoterType   string         `json:"promoter_type"`
	CreatedAt      time.Time      `json:"created_at"`
}

// PromoterDashboard aggregates an agency's promoters
type PromoterDashboard struct {
	TotalPromoters    int64                `json:"total_promoters"`
	ActivePromoters   int64                `json:"active_promoters"`
	InactivePromoters int64                `json:"inactive_promoters"`
	TypeBreakdown     map[string]Breakdown `json:"type_breakdown"`
	RecentAdditions   int64                `json:"recent_additions"`
}

// List returns a page of the caller's promoters
func (s *PromoterService) List(ctx context.Context, id identity.Identity, f repository.PromoterFilter) (repository.Page[models.Promoter], error) {
	agencyID, ok := id.Agency()
	if !ok {
		return emptyPage[models.Promoter](f.ListOptions), nil
	}
	return s.repo.Promoters().List(ctx, agencyID, f)
}

// Active returns a page of the caller's active promoters
func (s *PromoterService) Active(ctx context.Context, id identity.Identity, f repository.PromoterFilter) (repository.Page[models.Promoter], error) {
	active := true
	f.IsActive = &active
	return s.List(ctx, id, f)
}

// Get returns one promoter
func (s *PromoterService) Get(ctx context.Context, id identity.Identity, promoterID uuid.UUID) (*models.Promoter, error) {
	return s.get(ctx, s.repo, id, promoterID)
}

// Create creates a promoter in the caller's agency
func (s *PromoterService) Create(ctx context.Context, id identity.Identity, in PromoterInput) (*models.Promoter, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, forbidden(MsgNoProfileForPromoter)
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	errs := validationErrors{}
	requireString(errs, "company_name", in.CompanyName)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	promoter := &models.Promoter{AgencyID: agencyID, PromoterType: models.PromoterClub, IsActive: true}
	in.apply(promoter)
	if err := checkContactMethod(promoter); err != nil {
		return nil, err
	}
	audit(&promoter.Audit, id, true)
	if err := s.checkEmail(ctx, s.repo, promoter); err != nil {
		return nil, err
	}
	if err := s.repo.Promoters().Create(ctx, promoter); err != nil {
		return nil, onDuplicate(err, "promoter_email", MsgPromoterEmailTaken)
	}
	return promoter, nil
}

// Update partially updates a promoter
func (s *PromoterService) Update(ctx context.Context, id identity.Identity, promoterID uuid.UUID, in PromoterInput) (*models.Promoter, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.CompanyName != nil && trimmed(in.CompanyName) == "" {
		return nil, validation.Field("company_name", "This field may not be blank.")
	}

	var promoter *models.Promoter
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
		var err error
		if promoter, err = s.get(ctx, tx, id, promoterID); err != nil {
			return err
		}
		in.apply(promoter)
		if err := checkContactMethod(promoter); err != nil {
			return err
		}
		audit(&promoter.Audit, id, false)
		if err := s.checkEmail(ctx, tx, promoter); err != nil {
			return err
		}
		return onDuplicate(tx.Promoters().Save(ctx, promoter), "promoter_email", MsgPromoterEmailTaken)
	})
	if err != nil {
		return nil, err
	}
	return promoter, nil
}

// Delete removes a promoter
func (s *PromoterService) Delete(ctx context.Context, id identity.Identity, promoterID uuid.UUID) error {
	agencyID, ok := id.Agency()
	if !ok {
		return notFound(MsgPromoterNotFound)
	}
	if err := s.repo.Promoters().Delete(ctx, agencyID, promoterID); err != nil {
		return fromRepo(err, "Promoter")
	}
	return nil
}

// Summary returns the compact card of a promoter
func (s *PromoterService) Summary(ctx context.Context, id identity.Identity, promoterID uuid.UUID) (*PromoterSummary, error) {
	p, err := s.get(ctx, s.repo, id, promoterID)
	if err != nil {
		return nil, err
	}
	return &PromoterSummary{
		ID:          p.ID,
		DisplayName: p.DisplayName(),
		FullAddress: p.FullAddress(),
		ContactMethods: ContactMethods{
			HasEmail:   p.PromoterEmail != nil,
			HasPhone:   p.PromoterPhone != "",
			HasWebsite: p.Website != "",
		},
		IsActive:     p.IsActive,
		PromoterType: models.LabelFor(models.PromoterTypes, string(p.PromoterType)),
		CreatedAt:    p.CreatedAt,
	}, nil
}

// Duplicate copies a promoter under a suffixed name. Email and tax id are
// cleared on the copy.
func (s *PromoterService) Duplicate(ctx context.Context, id identity.Identity, promoterID uuid.UUID, suffix *string) (*models.Promoter, error) {
	src, err := s.get(ctx, s.repo, id, promoterID)
	if err != nil {
		return nil, err
	}
	sfx := valueOr(suffix, defaultCopySuffix)

	dup := *src
	dup.ID = uuid.Nil
	dup.PromoterEmail = nil
	dup.TaxID = ""
	dup.IsActive = true
	dup.CompanyName = src.CompanyName + sfx
	if src.PromoterName != "" {
		dup.PromoterName = src.PromoterName + sfx
	}
	dup.Notes = strings.TrimSpace("Duplicated from " + src.CompanyName + ". " + src.Notes)
	dup.Audit = models.Audit{}
	audit(&dup.Audit, id, true)

	if err := s.repo.Promoters().Create(ctx, &dup); err != nil {
		return nil, badRequest("Failed to duplicate promoter: " + err.Error())
	}
	return &dup, nil
}

// ToggleStatus flips the active flag of a promoter
func (s *PromoterService) ToggleStatus(ctx context.Context, id identity.Identity, promoterID uuid.UUID) (*models.Promoter, error) {
	p, err := s.get(ctx, s.repo, id, promoterID)
	if err != nil {
		return nil, err
	}
	p.IsActive = !p.IsActive
	audit(&p.Audit, id, false)
	if err := s.repo.Promoters().Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// BulkUpdateStatus sets the active flag on several promoters
func (s *PromoterService) BulkUpdateStatus(ctx context.Context, id identity.Identity, in BulkStatusInput) (*BulkResult, error) {
	return bulkStatus(ctx, s.repo.Promoters(), id, in, "promoter_ids", "promoters")
}

// ByType groups the caller's promoters by type, listing every type
func (s *PromoterService) ByType(ctx context.Context, id identity.Identity) (map[string]Group[models.Promoter], error) {
	all, err := s.all(ctx, id)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]Group[models.Promoter], len(models.PromoterTypes))
	for _, c := range models.PromoterTypes {
		groups[c.Value] = Group[models.Promoter]{Label: c.Label, Items: []models.Promoter{}}
	}
	for _, p := range all {
		g := groups[string(p.PromoterType)]
		g.Items = append(g.Items, p)
		g.Count++
		groups[string(p.PromoterType)] = g
	}
	return groups, nil
}

// ByCountry groups the caller's promoters by company country
func (s *PromoterService) ByCountry(ctx context.Context, id identity.Identity) (map[string]Group[models.Promoter], error) {
	all, err := s.all(ctx, id)
	if err != nil {
		return nil, err
	}
	groups := map[string]Group[models.Promoter]{}
	for _, p := range all {
		key := p.CompanyCountry
		if key == "" {
			key = unknownCountry
		}
		g := groups[key]
		g.Items = append(g.Items, p)
		g.Count++
		groups[key] = g
	}
	return groups, nil
}

// DashboardStats summarises the caller's promoters
func (s *PromoterService) DashboardStats(ctx context.Context, id identity.Identity) (*PromoterDashboard, error) {
	out := &PromoterDashboard{TypeBreakdown: breakdown(models.PromoterTypes, nil)}
	agencyID, ok := id.Agency()
	if !ok {
		return out, nil
	}
	status, err := s.repo.Promoters().CountStatus(ctx, agencyID, s.now().Add(-recentWindow))
	if err != nil {
		return nil, err
	}
	types, err := s.repo.Promoters().CountBy(ctx, agencyID, "promoter_type")
	if err != nil {
		return nil, err
	}
	out.TotalPromoters = status.Total
	out.ActivePromoters = status.Active
	out.InactivePromoters = status.Total - status.Active
	out.TypeBreakdown = breakdown(models.PromoterTypes, types)
	out.RecentAdditions = status.Recent
	return out, nil
}

func (s *PromoterService) all(ctx context.Context, id identity.Identity) ([]models.Promoter, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, nil
	}
	return s.repo.Promoters().All(ctx, agencyID, false, "company_name, promoter_name")
}

func (s *PromoterService) get(ctx context.Context, repo repository.Repository, id identity.Identity, promoterID uuid.UUID) (*models.Promoter, error) {
	agencyID, ok := id.Agency()
	if !ok {
		return nil, notFound(MsgPromoterNotFound)
	}
	p, err := repo.Promoters().Get(ctx, agencyID, promoterID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(MsgPromoterNotFound)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load promoter")
	}
	return p, nil
}

func (s *PromoterService) checkEmail(ctx context.Context, repo repository.Repository, p *models.Promoter) error {
	if p.PromoterEmail == nil {
		return nil
	}
	taken, err := repo.Promoters().EmailTaken(ctx, p.AgencyID, *p.PromoterEmail, p.ID)
	if err != nil {
		return errors.Wrap(err, "failed to check promoter email")
	}
	if taken {
		return validation.Field("promoter_email", MsgPromoterEmailTaken)
	}
	return nil
}

func checkContactMethod(p *models.Promoter) error {
	if p.PromoterEmail == nil && strings.TrimSpace(p.PromoterPhone) == "" && strings.TrimSpace(p.Website) == "" {
		return validation.Field("non_field_errors", MsgNoContactMethod)
	}
	return nil
}
