package agency

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/audit"
	"github.com/marxist91/togoestate/internal/database"
	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
)

const agencyColumns = `id, name, slug, email, phone, city, address, description, verified, logo_url, created_at`

type Auditor interface {
	Log(ctx context.Context, entry audit.LogEntry) error
}

type Service struct {
	db     *pgxpool.Pool
	engine *policy.Engine
	audit  Auditor
}

func NewService(db *pgxpool.Pool, engine *policy.Engine, auditor Auditor) *Service {
	return &Service{db: db, engine: engine, audit: auditor}
}

type CreateInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Description string `json:"description"`
	LogoURL     string `json:"logo_url"`
}

// Create registers a new agency. Onboarding agencies is a platform operation;
// agency admins manage an agency, they do not mint them.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Agency, error) {
	act, ok := actor.FromContext(ctx)
	if !ok || !act.IsPlatformAdmin() {
		return nil, models.ErrForbidden
	}
	if in.Name == "" || in.City == "" {
		return nil, fmt.Errorf("%w: name and city are required", models.ErrInvalidInput)
	}

	agency := &models.Agency{
		ID:          uuid.New(),
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Email:       strings.ToLower(in.Email),
		Phone:       in.Phone,
		City:        in.City,
		Address:     in.Address,
		Description: in.Description,
		LogoURL:     in.LogoURL,
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO agencies (id, name, slug, email, phone, city, address, description, verified, logo_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)`,
		agency.ID, agency.Name, agency.Slug, agency.Email, agency.Phone, agency.City,
		agency.Address, agency.Description, agency.LogoURL,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: agency slug %q already exists", models.ErrConflict, agency.Slug)
		}
		return nil, fmt.Errorf("insert agency: %w", err)
	}

	s.logAudit(ctx, "agency.create", &agency.ID, map[string]interface{}{"name": agency.Name})
	return agency, nil
}

// Get returns an agency. Agencies are public directory entries, so no scope
// applies to single reads.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	return s.agencyBy(ctx, "id", id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Agency, error) {
	return s.agencyBy(ctx, "slug", slug)
}

// List returns verified agencies for the public directory. Admins listing
// through the cockpit pass includeUnverified.
func (s *Service) List(ctx context.Context, includeUnverified bool, limit, offset int) ([]models.Agency, error) {
	if includeUnverified {
		act, ok := actor.FromContext(ctx)
		if !ok || !act.IsPlatformAdmin() {
			return nil, models.ErrForbidden
		}
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM agencies`, agencyColumns)
	if !includeUnverified {
		query += ` WHERE verified = TRUE`
	}
	query += ` ORDER BY name LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query agencies: %w", err)
	}
	defer rows.Close()

	var agencies []models.Agency
	for rows.Next() {
		var a models.Agency
		if err := scanAgency(rows, &a); err != nil {
			return nil, err
		}
		agencies = append(agencies, a)
	}
	return agencies, nil
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	City        *string `json:"city"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url"`
}

// Update edits agency profile data. Permitted for platform admins and the
// agency's own admin.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Agency, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	agency, err := s.agencyBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Authorize(act, policy.KindAgency, agency, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	sets := []string{}
	args := []any{id}
	argIdx := 2
	set := func(col string, v *string) {
		if v == nil {
			return
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, *v)
		argIdx++
	}
	set("name", in.Name)
	set("email", in.Email)
	set("phone", in.Phone)
	set("city", in.City)
	set("address", in.Address)
	set("description", in.Description)
	set("logo_url", in.LogoURL)

	if len(sets) == 0 {
		return agency, nil
	}

	query := fmt.Sprintf(`UPDATE agencies SET %s WHERE id = $1`, strings.Join(sets, ", "))
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update agency: %w", err)
	}

	s.logAudit(ctx, "agency.update", &id, nil)
	return s.agencyBy(ctx, "id", id)
}

// SetVerified flips the verification flag. Platform admins only.
func (s *Service) SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*models.Agency, error) {
	act, ok := actor.FromContext(ctx)
	if !ok || !act.IsPlatformAdmin() {
		return nil, models.ErrForbidden
	}

	tag, err := s.db.Exec(ctx, `UPDATE agencies SET verified = $2 WHERE id = $1`, id, verified)
	if err != nil {
		return nil, fmt.Errorf("update agency verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	action := "agency.verify"
	if !verified {
		action = "agency.unverify"
	}
	s.logAudit(ctx, action, &id, nil)
	return s.agencyBy(ctx, "id", id)
}

// Delete removes an agency. Platform operation: deleting the tenant pulls the
// ground out from under its agents and listings, an agency admin cannot do
// that to themself.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	act, ok := actor.FromContext(ctx)
	if !ok || !act.IsPlatformAdmin() {
		return models.ErrForbidden
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	s.logAudit(ctx, "agency.delete", &id, nil)
	return nil
}

type Stats struct {
	ListingCount   int `json:"listing_count"`
	PublishedCount int `json:"published_count"`
	AgentCount     int `json:"agent_count"`
	PendingVisits  int `json:"pending_visits"`
}

// DashboardStats aggregates counts for the agency cockpit. The actor must be
// able to see the agency through the resolver.
func (s *Service) DashboardStats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindAgency)
	if err != nil {
		return nil, err
	}

	agency, err := s.agencyBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(agency) {
		return nil, models.ErrNotFound
	}

	var st Stats
	err = s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM listings WHERE agency_id = $1),
			(SELECT COUNT(*) FROM listings WHERE agency_id = $1 AND published),
			(SELECT COUNT(*) FROM users WHERE agency_id = $1 AND role IN ('agent', 'agency_admin') AND is_active),
			(SELECT COUNT(*) FROM appointments WHERE agency_id = $1 AND status = 'pending')`,
		id,
	).Scan(&st.ListingCount, &st.PublishedCount, &st.AgentCount, &st.PendingVisits)
	if err != nil {
		return nil, fmt.Errorf("query agency stats: %w", err)
	}
	return &st, nil
}

func (s *Service) agencyBy(ctx context.Context, column string, value any) (*models.Agency, error) {
	var a models.Agency
	row := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM agencies WHERE %s = $1`, agencyColumns, column), value)
	if err := scanAgency(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query agency by %s: %w", column, err)
	}
	return &a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgency(row rowScanner, a *models.Agency) error {
	return row.Scan(
		&a.ID, &a.Name, &a.Slug, &a.Email, &a.Phone, &a.City, &a.Address,
		&a.Description, &a.Verified, &a.LogoURL, &a.CreatedAt,
	)
}

func (s *Service) logAudit(ctx context.Context, action string, resourceID *uuid.UUID, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Log(ctx, audit.LogEntry{
		Action:       action,
		ResourceType: "agency",
		ResourceID:   resourceID,
		Details:      details,
	})
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a name into a URL-safe slug.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
