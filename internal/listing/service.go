package listing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/audit"
	"github.com/marxist91/togoestate/internal/cache"
	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
	"github.com/marxist91/togoestate/internal/queue"
)

const listingColumns = `id, agency_id, owner_id, title, slug, category, listing_type, price, currency,
	bedrooms, bathrooms, surface, city, address, description, published, created_at, updated_at`

type Auditor interface {
	Log(ctx context.Context, entry audit.LogEntry) error
}

// Notifier enqueues notification fan-out after a successful persist.
// Satisfied by *queue.Client.
type Notifier interface {
	EnqueueNotificationDeliver(payload queue.NotificationDeliverPayload) error
}

type Service struct {
	db       *pgxpool.Pool
	engine   *policy.Engine
	cache    *cache.Cache
	cacheTTL time.Duration
	audit    Auditor
	notifier Notifier
}

func NewService(db *pgxpool.Pool, engine *policy.Engine, c *cache.Cache, cacheTTL time.Duration, auditor Auditor, notifier Notifier) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{db: db, engine: engine, cache: c, cacheTTL: cacheTTL, audit: auditor, notifier: notifier}
}

type CreateInput struct {
	Title       string                 `json:"title"`
	Category    models.ListingCategory `json:"category"`
	ListingType models.ListingType     `json:"listing_type"`
	Price       int64                  `json:"price"`
	Currency    string                 `json:"currency"`
	Bedrooms    *int                   `json:"bedrooms"`
	Bathrooms   *int                   `json:"bathrooms"`
	Surface     *int                   `json:"surface"`
	City        string                 `json:"city"`
	Address     string                 `json:"address"`
	Description string                 `json:"description"`
	AgencyID    *uuid.UUID             `json:"agency_id"`
	OwnerID     *uuid.UUID             `json:"owner_id"`
}

// Create inserts a listing under policy control. The field lockdown pins the
// agency to the actor's tenant and, for agents, the owner to the actor; a
// platform admin may place the listing anywhere.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Listing, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	decision, err := s.engine.Authorize(act, policy.KindListing, nil, policy.OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	if in.Title == "" || in.City == "" || in.Price <= 0 {
		return nil, fmt.Errorf("%w: title, city and a positive price are required", models.ErrInvalidInput)
	}
	if !models.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, in.Category)
	}
	if !models.ValidListingType(in.ListingType) {
		return nil, fmt.Errorf("%w: unknown listing type %q", models.ErrInvalidInput, in.ListingType)
	}
	if in.Currency == "" {
		in.Currency = "XOF"
	}

	payload := decision.Lockdown.Apply(map[string]any{
		policy.FieldAgency: in.AgencyID,
		policy.FieldOwner:  in.OwnerID,
	})

	l := &models.Listing{
		ID:          uuid.New(),
		Title:       in.Title,
		Slug:        slugifyWithID(in.Title),
		Category:    in.Category,
		ListingType: in.ListingType,
		Price:       in.Price,
		Currency:    in.Currency,
		Bedrooms:    in.Bedrooms,
		Bathrooms:   in.Bathrooms,
		Surface:     in.Surface,
		City:        in.City,
		Address:     in.Address,
		Description: in.Description,
	}
	l.AgencyID = uuidRef(payload[policy.FieldAgency])
	l.OwnerID = uuidRef(payload[policy.FieldOwner])
	if l.OwnerID == nil {
		l.OwnerID = &act.ID
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO listings (id, agency_id, owner_id, title, slug, category, listing_type, price, currency,
			bedrooms, bathrooms, surface, city, address, description, published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, FALSE)`,
		l.ID, l.AgencyID, l.OwnerID, l.Title, l.Slug, l.Category, l.ListingType, l.Price, l.Currency,
		l.Bedrooms, l.Bathrooms, l.Surface, l.City, l.Address, l.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert listing: %w", err)
	}

	s.logAudit(ctx, "listing.create", &l.ID, map[string]interface{}{"title": l.Title})
	return l, nil
}

// Get returns a listing for cockpit use: unpublished listings are visible
// only inside the actor's scope, published ones to everyone.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	l, err := s.listingBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}
	if l.Published {
		return l, nil
	}

	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrNotFound
	}
	scope, err := s.engine.ScopeFor(act, policy.KindListing)
	if err != nil {
		return nil, err
	}
	if !scope.Matches(l) {
		return nil, models.ErrNotFound
	}
	return l, nil
}

type Filter struct {
	City        string
	Category    models.ListingCategory
	ListingType models.ListingType
	MinPrice    int64
	MaxPrice    int64
	Limit       int
	Offset      int
}

func (f Filter) apply(query string, args []any) (string, []any) {
	argIdx := len(args) + 1
	if f.City != "" {
		query += fmt.Sprintf(" AND city = $%d", argIdx)
		args = append(args, f.City)
		argIdx++
	}
	if f.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, f.Category)
		argIdx++
	}
	if f.ListingType != "" {
		query += fmt.Sprintf(" AND listing_type = $%d", argIdx)
		args = append(args, f.ListingType)
		argIdx++
	}
	if f.MinPrice > 0 {
		query += fmt.Sprintf(" AND price >= $%d", argIdx)
		args = append(args, f.MinPrice)
		argIdx++
	}
	if f.MaxPrice > 0 {
		query += fmt.Sprintf(" AND price <= $%d", argIdx)
		args = append(args, f.MaxPrice)
		argIdx++
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)
	return query, args
}

// List returns the listings inside the actor's visibility scope, for the
// cockpit. Agents see the whole agency's inventory here.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Listing, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindListing)
	if err != nil {
		return nil, err
	}

	where, args := scope.SQL(1)
	query, args := f.apply(fmt.Sprintf(`SELECT %s FROM listings WHERE %s`, listingColumns, where), args)
	return s.queryListings(ctx, query, args)
}

// PublicSearch serves the public browse surface: published listings only,
// no actor required. This is a deliberate second read path next to the
// resolver, not a bypass of it.
func (s *Service) PublicSearch(ctx context.Context, f Filter) ([]models.Listing, error) {
	query, args := f.apply(fmt.Sprintf(`SELECT %s FROM listings WHERE published`, listingColumns), nil)
	return s.queryListings(ctx, query, args)
}

// PublicGet returns a published listing with photos, going through the cache.
func (s *Service) PublicGet(ctx context.Context, slug string) (*models.Listing, error) {
	key := "listing:public:" + slug
	if s.cache != nil {
		var cached models.Listing
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	l, err := s.listingBy(ctx, "slug", slug)
	if err != nil {
		return nil, err
	}
	if !l.Published {
		return nil, models.ErrNotFound
	}

	photos, err := s.Photos(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	l.Photos = photos

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, l, s.cacheTTL)
	}
	return l, nil
}

type UpdateInput struct {
	Title       *string                 `json:"title"`
	Category    *models.ListingCategory `json:"category"`
	ListingType *models.ListingType     `json:"listing_type"`
	Price       *int64                  `json:"price"`
	Currency    *string                 `json:"currency"`
	Bedrooms    *int                    `json:"bedrooms"`
	Bathrooms   *int                    `json:"bathrooms"`
	Surface     *int                    `json:"surface"`
	City        *string                 `json:"city"`
	Address     *string                 `json:"address"`
	Description *string                 `json:"description"`
}

// Update edits listing fields. Agents may only touch their own listings even
// though they can see the whole agency's.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*models.Listing, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	l, err := s.listingBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Authorize(act, policy.KindListing, l, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	if in.Category != nil && !models.ValidCategory(*in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, *in.Category)
	}
	if in.ListingType != nil && !models.ValidListingType(*in.ListingType) {
		return nil, fmt.Errorf("%w: unknown listing type %q", models.ErrInvalidInput, *in.ListingType)
	}
	if in.Price != nil && *in.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", models.ErrInvalidInput)
	}

	sets := []string{"updated_at = now()"}
	args := []any{id}
	argIdx := 2
	set := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, v)
		argIdx++
	}
	if in.Title != nil {
		set("title", *in.Title)
	}
	if in.Category != nil {
		set("category", *in.Category)
	}
	if in.ListingType != nil {
		set("listing_type", *in.ListingType)
	}
	if in.Price != nil {
		set("price", *in.Price)
	}
	if in.Currency != nil {
		set("currency", *in.Currency)
	}
	if in.Bedrooms != nil {
		set("bedrooms", *in.Bedrooms)
	}
	if in.Bathrooms != nil {
		set("bathrooms", *in.Bathrooms)
	}
	if in.Surface != nil {
		set("surface", *in.Surface)
	}
	if in.City != nil {
		set("city", *in.City)
	}
	if in.Address != nil {
		set("address", *in.Address)
	}
	if in.Description != nil {
		set("description", *in.Description)
	}

	if len(sets) > 1 {
		query := fmt.Sprintf(`UPDATE listings SET %s WHERE id = $1`, strings.Join(sets, ", "))
		if _, err := s.db.Exec(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("update listing: %w", err)
		}
	}

	s.invalidate(ctx, l)
	s.logAudit(ctx, "listing.update", &id, nil)
	return s.listingBy(ctx, "id", id)
}

// SetPublished flips the publish flag under the same mutation rules as an
// update. Publishing notifies the listing owner.
func (s *Service) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*models.Listing, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	l, err := s.listingBy(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Authorize(act, policy.KindListing, l, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	if _, err := s.db.Exec(ctx,
		`UPDATE listings SET published = $2, updated_at = now() WHERE id = $1`, id, published); err != nil {
		return nil, fmt.Errorf("update listing publish flag: %w", err)
	}

	s.invalidate(ctx, l)

	action := "listing.publish"
	if !published {
		action = "listing.unpublish"
	}
	s.logAudit(ctx, action, &id, nil)

	if published && s.notifier != nil && l.OwnerID != nil && *l.OwnerID != act.ID {
		_ = s.notifier.EnqueueNotificationDeliver(queue.NotificationDeliverPayload{
			UserID:       l.OwnerID.String(),
			Type:         string(models.NotifyListingApproved),
			Title:        "Listing published",
			Message:      fmt.Sprintf("Your listing %q is now live.", l.Title),
			ResourceType: "listing",
			ResourceID:   l.ID.String(),
		})
	}

	return s.listingBy(ctx, "id", id)
}

// Delete removes a listing and its photos.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return models.ErrForbidden
	}

	l, err := s.listingBy(ctx, "id", id)
	if err != nil {
		return err
	}

	decision, err := s.engine.Authorize(act, policy.KindListing, l, policy.OpDelete)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return models.ErrForbidden
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	s.invalidate(ctx, l)
	s.logAudit(ctx, "listing.delete", &id, map[string]interface{}{"title": l.Title})
	return nil
}

// Photos returns a listing's photos in display order.
func (s *Service) Photos(ctx context.Context, listingID uuid.UUID) ([]models.ListingPhoto, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, listing_id, image_url, is_cover, position FROM listing_photos
		 WHERE listing_id = $1 ORDER BY position`, listingID)
	if err != nil {
		return nil, fmt.Errorf("query listing photos: %w", err)
	}
	defer rows.Close()

	var photos []models.ListingPhoto
	for rows.Next() {
		var p models.ListingPhoto
		if err := rows.Scan(&p.ID, &p.ListingID, &p.ImageURL, &p.IsCover, &p.Position); err != nil {
			return nil, fmt.Errorf("scan listing photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// AddPhoto attaches a photo URL to a listing the actor may edit.
func (s *Service) AddPhoto(ctx context.Context, listingID uuid.UUID, imageURL string, isCover bool) (*models.ListingPhoto, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image_url is required", models.ErrInvalidInput)
	}

	l, err := s.listingBy(ctx, "id", listingID)
	if err != nil {
		return nil, err
	}
	decision, err := s.engine.Authorize(act, policy.KindListing, l, policy.OpUpdate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	p := &models.ListingPhoto{ID: uuid.New(), ListingID: listingID, ImageURL: imageURL, IsCover: isCover}
	err = s.db.QueryRow(ctx,
		`INSERT INTO listing_photos (id, listing_id, image_url, is_cover, position)
		 VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(position), 0) + 1 FROM listing_photos WHERE listing_id = $2))
		 RETURNING position`,
		p.ID, p.ListingID, p.ImageURL, p.IsCover,
	).Scan(&p.Position)
	if err != nil {
		return nil, fmt.Errorf("insert listing photo: %w", err)
	}

	s.invalidate(ctx, l)
	return p, nil
}

// RemovePhoto deletes a photo from a listing the actor may edit.
func (s *Service) RemovePhoto(ctx context.Context, listingID, photoID uuid.UUID) error {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return models.ErrForbidden
	}

	l, err := s.listingBy(ctx, "id", listingID)
	if err != nil {
		return err
	}
	decision, err := s.engine.Authorize(act, policy.KindListing, l, policy.OpUpdate)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return models.ErrForbidden
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM listing_photos WHERE id = $1 AND listing_id = $2`, photoID, listingID)
	if err != nil {
		return fmt.Errorf("delete listing photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	s.invalidate(ctx, l)
	return nil
}

func (s *Service) queryListings(ctx context.Context, query string, args []any) ([]models.Listing, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func (s *Service) listingBy(ctx context.Context, column string, value any) (*models.Listing, error) {
	var l models.Listing
	row := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM listings WHERE %s = $1`, listingColumns, column), value)
	if err := scanListing(row, &l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query listing by %s: %w", column, err)
	}
	return &l, nil
}

func (s *Service) invalidate(ctx context.Context, l *models.Listing) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, "listing:public:"+l.Slug)
}

func (s *Service) logAudit(ctx context.Context, action string, resourceID *uuid.UUID, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Log(ctx, audit.LogEntry{
		Action:       action,
		ResourceType: "listing",
		ResourceID:   resourceID,
		Details:      details,
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner, l *models.Listing) error {
	return row.Scan(
		&l.ID, &l.AgencyID, &l.OwnerID, &l.Title, &l.Slug, &l.Category, &l.ListingType,
		&l.Price, &l.Currency, &l.Bedrooms, &l.Bathrooms, &l.Surface, &l.City, &l.Address,
		&l.Description, &l.Published, &l.CreatedAt, &l.UpdatedAt,
	)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugifyWithID derives a slug from the title plus a short random suffix so
// identically titled listings never collide.
func slugifyWithID(title string) string {
	slug := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(title), "-"), "-")
	suffix := strings.Split(uuid.NewString(), "-")[0]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

func uuidRef(v any) *uuid.UUID {
	switch id := v.(type) {
	case *uuid.UUID:
		return id
	case uuid.UUID:
		return &id
	}
	return nil
}
