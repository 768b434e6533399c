package favorite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/database"
	"github.com/marxist91/togoestate/internal/models"
	"github.com/marxist91/togoestate/internal/policy"
)

type Service struct {
	db     *pgxpool.Pool
	engine *policy.Engine
}

func NewService(db *pgxpool.Pool, engine *policy.Engine) *Service {
	return &Service{db: db, engine: engine}
}

// Add favorites a published listing for the acting customer. Unique per
// (user, listing); favoriting twice is a conflict.
func (s *Service) Add(ctx context.Context, listingID uuid.UUID) (*models.Favorite, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	decision, err := s.engine.Authorize(act, policy.KindFavorite, nil, policy.OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	var published bool
	err = s.db.QueryRow(ctx, `SELECT published FROM listings WHERE id = $1`, listingID).Scan(&published)
	if err != nil {
		return nil, fmt.Errorf("%w: listing", models.ErrNotFound)
	}
	if !published {
		return nil, fmt.Errorf("%w: listing", models.ErrNotFound)
	}

	f := &models.Favorite{ID: uuid.New(), UserID: &act.ID, ListingID: listingID}
	_, err = s.db.Exec(ctx,
		`INSERT INTO favorites (id, user_id, listing_id) VALUES ($1, $2, $3)`,
		f.ID, f.UserID, f.ListingID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: listing already favorited", models.ErrConflict)
		}
		return nil, fmt.Errorf("insert favorite: %w", err)
	}
	return f, nil
}

// List returns the actor's favorites with their listings attached.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Favorite, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindFavorite)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	where, args := scope.SQL(1)
	argIdx := len(args) + 1
	query := fmt.Sprintf(`
		SELECT f.id, f.user_id, f.listing_id, f.created_at,
		       l.id, l.agency_id, l.owner_id, l.title, l.slug, l.category, l.listing_type,
		       l.price, l.currency, l.city, l.published
		FROM favorites f
		JOIN listings l ON l.id = f.listing_id
		WHERE %s ORDER BY f.created_at DESC LIMIT $%d OFFSET $%d`,
		qualify(where, "f"), argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var out []models.Favorite
	for rows.Next() {
		var f models.Favorite
		var l models.Listing
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.ListingID, &f.CreatedAt,
			&l.ID, &l.AgencyID, &l.OwnerID, &l.Title, &l.Slug, &l.Category, &l.ListingType,
			&l.Price, &l.Currency, &l.City, &l.Published,
		); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		f.Listing = &l
		out = append(out, f)
	}
	return out, nil
}

// Remove deletes a favorite of the actor, by listing.
func (s *Service) Remove(ctx context.Context, listingID uuid.UUID) error {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return models.ErrForbidden
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`, act.ID, listingID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// qualify prefixes the bare column of a scope fragment with a table alias.
func qualify(where, alias string) string {
	if where == "TRUE" || where == "FALSE" {
		return where
	}
	return alias + "." + where
}
