package location

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
	"github.com/marxist91/togoestate/internal/database"
	"github.com/marxist91/togoestate/internal/models"
)

// Service serves the city/district reference data. Reads are public,
// writes are a platform operation.
type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

func (s *Service) Cities(ctx context.Context) ([]models.City, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []models.City
	for rows.Next() {
		var c models.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}
	return cities, nil
}

func (s *Service) Districts(ctx context.Context, cityID uuid.UUID) ([]models.District, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, city_id, name FROM districts WHERE city_id = $1 ORDER BY name`, cityID)
	if err != nil {
		return nil, fmt.Errorf("query districts: %w", err)
	}
	defer rows.Close()

	var districts []models.District
	for rows.Next() {
		var d models.District
		if err := rows.Scan(&d.ID, &d.CityID, &d.Name); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		districts = append(districts, d)
	}
	return districts, nil
}

func (s *Service) CreateCity(ctx context.Context, name string) (*models.City, error) {
	act, ok := actor.FromContext(ctx)
	if !ok || !act.IsPlatformAdmin() {
		return nil, models.ErrForbidden
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}

	c := &models.City{ID: uuid.New(), Name: name}
	if _, err := s.db.Exec(ctx, `INSERT INTO cities (id, name) VALUES ($1, $2)`, c.ID, c.Name); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: city %q already exists", models.ErrConflict, name)
		}
		return nil, fmt.Errorf("insert city: %w", err)
	}
	return c, nil
}

func (s *Service) CreateDistrict(ctx context.Context, cityID uuid.UUID, name string) (*models.District, error) {
	act, ok := actor.FromContext(ctx)
	if !ok || !act.IsPlatformAdmin() {
		return nil, models.ErrForbidden
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}

	d := &models.District{ID: uuid.New(), CityID: cityID, Name: name}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO districts (id, city_id, name) VALUES ($1, $2, $3)`, d.ID, d.CityID, d.Name); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: district %q already exists", models.ErrConflict, name)
		}
		return nil, fmt.Errorf("insert district: %w", err)
	}
	return d, nil
}
