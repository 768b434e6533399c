package savedsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marxist91/togoestate/internal/actor"
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

// Save stores a named search query for the acting customer.
func (s *Service) Save(ctx context.Context, name string, query json.RawMessage) (*models.SavedSearch, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}

	decision, err := s.engine.Authorize(act, policy.KindSavedSearch, nil, policy.OpCreate)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, models.ErrForbidden
	}

	if len(query) == 0 || !json.Valid(query) {
		return nil, fmt.Errorf("%w: query must be a JSON object", models.ErrInvalidInput)
	}

	ss := &models.SavedSearch{ID: uuid.New(), UserID: &act.ID, Name: name, Query: query}
	_, err = s.db.Exec(ctx,
		`INSERT INTO saved_searches (id, user_id, name, query) VALUES ($1, $2, $3, $4)`,
		ss.ID, ss.UserID, ss.Name, ss.Query,
	)
	if err != nil {
		return nil, fmt.Errorf("insert saved search: %w", err)
	}
	return ss, nil
}

// List returns the actor's saved searches.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.SavedSearch, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindSavedSearch)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	where, args := scope.SQL(1)
	argIdx := len(args) + 1
	query := fmt.Sprintf(
		`SELECT id, user_id, name, query, created_at, updated_at FROM saved_searches
		 WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query saved searches: %w", err)
	}
	defer rows.Close()

	var out []models.SavedSearch
	for rows.Next() {
		var ss models.SavedSearch
		if err := rows.Scan(&ss.ID, &ss.UserID, &ss.Name, &ss.Query, &ss.CreatedAt, &ss.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan saved search: %w", err)
		}
		out = append(out, ss)
	}
	return out, nil
}

// Delete removes one of the actor's saved searches.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return models.ErrForbidden
	}

	ss, err := s.byID(ctx, id)
	if err != nil {
		return err
	}

	decision, err := s.engine.Authorize(act, policy.KindSavedSearch, ss, policy.OpDelete)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return models.ErrForbidden
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete saved search: %w", err)
	}
	return nil
}

// RecordHistory appends a search to the actor's history. Best effort from the
// browse handler; anonymous searches are not recorded.
func (s *Service) RecordHistory(ctx context.Context, query string, resultsCount int) error {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO search_history (id, user_id, query, results_count) VALUES ($1, $2, $3, $4)`,
		uuid.New(), act.ID, query, resultsCount,
	)
	if err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

// History returns the actor's recent searches.
func (s *Service) History(ctx context.Context, limit int) ([]models.SearchHistory, error) {
	act, ok := actor.FromContext(ctx)
	if !ok {
		return nil, models.ErrForbidden
	}
	scope, err := s.engine.ScopeFor(act, policy.KindSearchHistory)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	where, args := scope.SQL(1)
	argIdx := len(args) + 1
	query := fmt.Sprintf(
		`SELECT id, user_id, query, results_count, searched_at FROM search_history
		 WHERE %s ORDER BY searched_at DESC LIMIT $%d`, where, argIdx)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query search history: %w", err)
	}
	defer rows.Close()

	var out []models.SearchHistory
	for rows.Next() {
		var h models.SearchHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Query, &h.ResultsCount, &h.SearchedAt); err != nil {
			return nil, fmt.Errorf("scan search history: %w", err)
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *Service) byID(ctx context.Context, id uuid.UUID) (*models.SavedSearch, error) {
	var ss models.SavedSearch
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, query, created_at, updated_at FROM saved_searches WHERE id = $1`, id,
	).Scan(&ss.ID, &ss.UserID, &ss.Name, &ss.Query, &ss.CreatedAt, &ss.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("query saved search: %w", err)
	}
	return &ss, nil
}
