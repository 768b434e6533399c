package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marxist91/togoestate/internal/listing"
	"github.com/marxist91/togoestate/internal/models"
)

type stubListingService struct {
	ListingService
	published  []models.Listing
	lastFilter listing.Filter
}

func (s *stubListingService) PublicSearch(_ context.Context, f listing.Filter) ([]models.Listing, error) {
	s.lastFilter = f
	var out []models.Listing
	for _, l := range s.published {
		if f.City != "" && l.City != f.City {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *stubListingService) PublicGet(_ context.Context, slug string) (*models.Listing, error) {
	for i := range s.published {
		if s.published[i].Slug == slug {
			return &s.published[i], nil
		}
	}
	return nil, models.ErrNotFound
}

type stubHistory struct {
	queries []string
	counts  []int
}

func (s *stubHistory) RecordHistory(_ context.Context, query string, resultsCount int) error {
	s.queries = append(s.queries, query)
	s.counts = append(s.counts, resultsCount)
	return nil
}

func newPublicRouter(svc ListingService, history HistoryRecorder) http.Handler {
	h := NewListingHandler(svc, history)
	r := chi.NewRouter()
	r.Get("/listings", h.Search)
	r.Get("/listings/{slug}", h.PublicGet)
	return r
}

func TestPublicSearchFiltersAndHistory(t *testing.T) {
	svc := &stubListingService{published: []models.Listing{
		{ID: uuid.New(), Slug: "villa-lome-1", City: "Lome", Published: true},
		{ID: uuid.New(), Slug: "flat-kara-1", City: "Kara", Published: true},
	}}
	history := &stubHistory{}
	r := newPublicRouter(svc, history)

	req := httptest.NewRequest(http.MethodGet, "/listings?city=Lome&type=rent&min_price=1000", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	if svc.lastFilter.City != "Lome" {
		t.Errorf("city filter = %q, want Lome", svc.lastFilter.City)
	}
	if svc.lastFilter.ListingType != models.ListingRent {
		t.Errorf("type filter = %q, want rent", svc.lastFilter.ListingType)
	}
	if svc.lastFilter.MinPrice != 1000 {
		t.Errorf("min price = %d, want 1000", svc.lastFilter.MinPrice)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want 1", resp.Count)
	}

	if len(history.queries) != 1 || history.counts[0] != 1 {
		t.Errorf("history = %v / %v, want one entry with count 1", history.queries, history.counts)
	}
}

func TestPublicSearchWithoutQuerySkipsHistory(t *testing.T) {
	history := &stubHistory{}
	r := newPublicRouter(&stubListingService{}, history)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(history.queries) != 0 {
		t.Errorf("expected no history entries, got %v", history.queries)
	}
}

func TestPublicGetBySlug(t *testing.T) {
	svc := &stubListingService{published: []models.Listing{
		{ID: uuid.New(), Slug: "villa-lome-1", City: "Lome", Published: true},
	}}
	r := newPublicRouter(svc, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/villa-lome-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/listings/no-such-slug", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
