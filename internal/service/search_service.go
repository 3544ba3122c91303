package service

import (
	"context"
	"fmt"

	"classifieds-service/internal/model"
	"classifieds-service/internal/normalize"
)

// LocalitySearcher is the two queries the fallback orchestrator runs.
type LocalitySearcher interface {
	FindByLocality(ctx context.Context, city, category, locality string, limit int) ([]model.Listing, error)
	FindNearLocality(ctx context.Context, city, category, locality string, limit int) ([]model.Listing, error)
}

// LocalityFeed is a locality page: exact matches first, and a clearly
// separate nearby section only when the exact set came up sparse. An empty
// Exact with Widened set is the "be the first to post here" state for the
// UI, not an error.
type LocalityFeed struct {
	City     string          `json:"city"`
	Locality string          `json:"locality"`
	Category string          `json:"category"`
	Exact    []model.Listing `json:"exact"`
	Nearby   []model.Listing `json:"nearby"`
	Widened  bool            `json:"widened"`
}

// SearchService runs the tiered locality search: exact scope first, widened
// to city scope only when the exact results are sparse. The same pattern
// generalizes to any geographic drill-down.
type SearchService struct {
	searcher        LocalitySearcher
	sparseThreshold int
	sectionCap      int
}

func NewSearchService(searcher LocalitySearcher, sparseThreshold, sectionCap int) *SearchService {
	return &SearchService{
		searcher:        searcher,
		sparseThreshold: sparseThreshold,
		sectionCap:      sectionCap,
	}
}

// LocalityFeed resolves the slugged route segments and runs the two-phase
// search. categorySlug is lenient: an unknown category formats as display
// text rather than failing the page.
func (s *SearchService) LocalityFeed(ctx context.Context, city, localitySlug, categorySlug string) (*LocalityFeed, error) {
	locality := normalize.SlugToDisplay(localitySlug)
	category := ""
	if categorySlug != "" {
		category = normalize.CategoryOrDisplay(categorySlug)
	}

	exact, err := s.searcher.FindByLocality(ctx, city, category, locality, s.sectionCap)
	if err != nil {
		return nil, fmt.Errorf("SearchService.LocalityFeed: exact: %w", err)
	}

	feed := &LocalityFeed{
		City:     city,
		Locality: locality,
		Category: category,
		Exact:    exact,
		Nearby:   []model.Listing{},
	}

	if len(exact) < s.sparseThreshold {
		nearby, err := s.searcher.FindNearLocality(ctx, city, category, locality, s.sectionCap)
		if err != nil {
			return nil, fmt.Errorf("SearchService.LocalityFeed: nearby: %w", err)
		}
		feed.Nearby = nearby
		feed.Widened = true
	}

	return feed, nil
}
