package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"classifieds-service/internal/model"
)

// StatsRepository maintains the denormalized per-city counters. Callers
// treat every write here as best-effort.
type StatsRepository struct {
	DB *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// Both bump writes key the row by INITCAP(city), so case variants of the
// same city land on one aggregate and stay consistent with the
// case-insensitive city comparisons in the listing queries.
func (r *StatsRepository) BumpPosts(ctx context.Context, city string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO city_stats (city, posts_count, views_count)
		VALUES (INITCAP($1), 1, 0)
		ON CONFLICT (city) DO UPDATE SET posts_count = city_stats.posts_count + 1
	`, city)
	if err != nil {
		return fmt.Errorf("StatsRepository.BumpPosts: %w", err)
	}
	return nil
}

func (r *StatsRepository) BumpViews(ctx context.Context, city string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO city_stats (city, posts_count, views_count)
		VALUES (INITCAP($1), 0, 1)
		ON CONFLICT (city) DO UPDATE SET views_count = city_stats.views_count + 1
	`, city)
	if err != nil {
		return fmt.Errorf("StatsRepository.BumpViews: %w", err)
	}
	return nil
}

// Trending ranks cities by posts_count + 0.5 * views_count, descending.
func (r *StatsRepository) Trending(ctx context.Context, limit int) ([]model.CityStats, error) {
	var stats []model.CityStats
	err := r.DB.SelectContext(ctx, &stats, `
		SELECT city, posts_count, views_count,
		       posts_count + 0.5 * views_count AS score
		FROM city_stats
		ORDER BY score DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("StatsRepository.Trending: %w", err)
	}
	return stats, nil
}
