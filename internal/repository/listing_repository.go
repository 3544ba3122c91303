package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"classifieds-service/internal/model"
)

// Page size policy for cursor-paginated feeds.
const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// ListingFilter is the optional predicate set for feed queries. All set
// predicates are ANDed. A zero Cursor means the first page.
type ListingFilter struct {
	City     string
	Category string
	Search   string
	Phone    string
	Cursor   time.Time
	Limit    int
}

// PageSize clamps the requested limit into policy.
func (f ListingFilter) PageSize() int {
	if f.Limit <= 0 {
		return DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		return MaxPageSize
	}
	return f.Limit
}

type ListingRepository struct {
	DB *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{DB: db}
}

func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO listings
            (id, reference_code, title, description, category, city, locality,
             phone, whatsapp, contact_pref, price, plan,
             job_type, experience, education, company_name,
             images, image_alts, latitude, longitude, views, created_at, expires_at)
        VALUES
            (:id, :reference_code, :title, :description, :category, :city, :locality,
             :phone, :whatsapp, :contact_pref, :price, :plan,
             :job_type, :experience, :education, :company_name,
             :images, :image_alts, :latitude, :longitude, :views, :created_at, :expires_at)
    `, l)
	if err != nil {
		return fmt.Errorf("ListingRepository.Create: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	if err := r.DB.GetContext(ctx, &l, `SELECT * FROM listings WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("ListingRepository.GetByID: %w", err)
	}
	return &l, nil
}

// Find runs the feed query: conjunctive optional predicates, newest first,
// cursor-paginated on created_at (strictly older than the cursor).
func (r *ListingRepository) Find(ctx context.Context, f ListingFilter) ([]model.Listing, error) {
	query := "SELECT * FROM listings WHERE expires_at > now()"
	args := []interface{}{}
	idx := 1

	if f.City != "" {
		query += fmt.Sprintf(" AND LOWER(city) = LOWER($%d)", idx)
		args = append(args, f.City)
		idx++
	}
	if f.Category != "" && !strings.EqualFold(f.Category, model.CategoryAll) {
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", idx)
		args = append(args, f.Category)
		idx++
	}
	if f.Search != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}
	if f.Phone != "" {
		query += fmt.Sprintf(" AND phone = $%d", idx)
		args = append(args, f.Phone)
		idx++
	}
	if !f.Cursor.IsZero() {
		query += fmt.Sprintf(" AND created_at < $%d", idx)
		args = append(args, f.Cursor)
		idx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, f.PageSize())

	var listings []model.Listing
	if err := r.DB.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("ListingRepository.Find: %w", err)
	}
	return listings, nil
}

// LatestByPhone returns the most recent listing for a normalized phone, or
// nil when the phone has never posted. Expired rows still count: the
// cooldown cares about when the last post happened, not whether it is live.
func (r *ListingRepository) LatestByPhone(ctx context.Context, phone string) (*model.Listing, error) {
	var l model.Listing
	err := r.DB.GetContext(ctx, &l, `
		SELECT * FROM listings
		WHERE phone = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.LatestByPhone: %w", err)
	}
	return &l, nil
}

// FindByLocality is the exact phase of the locality fallback: listings in
// the city whose locality matches the display name by substring.
func (r *ListingRepository) FindByLocality(ctx context.Context, city, category, locality string, limit int) ([]model.Listing, error) {
	query := `
		SELECT * FROM listings
		WHERE expires_at > now()
		  AND LOWER(city) = LOWER($1)
		  AND locality ILIKE $2
	`
	args := []interface{}{city, "%" + locality + "%"}
	idx := 3

	if category != "" && !strings.EqualFold(category, model.CategoryAll) {
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", idx)
		args = append(args, category)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	var listings []model.Listing
	if err := r.DB.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("ListingRepository.FindByLocality: %w", err)
	}
	return listings, nil
}

// FindNearLocality is the widened phase: same city and category but the
// locality must NOT match the target, including rows with no locality at
// all.
func (r *ListingRepository) FindNearLocality(ctx context.Context, city, category, locality string, limit int) ([]model.Listing, error) {
	query := `
		SELECT * FROM listings
		WHERE expires_at > now()
		  AND LOWER(city) = LOWER($1)
		  AND (locality = '' OR locality NOT ILIKE $2)
	`
	args := []interface{}{city, "%" + locality + "%"}
	idx := 3

	if category != "" && !strings.EqualFold(category, model.CategoryAll) {
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", idx)
		args = append(args, category)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	var listings []model.Listing
	if err := r.DB.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("ListingRepository.FindNearLocality: %w", err)
	}
	return listings, nil
}

func (r *ListingRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.IncrementViews: %w", err)
	}
	return nil
}

// AttachImage appends a stored image reference to the listing, up to the
// cap enforced by the caller.
func (r *ListingRepository) AttachImage(ctx context.Context, id, fileID, alt string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE listings
		SET images = array_append(images, $1),
		    image_alts = array_append(image_alts, $2)
		WHERE id = $3
	`, fileID, alt, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.AttachImage: %w", err)
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.Delete: %w", err)
	}
	return nil
}

// DeleteExpiredBatch hard-deletes up to limit expired listings and returns
// the removed rows so the caller can clean up images and notify the
// indexer. Bounded per invocation; rerunning after partial completion just
// finds fewer rows.
func (r *ListingRepository) DeleteExpiredBatch(ctx context.Context, limit int) ([]model.Listing, error) {
	var removed []model.Listing
	err := r.DB.SelectContext(ctx, &removed, `
		DELETE FROM listings
		WHERE id IN (
			SELECT id FROM listings WHERE expires_at <= now() LIMIT $1
		)
		RETURNING *
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.DeleteExpiredBatch: %w", err)
	}
	return removed, nil
}
