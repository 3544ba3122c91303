package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"classifieds-service/internal/model"
	"classifieds-service/internal/normalize"
	"classifieds-service/internal/notify"
	"classifieds-service/internal/policy"
	"classifieds-service/internal/repository"
	"classifieds-service/internal/slug"
)

// TrendingLimit caps the trending-cities ranking.
const TrendingLimit = 20

// ListingStore is what the service needs from the listings repository.
type ListingStore interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	Find(ctx context.Context, f repository.ListingFilter) ([]model.Listing, error)
	LatestByPhone(ctx context.Context, phone string) (*model.Listing, error)
	IncrementViews(ctx context.Context, id string) error
	AttachImage(ctx context.Context, id, fileID, alt string) error
	Delete(ctx context.Context, id string) error
	DeleteExpiredBatch(ctx context.Context, limit int) ([]model.Listing, error)
}

// StatsStore maintains the per-city counters. All writes through it are
// best-effort.
type StatsStore interface {
	BumpPosts(ctx context.Context, city string) error
	BumpViews(ctx context.Context, city string) error
	Trending(ctx context.Context, limit int) ([]model.CityStats, error)
}

// ImageStore is the object store holding listing photos.
type ImageStore interface {
	Put(filename string, r io.Reader) (string, error)
	Download(fileID string) ([]byte, string, error)
	Delete(fileID string) error
}

// IndexNotifier pings the search engine about changed URLs.
type IndexNotifier interface {
	Notify(ctx context.Context, url, kind string) bool
}

// AdmissionLimiter is the per-caller submission throttle.
type AdmissionLimiter interface {
	Allow(key string) bool
}

// ListingService owns the write path (admission gate, validation, content
// policy, persistence, secondary effects) and the read paths around single
// listings.
type ListingService struct {
	listings ListingStore
	stats    StatsStore
	images   ImageStore
	notifier IndexNotifier
	limiter  AdmissionLimiter
	cooldown *policy.Cooldown
	baseURL  string

	cleanupBatch int
	now          func() time.Time

	// dispatch runs fire-and-forget side effects; swapped for a
	// synchronous runner in tests.
	dispatch func(func())
}

func NewListingService(
	listings ListingStore,
	stats StatsStore,
	images ImageStore,
	notifier IndexNotifier,
	limiter AdmissionLimiter,
	cooldown *policy.Cooldown,
	baseURL string,
	cleanupBatch int,
) *ListingService {
	return &ListingService{
		listings:     listings,
		stats:        stats,
		images:       images,
		notifier:     notifier,
		limiter:      limiter,
		cooldown:     cooldown,
		baseURL:      baseURL,
		cleanupBatch: cleanupBatch,
		now:          time.Now,
		dispatch:     func(f func()) { go f() },
	}
}

// CreateInput is the listing-creation payload after JSON binding.
type CreateInput struct {
	Title       string
	Description string
	Category    string
	City        string
	Locality    string
	Phone       string
	WhatsApp    string
	ContactPref string
	Price       string
	Plan        string
	Latitude    float64
	Longitude   float64
	Job         model.JobDetails
}

// Create runs the full admission pipeline and persists the listing.
// clientKey identifies the caller for the request limiter, typically the
// client IP.
func (s *ListingService) Create(ctx context.Context, clientKey string, in CreateInput) (*model.Listing, error) {
	if !s.limiter.Allow(clientKey) {
		return nil, ErrTooManyRequests
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, &ValidationError{Reason: "title is required"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, &ValidationError{Reason: "description is required"}
	}
	if strings.TrimSpace(in.City) == "" {
		return nil, &ValidationError{Reason: "city is required"}
	}
	if !model.ValidCategory(in.Category) {
		return nil, &ValidationError{Reason: "unknown category"}
	}

	phone, ok := normalize.Phone(in.Phone)
	if !ok {
		return nil, &ValidationError{Reason: "invalid phone number"}
	}
	whatsapp := ""
	if in.WhatsApp != "" {
		if whatsapp, ok = normalize.Phone(in.WhatsApp); !ok {
			return nil, &ValidationError{Reason: "invalid whatsapp number"}
		}
	}

	pref := in.ContactPref
	if pref == "" {
		pref = model.ContactCall
	}
	if pref != model.ContactCall && pref != model.ContactWhatsApp && pref != model.ContactBoth {
		return nil, &ValidationError{Reason: "invalid contact preference"}
	}

	plan := in.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	if plan != model.PlanFree && plan != model.PlanVerified && plan != model.PlanFeatured {
		return nil, &ValidationError{Reason: "invalid plan"}
	}

	if normalize.ContainsRestrictedNumber(in.Title) || normalize.ContainsRestrictedNumber(in.Description) {
		return nil, ErrRestrictedContent
	}

	last, err := s.listings.LatestByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("ListingService.Create: %w", err)
	}
	if last != nil {
		if remaining := s.cooldown.RemainingDays(last.CreatedAt); remaining > 0 {
			return nil, &CooldownError{RemainingDays: remaining}
		}
	}

	price := ""
	if strings.TrimSpace(in.Price) != "" {
		price = normalize.Price(in.Price)
	}

	job := in.Job
	if !strings.EqualFold(in.Category, "Jobs") {
		job = model.JobDetails{}
	}

	refCode, err := slug.ReferenceCode()
	if err != nil {
		return nil, fmt.Errorf("ListingService.Create: reference code: %w", err)
	}

	now := s.now().UTC()
	listing := &model.Listing{
		ID:            strconv.FormatInt(now.UnixNano(), 10),
		ReferenceCode: refCode,
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Category:      in.Category,
		City:          strings.TrimSpace(in.City),
		Locality:      strings.TrimSpace(in.Locality),
		Phone:         phone,
		WhatsApp:      whatsapp,
		ContactPref:   pref,
		Price:         price,
		Plan:          plan,
		Images:        []string{},
		ImageAlts:     []string{},
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		CreatedAt:     now,
		ExpiresAt:     now.Add(model.ListingTTL),
		JobDetails:    job,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("ListingService.Create: %w", err)
	}

	s.dispatch(func() {
		if err := s.stats.BumpPosts(context.Background(), listing.City); err != nil {
			log.Printf("[stats] bump posts for %s failed: %v", listing.City, err)
		}
		s.notifier.Notify(context.Background(), s.Permalink(listing), notify.URLUpdated)
	})

	return listing, nil
}

// Page is one slice of a cursor-paginated feed. A short page (fewer rows
// than requested) means there are no more pages.
type Page struct {
	Listings   []model.Listing
	NextCursor string
	HasMore    bool
}

// List serves the filtered feed. The cursor is the created_at of the last
// row of the previous page, so concurrent inserts never duplicate or skip
// rows across pages.
func (s *ListingService) List(ctx context.Context, f repository.ListingFilter) (*Page, error) {
	listings, err := s.listings.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("ListingService.List: %w", err)
	}

	page := &Page{Listings: listings}
	if len(listings) == f.PageSize() {
		page.HasMore = true
		page.NextCursor = listings[len(listings)-1].CreatedAt.Format(time.RFC3339Nano)
	}
	return page, nil
}

// View fetches a listing for display, bumps its view counter, and
// dispatches the city counter update. Expired rows surface as gone, not as
// a plain miss.
func (s *ListingService) View(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ListingService.View: %w", err)
	}
	if listing.Expired(s.now()) {
		return nil, ErrGone
	}

	if err := s.listings.IncrementViews(ctx, id); err != nil {
		log.Printf("[views] increment for %s failed: %v", id, err)
	} else {
		listing.Views++
	}

	s.dispatch(func() {
		if err := s.stats.BumpViews(context.Background(), listing.City); err != nil {
			log.Printf("[stats] bump views for %s failed: %v", listing.City, err)
		}
	})

	return listing, nil
}

// Resolve looks a listing up by its composite public slug. Only the id
// suffix is authoritative.
func (s *ListingService) Resolve(ctx context.Context, composite string) (*model.Listing, error) {
	id, ok := slug.ExtractID(composite)
	if !ok {
		return nil, ErrNotFound
	}
	return s.View(ctx, id)
}

// Delete removes a listing when the supplied phone matches the owning
// phone. Images and the indexer ping are best-effort follow-ups.
func (s *ListingService) Delete(ctx context.Context, id, rawPhone string) error {
	phone, ok := normalize.Phone(rawPhone)
	if !ok {
		return ErrNotFound
	}

	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ListingService.Delete: %w", err)
	}
	if listing.Phone != phone {
		return ErrNotFound
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("ListingService.Delete: %w", err)
	}

	s.cleanupAfterRemoval(listing)
	return nil
}

// CleanupExpired removes one bounded batch of expired listings and returns
// how many went. Idempotent: a rerun with nothing newly expired removes 0.
func (s *ListingService) CleanupExpired(ctx context.Context) (int, error) {
	removed, err := s.listings.DeleteExpiredBatch(ctx, s.cleanupBatch)
	if err != nil {
		return 0, fmt.Errorf("ListingService.CleanupExpired: %w", err)
	}
	for i := range removed {
		s.cleanupAfterRemoval(&removed[i])
	}
	return len(removed), nil
}

func (s *ListingService) cleanupAfterRemoval(listing *model.Listing) {
	fileIDs := append([]string(nil), listing.Images...)
	permalink := s.Permalink(listing)
	s.dispatch(func() {
		for _, fileID := range fileIDs {
			if err := s.images.Delete(fileID); err != nil {
				log.Printf("[images] delete %s failed: %v", fileID, err)
			}
		}
		s.notifier.Notify(context.Background(), permalink, notify.URLDeleted)
	})
}

// AttachImage stores one photo for a listing, up to the per-listing cap.
func (s *ListingService) AttachImage(ctx context.Context, id, filename, alt string, r io.Reader) (string, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ListingService.AttachImage: %w", err)
	}
	if len(listing.Images) >= model.MaxImages {
		return "", &ValidationError{Reason: fmt.Sprintf("a listing may have at most %d images", model.MaxImages)}
	}

	key := fmt.Sprintf("listing_%s_%d_%s", id, len(listing.Images)+1, filename)
	fileID, err := s.images.Put(key, r)
	if err != nil {
		return "", fmt.Errorf("ListingService.AttachImage: %w", err)
	}

	if err := s.listings.AttachImage(ctx, id, fileID, alt); err != nil {
		return "", fmt.Errorf("ListingService.AttachImage: %w", err)
	}
	return fileID, nil
}

// DownloadImage returns the n-th (zero-based) image of a listing.
func (s *ListingService) DownloadImage(ctx context.Context, id string, n int) ([]byte, string, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("ListingService.DownloadImage: %w", err)
	}
	if n < 0 || n >= len(listing.Images) {
		return nil, "", ErrNotFound
	}
	return s.images.Download(listing.Images[n])
}

// Trending returns the top cities ranked by posting and viewing activity.
func (s *ListingService) Trending(ctx context.Context) ([]model.CityStats, error) {
	stats, err := s.stats.Trending(ctx, TrendingLimit)
	if err != nil {
		return nil, fmt.Errorf("ListingService.Trending: %w", err)
	}
	return stats, nil
}

// Permalink builds the public URL the indexer is told about.
func (s *ListingService) Permalink(l *model.Listing) string {
	return s.baseURL + "/" + slug.Compose(l.Title, l.City, l.Category, l.ID)
}
