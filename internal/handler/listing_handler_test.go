package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classifieds-service/internal/model"
	"classifieds-service/internal/policy"
	"classifieds-service/internal/repository"
	"classifieds-service/internal/service"
)

// The handler tests run the real services over in-memory fakes; only the
// HTTP mapping is under test here.

type fakeListings struct {
	byID      map[string]*model.Listing
	latest    *model.Listing
	feed      []model.Listing
	gotFilter repository.ListingFilter
}

func (f *fakeListings) Create(ctx context.Context, l *model.Listing) error {
	if f.byID == nil {
		f.byID = map[string]*model.Listing{}
	}
	f.byID[l.ID] = l
	return nil
}

func (f *fakeListings) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if l, ok := f.byID[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeListings) Find(ctx context.Context, fl repository.ListingFilter) ([]model.Listing, error) {
	f.gotFilter = fl
	return f.feed, nil
}

func (f *fakeListings) LatestByPhone(ctx context.Context, phone string) (*model.Listing, error) {
	return f.latest, nil
}

func (f *fakeListings) IncrementViews(ctx context.Context, id string) error { return nil }

func (f *fakeListings) AttachImage(ctx context.Context, id, fileID, alt string) error { return nil }

func (f *fakeListings) Delete(ctx context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeListings) DeleteExpiredBatch(ctx context.Context, limit int) ([]model.Listing, error) {
	return nil, nil
}

func (f *fakeListings) FindByLocality(ctx context.Context, city, category, locality string, limit int) ([]model.Listing, error) {
	return f.feed, nil
}

func (f *fakeListings) FindNearLocality(ctx context.Context, city, category, locality string, limit int) ([]model.Listing, error) {
	return nil, nil
}

type fakeStats struct{}

func (fakeStats) BumpPosts(ctx context.Context, city string) error { return nil }
func (fakeStats) BumpViews(ctx context.Context, city string) error { return nil }
func (fakeStats) Trending(ctx context.Context, limit int) ([]model.CityStats, error) {
	return []model.CityStats{{City: "Mumbai", PostsCount: 10, ViewsCount: 4, Score: 12}}, nil
}

type fakeImages struct{}

func (fakeImages) Put(filename string, r io.Reader) (string, error) { return "f1", nil }
func (fakeImages) Download(id string) ([]byte, string, error)       { return []byte("x"), "a.jpg", nil }
func (fakeImages) Delete(id string) error                           { return nil }

type fakeNotifier struct{}

func (fakeNotifier) Notify(ctx context.Context, url, kind string) bool { return true }

func newTestRouter(listings *fakeListings) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := service.NewListingService(
		listings, fakeStats{}, fakeImages{}, fakeNotifier{},
		policy.NewWindowLimiter(100, time.Minute), policy.NewCooldown(30),
		"http://example.test", 50,
	)
	search := service.NewSearchService(listings, 10, 20)

	r := gin.New()
	api := r.Group("/api")
	(&ListingHandler{Service: svc, Search: search}).RegisterRoutes(api)
	(&ImageHandler{Service: svc}).RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListEmptyFeed(t *testing.T) {
	r := newTestRouter(&fakeListings{})

	w := doJSON(t, r, http.MethodGet, "/api/listings?city=mumbai", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Listings []json.RawMessage `json:"listings"`
		HasMore  bool              `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Listings)
	assert.False(t, resp.HasMore)
}

func TestListRejectsBadCursor(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodGet, "/api/listings?cursor=not-a-time", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryFeedResolvesSlugs(t *testing.T) {
	listings := &fakeListings{feed: []model.Listing{
		{ID: "1", City: "Navi Mumbai", Category: "Buy/Sell", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	r := newTestRouter(listings)

	w := doJSON(t, r, http.MethodGet, "/api/c/navi-mumbai/buy-sell", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Navi Mumbai", listings.gotFilter.City)
	assert.Equal(t, "Buy/Sell", listings.gotFilter.Category)
}

func TestCategoryFeedUnknownCategoryIsNotFound(t *testing.T) {
	listings := &fakeListings{feed: []model.Listing{{ID: "1"}}}
	r := newTestRouter(listings)

	w := doJSON(t, r, http.MethodGet, "/api/c/mumbai/freebies", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "an unmatched category slug must not render an empty page")
	assert.Empty(t, listings.gotFilter.City, "the feed query must not run")
}

func TestGetExpiredListingIsGone(t *testing.T) {
	listings := &fakeListings{byID: map[string]*model.Listing{
		"42": {ID: "42", ExpiresAt: time.Now().Add(-time.Hour)},
	}}
	r := newTestRouter(listings)

	w := doJSON(t, r, http.MethodGet, "/api/listings/42", nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestGetUnknownListingIsNotFound(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodGet, "/api/listings/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateListing(t *testing.T) {
	r := newTestRouter(&fakeListings{})

	w := doJSON(t, r, http.MethodPost, "/api/listings", gin.H{
		"title":       "Sofa set for sale",
		"description": "Three seater, lightly used",
		"category":    "Furniture",
		"city":        "Pune",
		"phone":       "98765 43210",
		"price":       "5k",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp ListingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "₹5,000", resp.Price)
	assert.Equal(t, "9876543210", resp.Phone)
	assert.NotEmpty(t, resp.ReferenceCode)
	assert.Contains(t, resp.Slug, "-iid-"+resp.ID)
	assert.Nil(t, resp.Job, "no job payload outside the Jobs category")
}

func TestCreateListingMissingFields(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodPost, "/api/listings", gin.H{"title": "no description"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateListingCooldown(t *testing.T) {
	listings := &fakeListings{
		latest: &model.Listing{Phone: "9876543210", CreatedAt: time.Now().Add(-10 * 24 * time.Hour)},
	}
	r := newTestRouter(listings)

	w := doJSON(t, r, http.MethodPost, "/api/listings", gin.H{
		"title":       "Another sofa",
		"description": "posting again too soon",
		"category":    "Furniture",
		"city":        "Pune",
		"phone":       "9876543210",
	})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp struct {
		RemainingDays int `json:"remaining_days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.RemainingDays)
}

func TestCreateListingRestrictedContent(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodPost, "/api/listings", gin.H{
		"title":       "Sofa set",
		"description": "whatsapp me on 98765 43210",
		"category":    "Furniture",
		"city":        "Pune",
		"phone":       "9876543210",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteListingOwnership(t *testing.T) {
	listings := &fakeListings{byID: map[string]*model.Listing{
		"42": {ID: "42", Phone: "9876543210", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	r := newTestRouter(listings)

	w := doJSON(t, r, http.MethodDelete, "/api/listings/42?phone=1111111111", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "wrong phone must look like not-found")

	w = doJSON(t, r, http.MethodDelete, "/api/listings/42?phone=9876543210", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLocalityRequiresParams(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodGet, "/api/locality?city=Mumbai", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocalityFeedShape(t *testing.T) {
	listings := &fakeListings{feed: []model.Listing{
		{ID: "1", Locality: "Andheri East", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	r := newTestRouter(listings)

	w := doJSON(t, r, http.MethodGet, "/api/locality?city=Mumbai&locality=andheri-east&category=jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Locality string            `json:"locality"`
		Exact    []json.RawMessage `json:"exact"`
		Nearby   []json.RawMessage `json:"nearby"`
		Widened  bool              `json:"widened"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Andheri East", resp.Locality)
	assert.Len(t, resp.Exact, 1)
	assert.True(t, resp.Widened, "one exact hit is below the sparseness threshold")
}

func TestResolveBadSlug(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodGet, "/api/l/just-a-slug", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTrendingCities(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodGet, "/api/cities/trending", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []model.CityStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Mumbai", resp[0].City)
}

func TestCleanupEndpoint(t *testing.T) {
	r := newTestRouter(&fakeListings{})
	w := doJSON(t, r, http.MethodPost, "/api/admin/cleanup", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Removed int `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Removed)
}
