package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"classifieds-service/internal/model"
	"classifieds-service/internal/normalize"
	"classifieds-service/internal/repository"
	"classifieds-service/internal/service"
	"classifieds-service/internal/slug"
)

// ListingHandler wires the listing read/write paths onto the router.
type ListingHandler struct {
	Service *service.ListingService
	Search  *service.SearchService
}

// RegisterRoutes registers all listing routes.
func (h *ListingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/listings", h.List)
	rg.GET("/listings/:id", h.Get)
	rg.POST("/listings", h.Create)
	rg.DELETE("/listings/:id", h.Delete)

	rg.GET("/c/:city/:category", h.CategoryFeed)

	rg.GET("/locality", h.Locality)
	rg.GET("/l/:slug", h.Resolve)
	rg.GET("/cities/trending", h.Trending)

	rg.POST("/admin/cleanup", h.Cleanup)
}

// ListingResponse is the wire shape of a listing. Job fields only appear
// for the Jobs category, grouped under "job".
type ListingResponse struct {
	ID            string            `json:"id"`
	ReferenceCode string            `json:"reference_code"`
	Slug          string            `json:"slug"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Category      string            `json:"category"`
	City          string            `json:"city"`
	Locality      string            `json:"locality,omitempty"`
	Phone         string            `json:"phone"`
	WhatsApp      string            `json:"whatsapp,omitempty"`
	ContactPref   string            `json:"contact_pref"`
	Price         string            `json:"price,omitempty"`
	Plan          string            `json:"plan,omitempty"`
	Images        []string          `json:"images"`
	Latitude      float64           `json:"latitude,omitempty"`
	Longitude     float64           `json:"longitude,omitempty"`
	Views         int64             `json:"views"`
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Job           *model.JobDetails `json:"job,omitempty"`
}

func toResponse(l *model.Listing) ListingResponse {
	resp := ListingResponse{
		ID:            l.ID,
		ReferenceCode: l.ReferenceCode,
		Slug:          slug.Compose(l.Title, l.City, l.Category, l.ID),
		Title:         l.Title,
		Description:   l.Description,
		Category:      l.Category,
		City:          l.City,
		Locality:      l.Locality,
		Phone:         l.Phone,
		WhatsApp:      l.WhatsApp,
		ContactPref:   l.ContactPref,
		Price:         l.Price,
		Plan:          l.Plan,
		Images:        make([]string, 0, len(l.Images)),
		Latitude:      l.Latitude,
		Longitude:     l.Longitude,
		Views:         l.Views,
		CreatedAt:     l.CreatedAt,
		ExpiresAt:     l.ExpiresAt,
	}
	for i := range l.Images {
		resp.Images = append(resp.Images, fmt.Sprintf("/api/listings/%s/images/%d", l.ID, i))
	}
	if !l.JobDetails.Empty() {
		job := l.JobDetails
		resp.Job = &job
	}
	return resp
}

func toResponses(listings []model.Listing) []ListingResponse {
	out := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		out = append(out, toResponse(&listings[i]))
	}
	return out
}

// GET /api/listings?city=&category=&search=&phone=&cursor=&limit=
func (h *ListingHandler) List(c *gin.Context) {
	h.servePage(c, repository.ListingFilter{
		City:     c.Query("city"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Phone:    c.Query("phone"),
	})
}

// GET /api/c/:city/:category is the slugged SEO feed. The category slug
// must resolve against the fixed enumeration; an unknown slug is
// not-found, never an empty page.
func (h *ListingHandler) CategoryFeed(c *gin.Context) {
	category, ok := normalize.MatchCategory(c.Param("category"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown category"})
		return
	}
	h.servePage(c, repository.ListingFilter{
		City:     normalize.SlugToDisplay(c.Param("city")),
		Category: category,
	})
}

// servePage applies the shared cursor/limit query parameters and renders
// one feed page.
func (h *ListingHandler) servePage(c *gin.Context, filter repository.ListingFilter) {
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("cursor"); v != "" {
		cursor, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
			return
		}
		filter.Cursor = cursor
	}

	page, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listings":    toResponses(page.Listings),
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

// GET /api/listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.Service.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(listing))
}

// GET /api/l/:slug resolves a composite SEO slug; only the id suffix is
// authoritative.
func (h *ListingHandler) Resolve(c *gin.Context) {
	listing, err := h.Service.Resolve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(listing))
}

// CreateListingRequest is the listing-creation payload.
type CreateListingRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	City        string  `json:"city" binding:"required"`
	Locality    string  `json:"locality"`
	Phone       string  `json:"phone" binding:"required"`
	WhatsApp    string  `json:"whatsapp"`
	ContactPref string  `json:"contact_pref"`
	Price       string  `json:"price"`
	Plan        string  `json:"plan"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	JobType     string  `json:"job_type"`
	Experience  string  `json:"experience"`
	Education   string  `json:"education"`
	Company     string  `json:"company_name"`
}

// POST /api/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	listing, err := h.Service.Create(c.Request.Context(), c.ClientIP(), service.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		City:        req.City,
		Locality:    req.Locality,
		Phone:       req.Phone,
		WhatsApp:    req.WhatsApp,
		ContactPref: req.ContactPref,
		Price:       req.Price,
		Plan:        req.Plan,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Job: model.JobDetails{
			JobType:    req.JobType,
			Experience: req.Experience,
			Education:  req.Education,
			Company:    req.Company,
		},
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(listing))
}

// DELETE /api/listings/:id?phone=
func (h *ListingHandler) Delete(c *gin.Context) {
	err := h.Service.Delete(c.Request.Context(), c.Param("id"), c.Query("phone"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// GET /api/locality?city=&locality=&category=
func (h *ListingHandler) Locality(c *gin.Context) {
	city := c.Query("city")
	localitySlug := c.Query("locality")
	if city == "" || localitySlug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city and locality are required"})
		return
	}

	feed, err := h.Search.LocalityFeed(c.Request.Context(), city, localitySlug, c.Query("category"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"city":     feed.City,
		"locality": feed.Locality,
		"category": feed.Category,
		"exact":    toResponses(feed.Exact),
		"nearby":   toResponses(feed.Nearby),
		"widened":  feed.Widened,
	})
}

// GET /api/cities/trending
func (h *ListingHandler) Trending(c *gin.Context) {
	stats, err := h.Service.Trending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if stats == nil {
		stats = []model.CityStats{}
	}
	c.JSON(http.StatusOK, stats)
}

// POST /api/admin/cleanup
func (h *ListingHandler) Cleanup(c *gin.Context) {
	removed, err := h.Service.CleanupExpired(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *ListingHandler) renderError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	var cdErr *service.CooldownError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	case errors.Is(err, service.ErrRestrictedContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &cdErr):
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":          cdErr.Error(),
			"remaining_days": cdErr.RemainingDays,
		})
	case errors.Is(err, service.ErrTooManyRequests):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGone):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
