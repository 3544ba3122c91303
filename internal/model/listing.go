package model

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Categories is the fixed set a listing may belong to. City and locality are
// free text; category is not.
var Categories = []string{
	"Jobs",
	"Rentals",
	"Real Estate",
	"Vehicles",
	"Electronics",
	"Furniture",
	"Services",
	"Education",
	"Pets",
	"Events",
	"Buy/Sell",
	"Lost & Found",
}

// CategoryAll disables the category filter when passed to a query.
const CategoryAll = "All"

// Contact preference values.
const (
	ContactCall     = "call"
	ContactWhatsApp = "whatsapp"
	ContactBoth     = "both"
)

// Listing plan tags.
const (
	PlanFree     = "free"
	PlanVerified = "verified"
	PlanFeatured = "featured"
)

// ListingTTL is how long a listing stays live. expires_at is fixed at
// creation time and never moved.
const ListingTTL = 30 * 24 * time.Hour

// MaxImages is the per-listing image cap.
const MaxImages = 5

// JobDetails carries the fields that are only meaningful for the Jobs
// category. Columns stay flat on the listings row; the grouping exists so
// handlers can expose a job payload only when the category warrants it.
type JobDetails struct {
	JobType    string `db:"job_type" json:"job_type,omitempty"`
	Experience string `db:"experience" json:"experience,omitempty"`
	Education  string `db:"education" json:"education,omitempty"`
	Company    string `db:"company_name" json:"company_name,omitempty"`
}

// Empty reports whether no job field is set.
func (j JobDetails) Empty() bool {
	return j.JobType == "" && j.Experience == "" && j.Education == "" && j.Company == ""
}

// Listing is a single classified ad. Immutable after creation except for
// views increments and image attachments made during the posting flow.
type Listing struct {
	ID            string         `db:"id" json:"id"`
	ReferenceCode string         `db:"reference_code" json:"reference_code"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Category      string         `db:"category" json:"category"`
	City          string         `db:"city" json:"city"`
	Locality      string         `db:"locality" json:"locality,omitempty"`
	Phone         string         `db:"phone" json:"phone"`
	WhatsApp      string         `db:"whatsapp" json:"whatsapp,omitempty"`
	ContactPref   string         `db:"contact_pref" json:"contact_pref"`
	Price         string         `db:"price" json:"price,omitempty"`
	Plan          string         `db:"plan" json:"plan,omitempty"`
	Images        pq.StringArray `db:"images" json:"-"`
	ImageAlts     pq.StringArray `db:"image_alts" json:"image_alts,omitempty"`
	Latitude      float64        `db:"latitude" json:"latitude,omitempty"`
	Longitude     float64        `db:"longitude" json:"longitude,omitempty"`
	Views         int64          `db:"views" json:"views"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time      `db:"expires_at" json:"expires_at"`

	JobDetails
}

// Expired reports whether the listing is past its expiry at the given time.
func (l *Listing) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// ValidCategory reports whether c names one of the fixed categories,
// compared case-insensitively.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if strings.EqualFold(known, c) {
			return true
		}
	}
	return false
}

// CityStats is the denormalized per-city aggregate used for trending. It is
// rebuildable from listings and never authoritative.
type CityStats struct {
	City       string  `db:"city" json:"city"`
	PostsCount int64   `db:"posts_count" json:"posts_count"`
	ViewsCount int64   `db:"views_count" json:"views_count"`
	Score      float64 `db:"score" json:"score"`
}
