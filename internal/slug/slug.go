// Package slug builds the decorative SEO slugs used in public listing URLs
// and the short reference codes shown on posting confirmations.
package slug

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

// IDSeparator splits the cosmetic slug from the authoritative listing id in
// a public URL: <slug>-iid-<id>. The slug part carries no uniqueness
// guarantee; only the suffix is looked up.
const IDSeparator = "-iid-"

const maxSlugLen = 80

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate flattens (title, city, category) into a lossy lowercase slug.
// Collisions are expected and fine.
func Generate(title, city, category string) string {
	s := strings.ToLower(title + " " + category + " " + city)
	s = nonAlnum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}

// Compose appends the authoritative id to a generated slug.
func Compose(title, city, category, id string) string {
	return Generate(title, city, category) + IDSeparator + id
}

// ExtractID pulls the listing id back out of a composite slug. The final
// segment after the separator is authoritative; a missing separator means
// not-found.
func ExtractID(composite string) (string, bool) {
	parts := strings.Split(composite, IDSeparator)
	if len(parts) < 2 {
		return "", false
	}
	id := parts[len(parts)-1]
	if id == "" {
		return "", false
	}
	return id, true
}

const (
	refDigits  = "0123456789"
	refLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// ReferenceCode returns a display-only confirmation code of 3 random digits
// followed by 3 random uppercase letters, e.g. "482QJZ".
func ReferenceCode() (string, error) {
	digits, err := randomFrom(refDigits, 3)
	if err != nil {
		return "", err
	}
	letters, err := randomFrom(refLetters, 3)
	if err != nil {
		return "", err
	}
	return digits + letters, nil
}

func randomFrom(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[num.Int64()]
	}
	return string(out), nil
}
