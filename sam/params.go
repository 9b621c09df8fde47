package sam

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UnlimitedSize is sent as the page size when no usable limit was given.
// sam.gov then returns every match in a single page.
const UnlimitedSize int64 = 9999999999

// DefaultQuery is the full-text query sent with every search
const DefaultQuery = "construction"

// NormalizeSort maps a sort keyword to the value of the "sort" parameter.
// Unknown keywords fall back to "relevance".
func NormalizeSort(key string) string {
	switch strings.ToLower(key) {
	case "relevance":
		return "-relevance"
	case "atoz", "1":
		return "title"
	case "ztoa", "-1":
		return "-title"
	default:
		return "relevance"
	}
}

// NormalizeStatus maps a status keyword to the value of the "is_active"
// parameter. Anything other than active/inactive yields the literal "null".
func NormalizeStatus(key string) string {
	switch strings.ToLower(key) {
	case "active":
		return "true"
	case "inactive":
		return "false"
	default:
		return "null"
	}
}

// NormalizeLimit turns an integer or a string of digits into a page size.
// Negative numbers, non-numeric strings and any other type yield UnlimitedSize.
func NormalizeLimit(v any) int64 {
	switch n := v.(type) {
	case int:
		return signedLimit(int64(n))
	case int8:
		return signedLimit(int64(n))
	case int16:
		return signedLimit(int64(n))
	case int32:
		return signedLimit(int64(n))
	case int64:
		return signedLimit(n)
	case uint:
		return unsignedLimit(uint64(n))
	case uint8:
		return unsignedLimit(uint64(n))
	case uint16:
		return unsignedLimit(uint64(n))
	case uint32:
		return unsignedLimit(uint64(n))
	case uint64:
		return unsignedLimit(n)
	case string:
		if !isDigits(n) {
			return UnlimitedSize
		}
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return UnlimitedSize
		}
		return parsed
	default:
		return UnlimitedSize
	}
}

func signedLimit(n int64) int64 {
	if n < 0 {
		return UnlimitedSize
	}
	return n
}

func unsignedLimit(n uint64) int64 {
	if n > math.MaxInt64 {
		return UnlimitedSize
	}
	return int64(n)
}

// isDigits reports whether s is non-empty and made only of ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CurrentTimestampMillis formats now as Unix milliseconds. sam.gov's frontend
// sends it as the "random" parameter to defeat intermediate caches.
func CurrentTimestampMillis(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// SearchParams holds the caller-facing search inputs before normalization
type SearchParams struct {
	Sort   string
	Status string
	// Limit accepts an integer or a string of digits
	Limit any
	// Query overrides the client's full-text query when non-empty
	Query string
}

// Values builds the query string for the search endpoint
func (p SearchParams) Values(now time.Time) url.Values {
	query := p.Query
	if query == "" {
		query = DefaultQuery
	}

	params := url.Values{}
	params.Set("random", CurrentTimestampMillis(now))
	params.Set("index", "ei")
	params.Set("page", "0")
	params.Set("sort", NormalizeSort(p.Sort))
	params.Set("size", strconv.FormatInt(NormalizeLimit(p.Limit), 10))
	params.Set("mode", "search")
	params.Set("responseType", "json")
	params.Set("q", query)
	params.Set("qMode", "ALL")
	params.Set("is_active", NormalizeStatus(p.Status))
	return params
}

func exclusionValues(pirKey, pirValue string, now time.Time) url.Values {
	params := url.Values{}
	params.Set("random", CurrentTimestampMillis(now))
	params.Set("pirKey", pirKey)
	params.Set("pirValue", pirValue)
	return params
}
