package sam

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Default endpoint layout of the sam.gov API
const (
	DefaultBaseURL = "https://sam.gov"

	SearchPath      = "/api/prod/sgs/v1/search/"
	OpportunityPath = "/api/prod/opps/v2/opportunities/%s"
	ResourcesPath   = "/api/prod/opps/v3/opportunities/%s/resources"
	ExclusionPath   = "/api/prod/view-details/v2/api/exclusion"
	DownloadPath    = "/api/prod/opps/v3/opportunities/resources/files/%s/download?&token="
)

// DefaultHeaders returns the browser header set sent with every search and
// details request. sam.gov rejects requests that do not look like they come
// from its own web frontend. Each call returns a fresh copy.
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("Authority", "sam.gov")
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "es-ES,es;q=0.7")
	h.Set("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Brave";v="120"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	h.Set("Sec-Fetch-Dest", "empty")
	h.Set("Sec-Fetch-Mode", "cors")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Sec-Gpc", "1")
	h.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	return h
}

// Record is an opportunity, attachment or exclusion exactly as sam.gov
// returned it. No schema is imposed on it.
type Record map[string]any

// Lookup follows a dotted path through nested objects and arrays,
// e.g. "type.value" or "organizationHierarchy.0.name".
func (r Record) Lookup(path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case Record:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at path formatted as text, or "" when absent or null
func (r Record) String(path string) string {
	v, ok := r.Lookup(path)
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// DetailsRequest selects which lookups GetDetails performs. Every field is
// optional; the exclusion lookup needs both PirKey and PirValue.
type DetailsRequest struct {
	PirKey   string
	PirValue string
	ID       string
}

// ResourcesResult is the outcome of the attachment lookup made by GetDetails.
// A failed lookup is kept here instead of failing the whole call.
type ResourcesResult struct {
	Attachments []Record
	Err         error
}

// OK reports whether the attachments were retrieved
func (r *ResourcesResult) OK() bool {
	return r != nil && r.Err == nil
}

// MarshalJSON encodes a failed lookup as null
func (r *ResourcesResult) MarshalJSON() ([]byte, error) {
	if !r.OK() {
		return []byte("null"), nil
	}
	return json.Marshal(r.Attachments)
}

// Details combines the opportunity, its attachments and an exclusion record.
// Only the parts that were requested are populated.
type Details struct {
	Result    Record
	Resources *ResourcesResult
	Exclusion Record

	hasResult    bool
	hasExclusion bool
}

// HasResult reports whether the opportunity lookup was performed
func (d *Details) HasResult() bool {
	return d.hasResult
}

// HasExclusion reports whether the exclusion lookup was performed
func (d *Details) HasExclusion() bool {
	return d.hasExclusion
}

// IsEmpty reports whether no lookup was performed at all
func (d *Details) IsEmpty() bool {
	return !d.hasResult && d.Resources == nil && !d.hasExclusion
}

// MarshalJSON emits only the keys of the lookups that were performed
func (d *Details) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3)
	if d.hasResult {
		out["result"] = d.Result
	}
	if d.Resources != nil {
		out["resources"] = d.Resources
	}
	if d.hasExclusion {
		out["exclusion"] = d.Exclusion
	}
	return json.Marshal(out)
}

// embeddedEnvelope is the HAL-style wrapper sam.gov puts around collections
type embeddedEnvelope struct {
	Embedded map[string]json.RawMessage `json:"_embedded"`
}

// attachmentList is one entry of _embedded.opportunityAttachmentList
type attachmentList map[string]json.RawMessage
