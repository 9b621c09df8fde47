package sam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client represents a sam.gov API client
type Client struct {
	baseURL    string
	headers    http.Header
	query      string
	httpClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// NewClient creates a new sam.gov client
func NewClient(logger zerolog.Logger, opts ...Option) (*Client, error) {
	client := &Client{
		baseURL: DefaultBaseURL,
		headers: DefaultHeaders(),
		query:   DefaultQuery,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.baseURL = strings.TrimRight(client.baseURL, "/")
	u, err := url.Parse(client.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q must be an absolute URL", ErrInvalidConfig, client.baseURL)
	}

	return client, nil
}

// BaseURL returns the host the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Search runs a full-text search and returns the matching opportunities
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Record, error) {
	if params.Query == "" {
		params.Query = c.query
	}

	body, err := c.getJSON(ctx, SearchPath, params.Values(c.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to search opportunities: %w", err)
	}

	raw, err := embedded(body, "results")
	if err != nil {
		return nil, err
	}

	var results []Record
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	c.logger.Debug().
		Int("count", len(results)).
		Str("sort", NormalizeSort(params.Sort)).
		Str("size", formatSize(params.Limit)).
		Msg("Retrieved search results from sam.gov")

	return results, nil
}

// GetDetails looks up an opportunity with its attachments when req.ID is set,
// and an exclusion record when both PIR fields are set. A failed attachment
// lookup does not fail the call; it is reported through Details.Resources.
func (c *Client) GetDetails(ctx context.Context, req DetailsRequest) (*Details, error) {
	details := &Details{}

	if req.ID != "" {
		result, err := c.getResult(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		details.Result = result
		details.hasResult = true

		attachments, err := c.getResources(ctx, req.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn().Err(err).Str("id", req.ID).Msg("Attachments unavailable, continuing without them")
		}
		details.Resources = &ResourcesResult{Attachments: attachments, Err: err}
	}

	if req.PirKey != "" && req.PirValue != "" {
		exclusion, err := c.getExclusion(ctx, req.PirKey, req.PirValue)
		if err != nil {
			return nil, err
		}
		details.Exclusion = exclusion
		details.hasExclusion = true
	}

	return details, nil
}

// getResult fetches the opportunity record itself
func (c *Client) getResult(ctx context.Context, id string) (Record, error) {
	body, err := c.getJSON(ctx, fmt.Sprintf(OpportunityPath, url.PathEscape(id)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity %s: %w", id, err)
	}

	var result Record
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse opportunity %s: %w", id, err)
	}
	return result, nil
}

// getResources fetches the attachments of the first attachment list
func (c *Client) getResources(ctx context.Context, id string) ([]Record, error) {
	body, err := c.getJSON(ctx, fmt.Sprintf(ResourcesPath, url.PathEscape(id)), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources for %s: %w", id, err)
	}

	raw, err := embedded(body, "opportunityAttachmentList")
	if err != nil {
		return nil, err
	}

	var lists []attachmentList
	if err := json.Unmarshal(raw, &lists); err != nil {
		return nil, fmt.Errorf("failed to parse attachment lists for %s: %w", id, err)
	}
	if len(lists) == 0 {
		return nil, lookupError("_embedded", "opportunityAttachmentList", "0")
	}

	rawAttachments, ok := lists[0]["attachments"]
	if !ok {
		return nil, lookupError("_embedded", "opportunityAttachmentList", "0", "attachments")
	}

	var attachments []Record
	if err := json.Unmarshal(rawAttachments, &attachments); err != nil {
		return nil, fmt.Errorf("failed to parse attachments for %s: %w", id, err)
	}
	return attachments, nil
}

// getExclusion fetches the exclusion record identified by a PIR key/value pair
func (c *Client) getExclusion(ctx context.Context, pirKey, pirValue string) (Record, error) {
	body, err := c.getJSON(ctx, ExclusionPath, exclusionValues(pirKey, pirValue, c.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to get exclusion %s=%s: %w", pirKey, pirValue, err)
	}

	var exclusion Record
	if err := json.Unmarshal(body, &exclusion); err != nil {
		return nil, fmt.Errorf("failed to parse exclusion: %w", err)
	}
	return exclusion, nil
}

// DownloadResource saves the attachment file id to fileName, replacing any
// existing file. It reports whether a file was written: any status other
// than 200 leaves the filesystem untouched and is not treated as an error.
func (c *Client) DownloadResource(ctx context.Context, id, fileName string) (bool, error) {
	requestURL := c.baseURL + fmt.Sprintf(DownloadPath, url.PathEscape(id))

	// The download endpoint is called without the browser headers.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return false, fmt.Errorf("failed to download resource %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Str("id", id).
			Int("status", resp.StatusCode).
			Msg("Resource download returned non-200 status, nothing written")
		return false, nil
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read resource %s: %w", id, err)
	}

	if err := os.WriteFile(fileName, content, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", fileName, err)
	}

	c.logger.Debug().
		Str("id", id).
		Str("file", fileName).
		Int("bytes", len(content)).
		Msg("Downloaded resource")

	return true, nil
}

// getJSON performs a GET with the browser headers and returns the body of a
// 2xx response
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	requestURL := c.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = c.headers.Clone()

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}

	return body, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Msg("sam.gov request failed")
		return nil, err
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("sam.gov request")

	return resp, nil
}

// embedded extracts _embedded.<key> from a response body
func embedded(body []byte, key string) (json.RawMessage, error) {
	var envelope embeddedEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}
	if envelope.Embedded == nil {
		return nil, lookupError("_embedded")
	}

	raw, ok := envelope.Embedded[key]
	if !ok {
		return nil, lookupError("_embedded", key)
	}
	return raw, nil
}

// IsLookupError reports whether err came from a missing envelope path
func IsLookupError(err error) bool {
	return errors.Is(err, ErrMissingField)
}

// formatSize renders a normalized limit the way it is sent on the wire
func formatSize(limit any) string {
	return strconv.FormatInt(NormalizeLimit(limit), 10)
}
