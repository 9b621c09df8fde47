package sam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPayload = `{
	"_embedded": {
		"results": [
			{
				"_id": "b1c2d3",
				"title": "Runway Reconstruction",
				"solicitationNumber": "W912-24-R-0001",
				"isActive": true,
				"type": {"code": "o", "value": "Solicitation"},
				"publishDate": "2024-01-15T10:00:00.000-0500"
			},
			{
				"_id": "e4f5a6",
				"title": "Bridge Repair",
				"isActive": true
			}
		]
	},
	"page": {"size": 2, "totalElements": 2, "totalPages": 1, "number": 0}
}`

const resourcesPayload = `{
	"_embedded": {
		"opportunityAttachmentList": [
			{
				"opportunityId": "b1c2d3",
				"attachments": [
					{"name": "SOW.pdf", "resourceId": "r-1"},
					{"name": "Drawings.zip", "resourceId": "r-2"}
				]
			}
		]
	}
}`

var fixedNow = time.UnixMilli(1700000000000)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(zerolog.Nop(),
		WithBaseURL(server.URL),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return client
}

// hangUp drops the connection without answering, simulating a network failure
func hangUp(t *testing.T, w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	require.True(t, ok)
	conn, _, err := hj.Hijack()
	require.NoError(t, err)
	conn.Close()
}

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("defaults", func(t *testing.T) {
		client, err := NewClient(logger)
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, client.BaseURL())
		assert.Equal(t, DefaultQuery, client.query)
		assert.Equal(t, 60*time.Second, client.httpClient.Timeout)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		client, err := NewClient(logger, WithBaseURL("http://localhost:8080/"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", client.BaseURL())
	})

	t.Run("relative base URL", func(t *testing.T) {
		_, err := NewClient(logger, WithBaseURL("sam.gov"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestClientOptions(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient(logger, WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("with custom http client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient(logger, WithHTTPClient(customClient))
		require.NoError(t, err)
		assert.Equal(t, customClient, client.httpClient)
	})

	t.Run("with query", func(t *testing.T) {
		client, err := NewClient(logger, WithQuery("roofing"))
		require.NoError(t, err)
		assert.Equal(t, "roofing", client.query)
	})
}

func TestSearch(t *testing.T) {
	t.Run("unwraps results", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, SearchPath, r.URL.Path)

			q := r.URL.Query()
			assert.Equal(t, "1700000000000", q.Get("random"))
			assert.Equal(t, "ei", q.Get("index"))
			assert.Equal(t, "0", q.Get("page"))
			assert.Equal(t, "title", q.Get("sort"))
			assert.Equal(t, "10", q.Get("size"))
			assert.Equal(t, "search", q.Get("mode"))
			assert.Equal(t, "json", q.Get("responseType"))
			assert.Equal(t, "construction", q.Get("q"))
			assert.Equal(t, "ALL", q.Get("qMode"))
			assert.Equal(t, "true", q.Get("is_active"))

			assert.Equal(t, DefaultHeaders().Get("User-Agent"), r.Header.Get("User-Agent"))
			assert.Equal(t, "sam.gov", r.Header.Get("Authority"))
			assert.Equal(t, "1", r.Header.Get("Sec-Gpc"))

			w.Write([]byte(searchPayload))
		}))

		results, err := client.Search(context.Background(), SearchParams{Sort: "AtoZ", Status: "active", Limit: 10})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Runway Reconstruction", results[0]["title"])
		assert.Equal(t, "Solicitation", results[0].String("type.value"))
		assert.Equal(t, "e4f5a6", results[1]["_id"])
	})

	t.Run("client query used when params leave it empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "paving", r.URL.Query().Get("q"))
			w.Write([]byte(`{"_embedded": {"results": []}}`))
		}))
		defer server.Close()

		client, err := NewClient(zerolog.Nop(), WithBaseURL(server.URL), WithQuery("paving"))
		require.NoError(t, err)

		results, err := client.Search(context.Background(), SearchParams{})
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("missing envelope", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"page": {"totalElements": 0}}`))
		}))

		_, err := client.Search(context.Background(), SearchParams{})
		require.Error(t, err)

		var lookupErr *LookupError
		require.True(t, errors.As(err, &lookupErr))
		assert.Equal(t, []string{"_embedded"}, lookupErr.Path)
		assert.True(t, IsLookupError(err))
	})

	t.Run("missing results key", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"_embedded": {}}`))
		}))

		_, err := client.Search(context.Background(), SearchParams{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingField)
		assert.Contains(t, err.Error(), "_embedded.results")
	})

	t.Run("api error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message": "blocked"}`))
		}))

		_, err := client.Search(context.Background(), SearchParams{})
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.True(t, apiErr.IsUnauthorized())
		assert.Contains(t, apiErr.Body, "blocked")
	})

	t.Run("malformed body", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}))

		_, err := client.Search(context.Background(), SearchParams{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse response envelope")
	})
}

func TestGetDetails(t *testing.T) {
	const resultPath = "/api/prod/opps/v2/opportunities/b1c2d3"
	const resourcesPath = "/api/prod/opps/v3/opportunities/b1c2d3/resources"

	t.Run("no inputs returns empty details", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))

		details, err := client.GetDetails(context.Background(), DetailsRequest{})
		require.NoError(t, err)
		assert.True(t, details.IsEmpty())
		assert.Equal(t, 0, calls)

		b, err := json.Marshal(details)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(b))
	})

	t.Run("id fetches result and resources", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, `"Windows"`, r.Header.Get("Sec-Ch-Ua-Platform"))
			switch r.URL.Path {
			case resultPath:
				w.Write([]byte(`{"id": "b1c2d3", "data": {"title": "Runway Reconstruction"}}`))
			case resourcesPath:
				w.Write([]byte(resourcesPayload))
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		}))

		details, err := client.GetDetails(context.Background(), DetailsRequest{ID: "b1c2d3"})
		require.NoError(t, err)
		assert.True(t, details.HasResult())
		assert.False(t, details.HasExclusion())
		assert.Equal(t, "Runway Reconstruction", details.Result.String("data.title"))
		require.True(t, details.Resources.OK())
		require.Len(t, details.Resources.Attachments, 2)
		assert.Equal(t, "SOW.pdf", details.Resources.Attachments[0]["name"])
	})

	t.Run("resources network failure degrades to null", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == resourcesPath {
				hangUp(t, w)
				return
			}
			w.Write([]byte(`{"id": "b1c2d3"}`))
		}))

		details, err := client.GetDetails(context.Background(), DetailsRequest{ID: "b1c2d3"})
		require.NoError(t, err)
		assert.Equal(t, "b1c2d3", details.Result["id"])
		require.NotNil(t, details.Resources)
		assert.False(t, details.Resources.OK())
		assert.Error(t, details.Resources.Err)
		assert.Nil(t, details.Resources.Attachments)

		b, err := json.Marshal(details)
		require.NoError(t, err)
		assert.JSONEq(t, `{"result": {"id": "b1c2d3"}, "resources": null}`, string(b))
	})

	t.Run("empty attachment list degrades to null", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == resourcesPath {
				w.Write([]byte(`{"_embedded": {"opportunityAttachmentList": []}}`))
				return
			}
			w.Write([]byte(`{"id": "b1c2d3"}`))
		}))

		details, err := client.GetDetails(context.Background(), DetailsRequest{ID: "b1c2d3"})
		require.NoError(t, err)
		require.NotNil(t, details.Resources)
		assert.ErrorIs(t, details.Resources.Err, ErrMissingField)
	})

	t.Run("result failure propagates", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))

		_, err := client.GetDetails(context.Background(), DetailsRequest{ID: "b1c2d3"})
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.IsNotFound())
	})

	t.Run("exclusion lookup", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, ExclusionPath, r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "1700000000000", q.Get("random"))
			assert.Equal(t, "ueiSAM", q.Get("pirKey"))
			assert.Equal(t, "ABC123", q.Get("pirValue"))
			w.Write([]byte(`{"exclusionDetails": {"classification": "Firm"}}`))
		}))

		details, err := client.GetDetails(context.Background(), DetailsRequest{PirKey: "ueiSAM", PirValue: "ABC123"})
		require.NoError(t, err)
		assert.False(t, details.HasResult())
		assert.Nil(t, details.Resources)
		assert.True(t, details.HasExclusion())
		assert.Equal(t, "Firm", details.Exclusion.String("exclusionDetails.classification"))
	})

	t.Run("exclusion needs both pir fields", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))

		details, err := client.GetDetails(context.Background(), DetailsRequest{PirKey: "ueiSAM"})
		require.NoError(t, err)
		assert.True(t, details.IsEmpty())
		assert.Equal(t, 0, calls)
	})

	t.Run("exclusion failure propagates", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hangUp(t, w)
		}))

		_, err := client.GetDetails(context.Background(), DetailsRequest{PirKey: "ueiSAM", PirValue: "ABC123"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get exclusion")
	})

	t.Run("all branches", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case resultPath:
				w.Write([]byte(`{"id": "b1c2d3"}`))
			case resourcesPath:
				w.Write([]byte(resourcesPayload))
			case ExclusionPath:
				w.Write([]byte(`{"excluded": false}`))
			}
		}))

		details, err := client.GetDetails(context.Background(), DetailsRequest{ID: "b1c2d3", PirKey: "ueiSAM", PirValue: "ABC123"})
		require.NoError(t, err)

		b, err := json.Marshal(details)
		require.NoError(t, err)

		var decoded map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(b, &decoded))
		assert.Len(t, decoded, 3)
		assert.Contains(t, decoded, "result")
		assert.Contains(t, decoded, "resources")
		assert.Contains(t, decoded, "exclusion")
	})

	t.Run("cancelled context is not swallowed", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == resourcesPath {
				cancel()
				<-r.Context().Done()
				return
			}
			w.Write([]byte(`{"id": "b1c2d3"}`))
		}))

		_, err := client.GetDetails(ctx, DetailsRequest{ID: "b1c2d3"})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDownloadResource(t *testing.T) {
	const downloadPath = "/api/prod/opps/v3/opportunities/resources/files/r-1/download"

	t.Run("writes file on 200", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, downloadPath, r.URL.Path)
			assert.Equal(t, "&token=", r.URL.RawQuery)
			assert.Empty(t, r.Header.Get("Sec-Gpc"))
			assert.Empty(t, r.Header.Get("Authority"))
			assert.NotEqual(t, DefaultHeaders().Get("User-Agent"), r.Header.Get("User-Agent"))
			w.Write([]byte("%PDF-1.7 content"))
		}))

		fileName := filepath.Join(t.TempDir(), "sow.pdf")
		written, err := client.DownloadResource(context.Background(), "r-1", fileName)
		require.NoError(t, err)
		assert.True(t, written)

		content, err := os.ReadFile(fileName)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 content", string(content))
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("new"))
		}))

		fileName := filepath.Join(t.TempDir(), "sow.pdf")
		require.NoError(t, os.WriteFile(fileName, []byte("old and longer"), 0o644))

		written, err := client.DownloadResource(context.Background(), "r-1", fileName)
		require.NoError(t, err)
		assert.True(t, written)

		content, err := os.ReadFile(fileName)
		require.NoError(t, err)
		assert.Equal(t, "new", string(content))
	})

	t.Run("404 writes nothing and returns no error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not found"))
		}))

		fileName := filepath.Join(t.TempDir(), "missing.pdf")
		written, err := client.DownloadResource(context.Background(), "r-1", fileName)
		require.NoError(t, err)
		assert.False(t, written)

		_, statErr := os.Stat(fileName)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("non-200 leaves existing file untouched", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		fileName := filepath.Join(t.TempDir(), "sow.pdf")
		require.NoError(t, os.WriteFile(fileName, []byte("keep"), 0o644))

		written, err := client.DownloadResource(context.Background(), "r-1", fileName)
		require.NoError(t, err)
		assert.False(t, written)

		content, err := os.ReadFile(fileName)
		require.NoError(t, err)
		assert.Equal(t, "keep", string(content))
	})

	t.Run("transport failure is returned", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hangUp(t, w)
		}))

		written, err := client.DownloadResource(context.Background(), "r-1", filepath.Join(t.TempDir(), "x"))
		require.Error(t, err)
		assert.False(t, written)
	})
}
