// Package sam provides a client for the public sam.gov procurement API.
//
// The client talks to the same JSON endpoints the sam.gov web frontend uses.
// It maps simple keywords (sort order, status, page size) onto the literal
// query values those endpoints expect and unwraps the "_embedded" envelopes
// around their collections. Records are returned as opaque maps.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := sam.NewClient(logger, sam.WithTimeout(30*time.Second))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	results, err := client.Search(ctx, sam.SearchParams{
//		Sort:   "AtoZ",
//		Status: "active",
//		Limit:  25,
//	})
//
//	details, err := client.GetDetails(ctx, sam.DetailsRequest{ID: "abc123"})
//	if details.Resources != nil && !details.Resources.OK() {
//		// attachments could not be fetched, the opportunity itself was
//	}
//
//	written, err := client.DownloadResource(ctx, "file-id", "notice.pdf")
//
// # Parameter normalization
//
// NormalizeSort, NormalizeStatus and NormalizeLimit never fail. Unknown
// inputs degrade to "relevance", "null" and UnlimitedSize respectively.
//
// # Error Handling
//
//   - APIError: non-2xx answers from the JSON endpoints, with status helpers
//   - LookupError: an expected "_embedded" path was missing from a body;
//     matches ErrMissingField with errors.Is
//   - ErrInvalidConfig: bad client options
//
// DownloadResource treats a non-200 answer as "nothing to save": it returns
// false and a nil error.
package sam
