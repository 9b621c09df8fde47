package sam

import (
	"context"
)

// API defines the interface for sam.gov operations
type API interface {
	// Search runs a full-text opportunity search
	Search(ctx context.Context, params SearchParams) ([]Record, error)

	// GetDetails retrieves an opportunity, its attachments and/or an exclusion record
	GetDetails(ctx context.Context, req DetailsRequest) (*Details, error)

	// DownloadResource saves an attachment file and reports whether it was written
	DownloadResource(ctx context.Context, id, fileName string) (bool, error)
}

var _ API = (*Client)(nil)
