package client

import (
	"context"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
)

// MediaClient is the backend media API.
type MediaClient interface {
	// RequestBatchPresignedURLs negotiates one upload target per file in a
	// single round trip. The result is index-aligned with files.
	RequestBatchPresignedURLs(ctx context.Context, files []models.FileSpec) ([]models.UploadTarget, error)

	// ConfirmBatchUpload finalizes transferred files. It is all-or-nothing
	// for the items it receives.
	ConfirmBatchUpload(ctx context.Context, items []models.ConfirmItem) error

	CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.CreatedPost, error)
	Ping(ctx context.Context) error
}
