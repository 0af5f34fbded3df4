package models

import "time"

// UploadProgress describes one file of an upload batch. FileIndex is the
// position of the file in the list passed to the engine.
type UploadProgress struct {
	FileIndex int
	FileName  string
	// Progress is this file's own progress, Overall the batch mean.
	Progress   int
	Overall    int
	Status     UploadStatus
	MediaID    string
	URL        string
	StorageKey string
	Thumbnail  string
	Error      string
}

// UploadResult is the outcome of one batch. Success is true iff at least
// one file made it through confirmation.
type UploadResult struct {
	Success      bool
	Results      []UploadProgress
	SuccessCount int
	FailedCount  int
}

// FileSpec is what the backend needs to hand out an upload target.
type FileSpec struct {
	Name        string `json:"file_name"`
	Size        int64  `json:"file_size"`
	ContentType string `json:"content_type"`
}

// UploadTarget is a negotiated destination for one file.
type UploadTarget struct {
	UploadURL  string `json:"upload_url"`
	MediaID    string `json:"media_id"`
	StorageKey string `json:"storage_key"`
	PublicURL  string `json:"public_url"`
}

// ConfirmItem finalizes one transferred file.
type ConfirmItem struct {
	MediaID     string `json:"media_id"`
	StorageKey  string `json:"storage_key"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
}

// CreatePostRequest creates the real post once its media is confirmed.
type CreatePostRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	MediaIDs []string `json:"media_ids"`
}

// CreatedPost is the backend's answer to CreatePostRequest.
type CreatedPost struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
