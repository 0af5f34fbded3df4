// Package models defines client-side data models used by postkeeper: the
// optimistic post and its media, upload progress records, the wire DTOs
// exchanged with the media API, and the storage-safe projection that is
// persisted locally.
package models

import "time"

// PostStatus is the overall state of an optimistic post.
type PostStatus string

const (
	PostUploading PostStatus = "uploading"
	PostCompleted PostStatus = "completed"
	PostFailed    PostStatus = "failed"
)

// UploadStatus is the state of one file transfer.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadFailed    UploadStatus = "failed"
)

// Terminal reports whether no further transition happens from s.
func (s UploadStatus) Terminal() bool {
	return s == UploadCompleted || s == UploadFailed
}

// Author is the snapshot of the submitting user taken at creation time.
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// MediaInput is one attachment handed to the store when a post is created.
type MediaInput struct {
	File       *LocalFile
	PreviewRef string
}

// MediaItem is an attachment of a pending post.
type MediaItem struct {
	// Key is the position of the file in the submitted list. It stays fixed
	// even if the media slice is later filtered for a retry.
	Key int

	// File and PreviewRef live in memory only.
	File       *LocalFile
	PreviewRef string

	Progress int
	Status   UploadStatus
	Error    string
	MediaID  string
	URL      string
}

// PendingPost is a post shown to the user before the backend confirmed it.
type PendingPost struct {
	TempID       string
	Title        string
	Content      string
	Tags         []string
	Author       Author
	Media        []MediaItem
	Status       PostStatus
	Error        string
	CreatedAt    time.Time
	ServerPostID string
}

// Clone returns a deep copy; the *LocalFile handles are shared because
// they are never mutated after creation.
func (p PendingPost) Clone() PendingPost {
	c := p
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.Media != nil {
		c.Media = append([]MediaItem(nil), p.Media...)
	}
	return c
}

// Progress is the arithmetic mean of the media progress values, or 100 for
// a post without media.
func (p PendingPost) Progress() int {
	if len(p.Media) == 0 {
		return 100
	}
	sum := 0
	for _, m := range p.Media {
		sum += m.Progress
	}
	return (sum + len(p.Media)/2) / len(p.Media)
}
