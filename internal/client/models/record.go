package models

import "time"

// PostRecord is the storage-safe projection of a PendingPost. File handles
// and preview references are deliberately absent.
type PostRecord struct {
	TempID       string        `json:"temp_id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Tags         []string      `json:"tags"`
	Author       Author        `json:"author"`
	Media        []MediaRecord `json:"media"`
	Status       PostStatus    `json:"status"`
	Error        string        `json:"error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	ServerPostID string        `json:"server_post_id,omitempty"`
}

type MediaRecord struct {
	Key      int          `json:"key"`
	Progress int          `json:"progress"`
	Status   UploadStatus `json:"status"`
	Error    string       `json:"error,omitempty"`
	MediaID  string       `json:"media_id,omitempty"`
	URL      string       `json:"url,omitempty"`
}

// Project maps a post to what may be written to durable storage.
func Project(p PendingPost) PostRecord {
	r := PostRecord{
		TempID:       p.TempID,
		Title:        p.Title,
		Content:      p.Content,
		Tags:         append([]string(nil), p.Tags...),
		Author:       p.Author,
		Media:        make([]MediaRecord, len(p.Media)),
		Status:       p.Status,
		Error:        p.Error,
		CreatedAt:    p.CreatedAt,
		ServerPostID: p.ServerPostID,
	}
	for i, m := range p.Media {
		r.Media[i] = MediaRecord{
			Key:      m.Key,
			Progress: m.Progress,
			Status:   m.Status,
			Error:    m.Error,
			MediaID:  m.MediaID,
			URL:      m.URL,
		}
	}
	return r
}

// ProjectAll projects every post, keeping order.
func ProjectAll(posts []PendingPost) []PostRecord {
	out := make([]PostRecord, len(posts))
	for i, p := range posts {
		out[i] = Project(p)
	}
	return out
}

// Restore is the inverse of Project. Restored media have no file handle.
func Restore(r PostRecord) PendingPost {
	p := PendingPost{
		TempID:       r.TempID,
		Title:        r.Title,
		Content:      r.Content,
		Tags:         append([]string(nil), r.Tags...),
		Author:       r.Author,
		Media:        make([]MediaItem, len(r.Media)),
		Status:       r.Status,
		Error:        r.Error,
		CreatedAt:    r.CreatedAt,
		ServerPostID: r.ServerPostID,
	}
	for i, m := range r.Media {
		p.Media[i] = MediaItem{
			Key:      m.Key,
			Progress: m.Progress,
			Status:   m.Status,
			Error:    m.Error,
			MediaID:  m.MediaID,
			URL:      m.URL,
		}
	}
	return p
}
