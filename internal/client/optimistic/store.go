package optimistic

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultPurgeDelay = 2 * time.Second

	// InterruptedError is set on posts restored in the uploading state.
	InterruptedError = "upload interrupted"

	tempIDPrefix   = "temp-"
	persistTimeout = 5 * time.Second
)

// Persister receives the storage-safe projection of the whole list.
type Persister interface {
	SaveAll(ctx context.Context, records []models.PostRecord) error
}

type Option func(*Store)

func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithPurgeDelay(d time.Duration) Option {
	return func(s *Store) { s.purgeDelay = d }
}

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

type Store struct {
	mu     sync.Mutex
	posts  atomic.Pointer[[]models.PendingPost]
	purges map[string]Timer
	closed bool

	clock      Clock
	purgeDelay time.Duration
	persister  Persister
	log        logging.Logger
}

func New(opts ...Option) *Store {
	s := &Store{
		purges:     make(map[string]Timer),
		clock:      realClock{},
		purgeDelay: DefaultPurgeDelay,
		log:        logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	empty := []models.PendingPost{}
	s.posts.Store(&empty)
	return s
}

// IsTempID reports whether id was generated by a Store.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// newTempID returns "temp-<unix millis>-<random>". The suffix is the random
// tail of a UUIDv7.
func newTempID(now time.Time) string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	hex := strings.ReplaceAll(u.String(), "-", "")
	return fmt.Sprintf("%s%d-%s", tempIDPrefix, now.UnixMilli(), hex[20:])
}

func (s *Store) load() []models.PendingPost {
	return *s.posts.Load()
}

func indexOf(posts []models.PendingPost, tempID string) int {
	return slices.IndexFunc(posts, func(p models.PendingPost) bool { return p.TempID == tempID })
}

// commit publishes next. Callers hold s.mu.
func (s *Store) commit(next []models.PendingPost, persist bool) {
	s.posts.Store(&next)
	if persist && s.persister != nil && !s.closed {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persister.SaveAll(ctx, models.ProjectAll(next)); err != nil {
			s.log.Warn(ctx, "failed to persist pending posts", "error", err)
		}
	}
}

// update applies fn to a copy of the post and publishes the result. fn
// returns false to abandon the change.
func (s *Store) update(tempID string, persist bool, fn func(p *models.PendingPost) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(tempID, persist, fn)
}

// updateLocked is update for callers that already hold s.mu.
func (s *Store) updateLocked(tempID string, persist bool, fn func(p *models.PendingPost) bool) bool {
	cur := s.load()
	i := indexOf(cur, tempID)
	if i < 0 {
		return false
	}

	p := cur[i].Clone()
	if !fn(&p) {
		return false
	}

	next := slices.Clone(cur)
	next[i] = p
	s.commit(next, persist)
	return true
}

func (s *Store) updateMedia(tempID string, index int, persist bool, fn func(p *models.PendingPost, m *models.MediaItem) bool) {
	s.update(tempID, persist, func(p *models.PendingPost) bool {
		if index < 0 || index >= len(p.Media) {
			return false
		}
		return fn(p, &p.Media[index])
	})
}

// AddPendingPost prepends a new uploading post and returns its temp id.
func (s *Store) AddPendingPost(title, content string, tags []string, author models.Author, media []models.MediaInput) string {
	now := s.clock.Now()
	p := models.PendingPost{
		TempID:    newTempID(now),
		Title:     title,
		Content:   content,
		Tags:      slices.Clone(tags),
		Author:    author,
		Media:     make([]models.MediaItem, len(media)),
		Status:    models.PostUploading,
		CreatedAt: now,
	}
	for i, in := range media {
		p.Media[i] = models.MediaItem{
			Key:        i,
			File:       in.File,
			PreviewRef: in.PreviewRef,
			Status:     models.UploadPending,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	next := make([]models.PendingPost, 0, len(cur)+1)
	next = append(next, p)
	next = append(next, cur...)
	s.commit(next, true)
	return p.TempID
}

// UpdateUploadProgress moves a media item forward. Terminal items and
// lower values are ignored.
func (s *Store) UpdateUploadProgress(tempID string, mediaIndex, progress int) {
	s.updateMedia(tempID, mediaIndex, false, func(_ *models.PendingPost, m *models.MediaItem) bool {
		if m.Status.Terminal() {
			return false
		}
		progress = min(max(progress, 0), 100)
		if progress < m.Progress || (progress == m.Progress && m.Status == models.UploadUploading) {
			return false
		}
		m.Progress = progress
		m.Status = models.UploadUploading
		return true
	})
}

// MarkUploadComplete does not change the post status; that depends on the
// sibling items.
func (s *Store) MarkUploadComplete(tempID string, mediaIndex int, mediaID, url string) {
	s.updateMedia(tempID, mediaIndex, true, func(_ *models.PendingPost, m *models.MediaItem) bool {
		m.Progress = 100
		m.Status = models.UploadCompleted
		m.Error = ""
		m.MediaID = mediaID
		m.URL = url
		return true
	})
}

// MarkUploadFailed fails the item and, with it, the whole post.
func (s *Store) MarkUploadFailed(tempID string, mediaIndex int, errMsg string) {
	s.updateMedia(tempID, mediaIndex, true, func(p *models.PendingPost, m *models.MediaItem) bool {
		m.Progress = 100
		m.Status = models.UploadFailed
		m.Error = errMsg
		p.Status = models.PostFailed
		if p.Error == "" {
			p.Error = errMsg
		}
		return true
	})
}

// MarkPostComplete completes the post and schedules its purge.
func (s *Store) MarkPostComplete(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := s.updateLocked(tempID, true, func(p *models.PendingPost) bool {
		p.Status = models.PostCompleted
		p.Error = ""
		return true
	})
	if !ok || s.closed {
		return
	}
	s.cancelPurgeLocked(tempID)
	s.purges[tempID] = s.clock.AfterFunc(s.purgeDelay, func() { s.purge(tempID) })
}

func (s *Store) MarkPostFailed(tempID, errMsg string) {
	s.update(tempID, true, func(p *models.PendingPost) bool {
		p.Status = models.PostFailed
		p.Error = errMsg
		return true
	})
}

// SetServerPostID records the id the backend gave the created post.
func (s *Store) SetServerPostID(tempID, id string) {
	s.update(tempID, true, func(p *models.PendingPost) bool {
		p.ServerPostID = id
		return true
	})
}

// ResetForRetry puts the failed items among indices back to pending and the
// post back to uploading. It reports whether anything was reset.
func (s *Store) ResetForRetry(tempID string, indices []int) bool {
	return s.update(tempID, true, func(p *models.PendingPost) bool {
		reset := false
		for _, i := range indices {
			if i < 0 || i >= len(p.Media) || p.Media[i].Status != models.UploadFailed {
				continue
			}
			m := &p.Media[i]
			m.Progress = 0
			m.Status = models.UploadPending
			m.Error = ""
			m.MediaID = ""
			m.URL = ""
			reset = true
		}
		if !reset && p.Status != models.PostFailed {
			return false
		}
		p.Status = models.PostUploading
		p.Error = ""
		return true
	})
}

func (s *Store) purge(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.purges, tempID)
	cur := s.load()
	i := indexOf(cur, tempID)
	if i < 0 || cur[i].Status != models.PostCompleted {
		return
	}
	s.commit(slices.Delete(slices.Clone(cur), i, i+1), true)
}

// cancelPurgeLocked stops a scheduled purge. Callers hold s.mu.
func (s *Store) cancelPurgeLocked(tempID string) {
	if t, ok := s.purges[tempID]; ok {
		t.Stop()
		delete(s.purges, tempID)
	}
}

// RemovePost drops the post unconditionally.
func (s *Store) RemovePost(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPurgeLocked(tempID)
	cur := s.load()
	i := indexOf(cur, tempID)
	if i < 0 {
		return
	}
	s.commit(slices.Delete(slices.Clone(cur), i, i+1), true)
}

// ClearCompletedPosts removes every completed post. Without any the list is
// left untouched.
func (s *Store) ClearCompletedPosts() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	next := make([]models.PendingPost, 0, len(cur))
	for _, p := range cur {
		if p.Status == models.PostCompleted {
			s.cancelPurgeLocked(p.TempID)
			continue
		}
		next = append(next, p)
	}
	if len(next) == len(cur) {
		return
	}
	s.commit(next, true)
}

// HasUploadingPosts reports whether any post is still uploading.
func (s *Store) HasUploadingPosts() bool {
	return slices.ContainsFunc(s.load(), func(p models.PendingPost) bool {
		return p.Status == models.PostUploading
	})
}

// Snapshot returns a deep copy of the list, newest first.
func (s *Store) Snapshot() []models.PendingPost {
	cur := s.load()
	out := make([]models.PendingPost, len(cur))
	for i, p := range cur {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) Get(tempID string) (models.PendingPost, bool) {
	cur := s.load()
	i := indexOf(cur, tempID)
	if i < 0 {
		return models.PendingPost{}, false
	}
	return cur[i].Clone(), true
}

// Hydrate merges persisted records into the store. Posts that were still
// uploading when they were saved can never finish, so they come back
// failed. Completed posts were due for purge and are dropped.
func (s *Store) Hydrate(records []models.PostRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.load()
	next := slices.Clone(cur)
	for _, r := range records {
		if r.Status == models.PostCompleted || indexOf(next, r.TempID) >= 0 {
			continue
		}
		p := models.Restore(r)
		if p.Status == models.PostUploading {
			p.Status = models.PostFailed
			p.Error = InterruptedError
			for i := range p.Media {
				if m := &p.Media[i]; !m.Status.Terminal() {
					m.Progress = 100
					m.Status = models.UploadFailed
					m.Error = InterruptedError
				}
			}
		}
		next = append(next, p)
	}

	slices.SortStableFunc(next, func(a, b models.PendingPost) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	s.commit(next, true)
}

// Close stops every pending purge and detaches the persister. Posts already
// completed stay in the list.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.purges {
		s.cancelPurgeLocked(id)
	}
	s.closed = true
}
