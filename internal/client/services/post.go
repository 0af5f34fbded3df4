// Package services contains application services for the postkeeper client.
// This file defines the post service: it turns a draft into an optimistic
// post, drives the upload engine in the background and routes the engine's
// callbacks into the optimistic store.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/postkeeper/internal/client/client"
	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/client/optimistic"
	"github.com/dmitrijs2005/postkeeper/internal/client/upload"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound         = errors.New("pending post not found")
	ErrNothingToRetry   = errors.New("nothing to retry")
	ErrFilesUnavailable = errors.New("local files are no longer available")
)

// PostService defines the post operations used by the CLI and the status API.
//
// Contract:
//   - Submit: validate a draft, show it as pending and upload in the background.
//   - Retry: re-upload only the failed files of a failed post.
//   - Dismiss, ClearCompleted: drop pending posts from the list.
//   - List, Busy: read model.
//   - Wait: block until every background upload has settled.
type PostService interface {
	Submit(ctx context.Context, d Draft) (string, error)
	Retry(ctx context.Context, tempID string) error
	Dismiss(tempID string) error
	ClearCompleted()
	List() []models.PendingPost
	Busy() bool
	Wait()
	Ping(ctx context.Context) error
}

type postService struct {
	store       *optimistic.Store
	engine      *upload.Engine
	api         client.MediaClient
	author      models.Author
	concurrency int
	limits      common.Limits
	validate    *validator.Validate
	log         logging.Logger
	wg          sync.WaitGroup
}

type PostOption func(*postService)

func WithConcurrency(n int) PostOption {
	return func(s *postService) { s.concurrency = n }
}

func WithLimits(l common.Limits) PostOption {
	return func(s *postService) { s.limits = l }
}

func WithServiceLogger(l logging.Logger) PostOption {
	return func(s *postService) { s.log = l }
}

// NewPostService constructs a PostService. author is the snapshot stored on
// every post this service creates.
func NewPostService(store *optimistic.Store, engine *upload.Engine, api client.MediaClient, author models.Author, opts ...PostOption) PostService {
	s := &postService{
		store:    store,
		engine:   engine,
		api:      api,
		author:   author,
		limits:   common.FormLimits,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *postService) Submit(ctx context.Context, d Draft) (string, error) {
	if err := validateDraft(s.validate, d, s.limits); err != nil {
		return "", err
	}

	media := make([]models.MediaInput, len(d.Files))
	keys := make([]int, len(d.Files))
	for i, f := range d.Files {
		media[i] = models.MediaInput{File: f, PreviewRef: f.Path}
		keys[i] = i
	}

	tempID := s.store.AddPendingPost(d.Title, d.Content, d.Tags, s.author, media)
	s.log.Info(ctx, "post submitted", "temp_id", tempID, "files", len(d.Files))

	s.start(ctx, tempID, keys, d.Files)
	return tempID, nil
}

// start uploads files in the background. keys[i] is the media key of
// files[i] in the pending post; the engine only knows positions in files.
func (s *postService) start(ctx context.Context, tempID string, keys []int, files []*models.LocalFile) {
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, tempID, keys, files)
	}()
}

func (s *postService) run(ctx context.Context, tempID string, keys []int, files []*models.LocalFile) {
	if len(files) > 0 {
		res := s.engine.UploadMultipleFiles(ctx, files, upload.Options{
			Concurrency: s.concurrency,
			OnProgress: func(p models.UploadProgress) {
				s.store.UpdateUploadProgress(tempID, keys[p.FileIndex], p.Progress)
			},
			OnError: func(err error, i int) {
				s.store.MarkUploadFailed(tempID, keys[i], err.Error())
			},
		})

		for _, r := range res.Results {
			key := keys[r.FileIndex]
			if r.Status == models.UploadCompleted {
				s.store.MarkUploadComplete(tempID, key, r.MediaID, r.URL)
			} else {
				s.store.MarkUploadFailed(tempID, key, r.Error)
			}
		}
	}

	s.finish(ctx, tempID)
}

// finish creates the real post once every file is confirmed.
func (s *postService) finish(ctx context.Context, tempID string) {
	p, ok := s.store.Get(tempID)
	if !ok {
		s.log.Debug(ctx, "post dismissed during upload", "temp_id", tempID)
		return
	}
	if p.Status == models.PostFailed {
		s.log.Warn(ctx, "post upload failed", "temp_id", tempID, "error", p.Error)
		return
	}

	mediaIDs := make([]string, 0, len(p.Media))
	for _, m := range p.Media {
		if m.Status != models.UploadCompleted {
			s.store.MarkPostFailed(tempID, fmt.Sprintf("media %d did not complete", m.Key))
			return
		}
		mediaIDs = append(mediaIDs, m.MediaID)
	}

	created, err := s.api.CreatePost(ctx, models.CreatePostRequest{
		Title:    p.Title,
		Content:  p.Content,
		Tags:     p.Tags,
		MediaIDs: mediaIDs,
	})
	switch {
	case errors.Is(err, client.ErrUnsupported):
		s.log.Info(ctx, "media uploaded without post creation", "temp_id", tempID)
	case err != nil:
		s.log.Error(ctx, "create post failed", "temp_id", tempID, "error", err)
		s.store.MarkPostFailed(tempID, fmt.Sprintf("failed to create post: %v", err))
		return
	default:
		s.store.SetServerPostID(tempID, created.ID)
	}

	s.store.MarkPostComplete(tempID)
	s.log.Info(ctx, "post published", "temp_id", tempID)
}

// Retry re-uploads the failed files of a failed post. A post whose media all
// made it but whose creation failed only repeats the creation.
func (s *postService) Retry(ctx context.Context, tempID string) error {
	p, ok := s.store.Get(tempID)
	if !ok {
		return ErrNotFound
	}
	if p.Status != models.PostFailed {
		return ErrNothingToRetry
	}

	var keys []int
	var files []*models.LocalFile
	for _, m := range p.Media {
		if m.Status == models.UploadCompleted {
			continue
		}
		if m.File == nil {
			return ErrFilesUnavailable
		}
		keys = append(keys, m.Key)
		files = append(files, m.File)
	}

	if !s.store.ResetForRetry(tempID, keys) {
		return ErrNothingToRetry
	}
	s.log.Info(ctx, "retrying post", "temp_id", tempID, "files", len(files))

	s.start(ctx, tempID, keys, files)
	return nil
}

func (s *postService) Dismiss(tempID string) error {
	if _, ok := s.store.Get(tempID); !ok {
		return ErrNotFound
	}
	s.store.RemovePost(tempID)
	return nil
}

func (s *postService) ClearCompleted() {
	s.store.ClearCompletedPosts()
}

func (s *postService) List() []models.PendingPost {
	return s.store.Snapshot()
}

func (s *postService) Busy() bool {
	return s.store.HasUploadingPosts()
}

func (s *postService) Wait() {
	s.wg.Wait()
}

func (s *postService) Ping(ctx context.Context) error {
	return s.api.Ping(ctx)
}
