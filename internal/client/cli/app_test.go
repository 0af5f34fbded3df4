package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/config"
	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/client/services"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	mu        sync.Mutex
	posts     []models.PendingPost
	busy      bool
	pingErr   error
	submitErr error
	retryErr  error
	drafts    []services.Draft
	retried   []string
	dismissed []string
	cleared   int
	pings     atomic.Int32
}

func (f *fakePosts) Submit(_ context.Context, d services.Draft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.drafts = append(f.drafts, d)
	return "temp-1-new", nil
}

func (f *fakePosts) Retry(_ context.Context, id string) error {
	f.retried = append(f.retried, id)
	return f.retryErr
}

func (f *fakePosts) Dismiss(id string) error {
	if id == "missing" {
		return services.ErrNotFound
	}
	f.dismissed = append(f.dismissed, id)
	return nil
}

func (f *fakePosts) ClearCompleted() { f.cleared++ }

func (f *fakePosts) List() []models.PendingPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PendingPost(nil), f.posts...)
}

func (f *fakePosts) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *fakePosts) Wait() {}

func (f *fakePosts) Ping(context.Context) error {
	f.pings.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakePosts) set(fn func(f *fakePosts)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func testApp(posts *fakePosts, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	a := newApp(&config.Config{}, posts, logging.Nop())
	a.reader = rdr(input)
	a.out = &out
	return a, &out
}

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	a := newApp(&config.Config{}, &fakePosts{}, logging.NewTextLogger(&buf, 0))

	a.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, a.Mode())
	assert.Contains(t, buf.String(), "mode=online")

	buf.Reset()
	a.setMode(ModeOnline)
	assert.Empty(t, buf.String())

	a.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, a.Mode())
	assert.Contains(t, buf.String(), "mode=offline")
}

func TestStartOnlineStatusWatcher_FlipsMode(t *testing.T) {
	posts := &fakePosts{}
	a, _ := testApp(posts, "")
	a.setMode(ModeOffline)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return a.Mode() == ModeOnline }, time.Second, 5*time.Millisecond)

	posts.set(func(f *fakePosts) { f.pingErr = errors.New("down") })
	require.Eventually(t, func() bool { return a.Mode() == ModeOffline }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestStartOnlineStatusWatcher_DisabledStaysDisabledWhileUnreachable(t *testing.T) {
	posts := &fakePosts{pingErr: errors.New("down")}
	a, _ := testApp(posts, "")
	a.setMode(ModeDisabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool { return posts.pings.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, ModeDisabled, a.Mode())
}

func TestGetStatus(t *testing.T) {
	a, _ := testApp(&fakePosts{}, "")
	assert.Equal(t, "", a.getStatus())

	a.setMode(ModeOnline)
	assert.Equal(t, "(online)", a.getStatus())

	a.config.Author.Username = "somchai"
	assert.Equal(t, "(somchai online)", a.getStatus())
}

func TestPost_SubmitsDraft(t *testing.T) {
	silence(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	posts := &fakePosts{}
	a, out := testApp(posts, strings.Join([]string{
		"ตลาดน้ำ",
		"line one",
		"line two",
		"",
		"#travel, food",
		path,
		"",
	}, "\n")+"\n")

	require.NoError(t, a.Post(context.Background()))
	require.Len(t, posts.drafts, 1)

	d := posts.drafts[0]
	assert.Equal(t, "ตลาดน้ำ", d.Title)
	assert.Equal(t, "line one\nline two", d.Content)
	assert.Equal(t, []string{"travel", "food"}, d.Tags)
	require.Len(t, d.Files, 1)
	assert.Equal(t, "note.txt", d.Files[0].Name)
	assert.Equal(t, int64(5), d.Files[0].Size)
	assert.Contains(t, out.String(), "Attach files by path")
}

func TestPost_MissingFileAborts(t *testing.T) {
	lines := silence(t)
	posts := &fakePosts{}
	a, _ := testApp(posts, "t\n\n\n/does/not/exist.jpg\n\n")

	require.Error(t, a.Post(context.Background()))
	assert.Empty(t, posts.drafts)
	assert.Contains(t, strings.Join(*lines, "\n"), "Error:")
}

func TestPost_ValidationErrorIsReported(t *testing.T) {
	lines := silence(t)
	posts := &fakePosts{submitErr: errors.Join(common.ErrValidation, errors.New("title is required"))}
	a, _ := testApp(posts, "\n\n\n\n")

	err := a.Post(context.Background())
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Contains(t, strings.Join(*lines, "\n"), "Invalid post:")
}

func TestList(t *testing.T) {
	lines := silence(t)
	posts := &fakePosts{}
	a, _ := testApp(posts, "")

	require.NoError(t, a.List(context.Background()))
	assert.Equal(t, []string{"No pending posts"}, *lines)

	*lines = nil
	posts.posts = []models.PendingPost{{
		TempID: "temp-1-a",
		Title:  "ข้าวซอย",
		Status: models.PostFailed,
		Error:  "failed to confirm",
		Media: []models.MediaItem{
			{Key: 0, File: models.NewMemoryFile("a.jpg", "image/jpeg", []byte("x")), Progress: 100, Status: models.UploadCompleted},
			{Key: 1, Progress: 100, Status: models.UploadFailed, Error: "boom"},
		},
	}}
	require.NoError(t, a.List(context.Background()))

	got := strings.Join(*lines, "\n")
	assert.Contains(t, got, "temp-1-a")
	assert.Contains(t, got, "ข้าวซอย")
	assert.Contains(t, got, "error: failed to confirm")
	assert.Contains(t, got, "a.jpg")
	assert.Contains(t, got, "#2")
	assert.Contains(t, got, "boom")
	assert.Contains(t, got, renderBar(100, defaultBarWidth))
}

func TestWatch_UntilSettled(t *testing.T) {
	lines := silence(t)
	old := watchInterval
	watchInterval = time.Millisecond
	t.Cleanup(func() { watchInterval = old })

	posts := &fakePosts{
		busy:  true,
		posts: []models.PendingPost{{Status: models.PostUploading, Media: []models.MediaItem{{Progress: 40}}}},
	}
	a, _ := testApp(posts, "")

	go func() {
		time.Sleep(10 * time.Millisecond)
		posts.set(func(f *fakePosts) {
			f.busy = false
			f.posts[0].Status = models.PostCompleted
		})
	}()

	require.NoError(t, a.Watch(context.Background()))
	assert.Contains(t, (*lines)[0], "uploading 1 post(s)")
	assert.Contains(t, (*lines)[0], "40%")
	assert.Equal(t, "All uploads settled", (*lines)[len(*lines)-1])
}

func TestWatch_StopsOnCancel(t *testing.T) {
	silence(t)
	posts := &fakePosts{busy: true}
	a, _ := testApp(posts, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, a.Watch(ctx), context.Canceled)
}

func TestRetryDismissClear(t *testing.T) {
	lines := silence(t)
	posts := &fakePosts{}
	a, _ := testApp(posts, "")
	ctx := context.Background()

	require.NoError(t, a.Retry(ctx, "temp-1-a"))
	require.NoError(t, a.Dismiss(ctx, "temp-1-a"))
	require.NoError(t, a.Clear(ctx))
	assert.Equal(t, []string{"temp-1-a"}, posts.retried)
	assert.Equal(t, []string{"temp-1-a"}, posts.dismissed)
	assert.Equal(t, 1, posts.cleared)

	require.ErrorIs(t, a.Dismiss(ctx, "missing"), services.ErrNotFound)
	assert.Contains(t, *lines, "No such pending post")

	posts.retryErr = services.ErrNothingToRetry
	require.ErrorIs(t, a.Retry(ctx, "temp-1-a"), services.ErrNothingToRetry)
}

func TestStatus(t *testing.T) {
	lines := silence(t)
	posts := &fakePosts{}
	a, _ := testApp(posts, "")
	a.setMode(ModeOnline)

	require.NoError(t, a.Status(context.Background()))
	assert.Equal(t, []string{"Mode: online", "Uploads: idle"}, *lines)

	*lines = nil
	posts.posts = []models.PendingPost{
		{Status: models.PostUploading, Media: []models.MediaItem{{Progress: 20}}},
		{Status: models.PostUploading, Media: []models.MediaItem{{Progress: 60}}},
		{Status: models.PostFailed},
	}
	require.NoError(t, a.Status(context.Background()))
	assert.Equal(t, "Uploads: 2 post(s) at 40%", (*lines)[1])
}

func TestConfirmExit(t *testing.T) {
	a, _ := testApp(&fakePosts{}, "")
	assert.True(t, a.confirmExit())

	a, out := testApp(&fakePosts{busy: true}, "n\n")
	assert.False(t, a.confirmExit())
	assert.Contains(t, out.String(), "Uploads are still running")

	a, _ = testApp(&fakePosts{busy: true}, "y\n")
	assert.True(t, a.confirmExit())
}

func TestClose_RunsClosersInReverse(t *testing.T) {
	a, _ := testApp(&fakePosts{}, "")
	var order []int
	a.closers = []func() error{
		func() error { order = append(order, 1); return nil },
		func() error { order = append(order, 2); return errors.New("ignored") },
	}
	a.Close()
	a.Close()
	assert.Equal(t, []int{2, 1}, order)
}
