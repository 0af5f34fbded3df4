package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/client/services"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePosts struct {
	posts     []models.PendingPost
	busy      bool
	dismissed []string
	retried   []string
	retryErr  error
	cleared   int
}

func (f *fakePosts) Submit(context.Context, services.Draft) (string, error) { return "", nil }

func (f *fakePosts) Retry(_ context.Context, id string) error {
	f.retried = append(f.retried, id)
	return f.retryErr
}

func (f *fakePosts) Dismiss(id string) error {
	for _, p := range f.posts {
		if p.TempID == id {
			f.dismissed = append(f.dismissed, id)
			return nil
		}
	}
	return services.ErrNotFound
}

func (f *fakePosts) ClearCompleted()            { f.cleared++ }
func (f *fakePosts) List() []models.PendingPost { return f.posts }
func (f *fakePosts) Busy() bool                 { return f.busy }
func (f *fakePosts) Wait()                      {}
func (f *fakePosts) Ping(context.Context) error { return nil }

func newFake() *fakePosts {
	return &fakePosts{
		busy: true,
		posts: []models.PendingPost{{
			TempID: "temp-1-a",
			Title:  "ภูเขา",
			Status: models.PostUploading,
			Media: []models.MediaItem{
				{Key: 0, Progress: 100, Status: models.UploadCompleted, File: models.NewMemoryFile("a.jpg", "image/jpeg", []byte("x"))},
				{Key: 1, Progress: 50, Status: models.UploadUploading},
			},
			CreatedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		}},
	}
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestList(t *testing.T) {
	h := NewServer(":0", newFake(), nil, logging.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/pending")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "temp-1-a", got[0]["temp_id"])
	assert.Equal(t, "ภูเขา", got[0]["title"])
	assert.Equal(t, float64(75), got[0]["progress"])
	assert.NotContains(t, rec.Body.String(), "a.jpg", "file handles must not leak")
}

func TestGet(t *testing.T) {
	h := NewServer(":0", newFake(), nil, logging.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/pending/temp-1-a")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"uploading"`)

	rec = do(t, h, http.MethodGet, "/pending/temp-9-z")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBusy(t *testing.T) {
	f := newFake()
	h := NewServer(":0", f, nil, logging.Nop()).Handler()

	rec := do(t, h, http.MethodGet, "/pending/busy")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"busy":true}`, rec.Body.String())
}

func TestDismiss(t *testing.T) {
	f := newFake()
	h := NewServer(":0", f, nil, logging.Nop()).Handler()

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/pending/temp-1-a").Code)
	assert.Equal(t, []string{"temp-1-a"}, f.dismissed)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/pending/nope").Code)
}

func TestRetry(t *testing.T) {
	f := newFake()
	h := NewServer(":0", f, nil, logging.Nop()).Handler()

	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/pending/temp-1-a/retry").Code)
	assert.Equal(t, []string{"temp-1-a"}, f.retried)

	f.retryErr = services.ErrNothingToRetry
	rec := do(t, h, http.MethodPost, "/pending/temp-1-a/retry")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"nothing to retry"}`, rec.Body.String())
}

func TestClearCompleted(t *testing.T) {
	f := newFake()
	h := NewServer(":0", f, nil, logging.Nop()).Handler()

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/pending/clear-completed").Code)
	assert.Equal(t, 1, f.cleared)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "postkeeper_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	h := NewServer(":0", newFake(), reg, logging.Nop()).Handler()
	rec := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "postkeeper_test_total 1"))

	h = NewServer(":0", newFake(), nil, logging.Nop()).Handler()
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics").Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer("127.0.0.1:0", newFake(), nil, logging.Nop())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
