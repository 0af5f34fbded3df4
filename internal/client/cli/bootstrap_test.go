package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/config"
	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/client/optimistic"
	"github.com/dmitrijs2005/postkeeper/internal/client/repositories/pending"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogs(t *testing.T) {
	t.Helper()
	old := logOutput
	logOutput = io.Discard
	t.Cleanup(func() { logOutput = old })
}

func baseConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestNewLogger_Formats(t *testing.T) {
	for format, want := range map[string]string{
		config.LogText:    "msg=hello",
		config.LogJSON:    `"msg":"hello"`,
		config.LogZerolog: "hello",
	} {
		var buf bytes.Buffer
		newLogger(format, "info", &buf).Info(context.Background(), "hello")
		assert.Contains(t, buf.String(), want, format)
	}
}

func TestNewLogger_Level(t *testing.T) {
	for _, format := range []string{config.LogText, config.LogJSON, config.LogZerolog} {
		var buf bytes.Buffer
		l := newLogger(format, "warn", &buf)
		l.Info(context.Background(), "quiet")
		l.Warn(context.Background(), "loud")
		assert.NotContains(t, buf.String(), "quiet", format)
		assert.Contains(t, buf.String(), "loud", format)
	}
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := baseConfig()
	c.Transport = "carrier-pigeon"
	_, err := NewApp(context.Background(), c)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestNewApp_WiresStatusServer(t *testing.T) {
	quietLogs(t)
	c := baseConfig()
	c.StorageDriver = config.StorageNone
	c.StatusAddr = "127.0.0.1:0"

	a, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.status)
	assert.Equal(t, ModeOffline, a.Mode())
	assert.Empty(t, a.posts.List())
}

func TestNewApp_GRPCTransport(t *testing.T) {
	quietLogs(t)
	c := baseConfig()
	c.Transport = config.TransportGRPC
	c.ServerEndpointAddr = "127.0.0.1:1"
	c.StorageDriver = config.StorageNone

	a, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, a.closers, 3)
	a.Close()
}

func TestNewApp_RestoresPendingPosts(t *testing.T) {
	quietLogs(t)

	for _, driver := range []string{config.StorageSQLite, config.StoragePebble} {
		t.Run(driver, func(t *testing.T) {
			c := baseConfig()
			c.StorageDriver = driver
			c.StoragePath = filepath.Join(t.TempDir(), "pending")

			repo, err := openRepository(context.Background(), c)
			require.NoError(t, err)
			require.NoError(t, repo.SaveAll(context.Background(), []models.PostRecord{{
				TempID:    "temp-1-a",
				Title:     "ก๋วยเตี๋ยว",
				Status:    models.PostUploading,
				CreatedAt: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
				Media:     []models.MediaRecord{{Key: 0, Progress: 40, Status: models.UploadUploading}},
			}}))
			require.NoError(t, repo.Close())

			a, err := NewApp(context.Background(), c)
			require.NoError(t, err)
			defer a.Close()

			list := a.posts.List()
			require.Len(t, list, 1)
			assert.Equal(t, "temp-1-a", list[0].TempID)
			assert.Equal(t, models.PostFailed, list[0].Status)
			assert.Equal(t, optimistic.InterruptedError, list[0].Error)
			assert.False(t, a.posts.Busy())
		})
	}
}

func TestOpenRepository_None(t *testing.T) {
	c := baseConfig()
	c.StorageDriver = config.StorageNone
	repo, err := openRepository(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, pending.Nop{}, repo)
}

func TestRun_ExitsOnQuit(t *testing.T) {
	quietLogs(t)
	lines := silence(t)
	c := baseConfig()
	c.StorageDriver = config.StorageNone
	c.OnlineCheckInterval = time.Hour

	a, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	a.reader = rdr("help\nquit\n")

	a.Run(context.Background())

	got := strings.Join(*lines, "\n")
	assert.Contains(t, got, "Welcome to postkeeper")
	assert.Contains(t, got, helpText)
	assert.Contains(t, got, "Bye!")
	assert.Nil(t, a.closers)
}
