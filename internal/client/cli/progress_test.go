package cli

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
)

func TestRenderBar(t *testing.T) {
	tests := []struct {
		pct, width int
		want       string
	}{
		{0, 10, "[----------]   0%"},
		{50, 10, "[#####-----]  50%"},
		{100, 10, "[##########] 100%"},
		{-5, 4, "[----]   0%"},
		{250, 4, "[####] 100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderBar(tt.pct, tt.width))
	}
}

func stubTerminal(t *testing.T, tty bool, cols int, sizeErr error) {
	t.Helper()
	oldTTY, oldSize := isTerminal, termSize
	isTerminal = func(int) bool { return tty }
	termSize = func(int) (int, int, error) { return cols, 24, sizeErr }
	t.Cleanup(func() { isTerminal, termSize = oldTTY, oldSize })
}

func TestBarWidth(t *testing.T) {
	stubTerminal(t, true, 100, nil)
	assert.Equal(t, 25, barWidth(os.Stdout))
	assert.True(t, interactive(os.Stdout))
	assert.False(t, interactive(&bytes.Buffer{}))
	assert.Equal(t, defaultBarWidth, barWidth(&bytes.Buffer{}))

	stubTerminal(t, true, 20, nil)
	assert.Equal(t, minBarWidth, barWidth(os.Stdout))

	stubTerminal(t, true, 400, nil)
	assert.Equal(t, maxBarWidth, barWidth(os.Stdout))

	stubTerminal(t, true, 0, errors.New("no size"))
	assert.Equal(t, defaultBarWidth, barWidth(os.Stdout))

	stubTerminal(t, false, 100, nil)
	assert.Equal(t, defaultBarWidth, barWidth(os.Stdout))
}

func TestSummarize(t *testing.T) {
	_, _, ok := summarize(nil)
	assert.False(t, ok)

	count, pct, ok := summarize([]models.PendingPost{
		{Status: models.PostUploading, Media: []models.MediaItem{{Progress: 10}, {Progress: 30}}},
		{Status: models.PostCompleted},
		{Status: models.PostUploading},
	})
	assert.True(t, ok)
	assert.Equal(t, 2, count)
	assert.Equal(t, 60, pct)
}
