package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"golang.org/x/term"
)

const (
	defaultBarWidth = 20
	minBarWidth     = 10
	maxBarWidth     = 40
)

// Test seams for terminal detection.
var (
	isTerminal = term.IsTerminal
	termSize   = term.GetSize
)

// interactive reports whether w is a terminal we can redraw in place.
func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}

// barWidth sizes progress bars to a quarter of the terminal.
func barWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return defaultBarWidth
	}
	cols, _, err := termSize(int(f.Fd()))
	if err != nil {
		return defaultBarWidth
	}
	return max(minBarWidth, min(maxBarWidth, cols/4))
}

// renderBar draws pct (clamped to 0..100) as "[#####-----] 50%".
func renderBar(pct, width int) string {
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat("-", width-filled), pct)
}

// summarize describes the posts that are still uploading and their mean
// progress. ok is false when nothing is uploading.
func summarize(posts []models.PendingPost) (count, pct int, ok bool) {
	total := 0
	for _, p := range posts {
		if p.Status != models.PostUploading {
			continue
		}
		count++
		total += p.Progress()
	}
	if count == 0 {
		return 0, 0, false
	}
	return count, total / count, true
}
