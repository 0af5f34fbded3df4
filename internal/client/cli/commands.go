package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/client/services"
	"github.com/dmitrijs2005/postkeeper/internal/common"
)

// Test seams.
var (
	openLocalFile = models.OpenLocalFile
	watchInterval = 250 * time.Millisecond
)

func (a *App) report(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		printlnFn("Invalid post:", err)
	case errors.Is(err, services.ErrNotFound):
		printlnFn("No such pending post")
	default:
		printlnFn("Error:", err)
	}
	return err
}

// Post composes a post interactively and queues it for upload.
func (a *App) Post(ctx context.Context) error {
	title, err := GetSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return a.report(err)
	}
	content, err := GetMultiline(a.reader, "Content", a.out)
	if err != nil {
		return a.report(err)
	}
	tags, err := GetTags(a.reader, "Tags (comma separated)", a.out)
	if err != nil {
		return a.report(err)
	}
	paths, err := GetLines(a.reader, "Attach files by path", a.out)
	if err != nil {
		return a.report(err)
	}

	files := make([]*models.LocalFile, 0, len(paths))
	for _, p := range paths {
		f, err := openLocalFile(p)
		if err != nil {
			return a.report(err)
		}
		files = append(files, f)
	}

	tempID, err := a.posts.Submit(ctx, services.Draft{
		Title:   title,
		Content: content,
		Tags:    tags,
		Files:   files,
	})
	if err != nil {
		return a.report(err)
	}

	printlnFn(fmt.Sprintf("Queued %s with %d file(s)", tempID, len(files)))
	return nil
}

// List prints every pending post with its media.
func (a *App) List(ctx context.Context) error {
	posts := a.posts.List()
	if len(posts) == 0 {
		printlnFn("No pending posts")
		return nil
	}

	width := barWidth(a.out)
	for _, p := range posts {
		printlnFn(fmt.Sprintf("%s  %-9s %s  %s", p.TempID, p.Status, renderBar(p.Progress(), width), p.Title))
		if p.ServerPostID != "" {
			printlnFn("    published as", p.ServerPostID)
		}
		if p.Error != "" {
			printlnFn("    error:", p.Error)
		}
		for _, m := range p.Media {
			name := fmt.Sprintf("#%d", m.Key+1)
			if m.File != nil {
				name = m.File.Name
			}
			line := fmt.Sprintf("    - %-24s %-9s %s", name, m.Status, renderBar(m.Progress, width))
			if m.Error != "" {
				line += "  " + m.Error
			}
			printlnFn(line)
		}
	}
	return nil
}

// Watch follows running uploads until none is left or ctx is done. On a
// terminal the summary line is redrawn in place.
func (a *App) Watch(ctx context.Context) error {
	tty := interactive(a.out)
	width := barWidth(a.out)
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	last := ""
	for {
		count, pct, ok := summarize(a.posts.List())
		if !ok && !a.posts.Busy() {
			if tty && last != "" {
				fmt.Fprintln(a.out)
			}
			printlnFn("All uploads settled")
			return nil
		}

		line := fmt.Sprintf("uploading %d post(s) %s", count, renderBar(pct, width))
		if line != last {
			if tty {
				fmt.Fprint(a.out, "\r"+line)
			} else {
				printlnFn(line)
			}
			last = line
		}

		select {
		case <-ctx.Done():
			if tty {
				fmt.Fprintln(a.out)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *App) Retry(ctx context.Context, tempID string) error {
	if err := a.posts.Retry(ctx, tempID); err != nil {
		return a.report(err)
	}
	printlnFn("Retrying", tempID)
	return nil
}

func (a *App) Dismiss(ctx context.Context, tempID string) error {
	if err := a.posts.Dismiss(tempID); err != nil {
		return a.report(err)
	}
	printlnFn("Dismissed", tempID)
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	a.posts.ClearCompleted()
	printlnFn("Cleared completed posts")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	count, pct, ok := summarize(a.posts.List())
	printlnFn("Mode:", a.Mode())
	if !ok {
		printlnFn("Uploads: idle")
		return nil
	}
	printlnFn(fmt.Sprintf("Uploads: %d post(s) at %d%%", count, pct))
	return nil
}

// confirmExit lets the user back out of quitting while uploads run.
// Interrupted posts come back as failed on the next start.
func (a *App) confirmExit() bool {
	if !a.posts.Busy() {
		return true
	}
	return GetConfirmation(a.reader, "Uploads are still running. Quit anyway?", a.out)
}

func (a *App) getStatus() string {
	s := string(a.Mode())
	if a.config != nil && a.config.Author.Username != "" {
		s = a.config.Author.Username + " " + s
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
