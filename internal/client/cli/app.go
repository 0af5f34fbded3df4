package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/config"
	"github.com/dmitrijs2005/postkeeper/internal/client/services"
	"github.com/dmitrijs2005/postkeeper/internal/client/statusapi"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

const pingTimeout = 3 * time.Second

type App struct {
	config  *config.Config
	posts   services.PostService
	logger  logging.Logger
	status  *statusapi.Server
	closers []func() error
	reader  *bufio.Reader
	out     io.Writer

	mu   sync.RWMutex
	mode Mode
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "switched mode", "mode", mode)
	}
}

// Run serves the REPL on stdin until the user exits, then releases
// everything NewApp opened.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.Close()
	}()

	if a.status != nil {
		go func() {
			if err := a.status.Run(ctx); err != nil {
				a.logger.Error(ctx, "status API stopped", "error", err)
			}
		}()
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	printlnFn("Welcome to postkeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

// StartOnlineStatusWatcher pings the media API every interval and flips the
// mode shown in the prompt. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := a.posts.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode() == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

func newApp(c *config.Config, posts services.PostService, l logging.Logger) *App {
	return &App{
		config: c,
		posts:  posts,
		logger: l,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}
