package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/client"
	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
	"golang.org/x/sync/semaphore"
)

// Transferer moves the bytes of one file to a negotiated target.
// onProgress must receive non-decreasing values in [0,100].
type Transferer interface {
	Transfer(ctx context.Context, url string, file *models.LocalFile, onProgress func(int)) error
}

// Options tunes a single UploadMultipleFiles call. All callbacks are optional.
type Options struct {
	// Concurrency caps simultaneous transfers. Values <= 0 use
	// common.FormLimits.Media.ConcurrentUploads.
	Concurrency int

	// OnProgress receives the updated file record after every change.
	// UploadProgress.Overall carries the batch mean at that instant.
	// Files failed by a rejected confirmation get no further call; their
	// final state arrives through OnComplete and the returned result.
	OnProgress func(models.UploadProgress)
	// OnComplete fires exactly once with the final results, equal to
	// UploadResult.Results.
	OnComplete func([]models.UploadProgress)
	// OnError fires when a file's transfer fails.
	OnError func(err error, fileIndex int)
}

type Engine struct {
	api      client.MediaClient
	transfer Transferer
	log      logging.Logger
	observer Observer
	now      func() time.Time
}

type EngineOption func(*Engine)

func WithLogger(l logging.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

func NewEngine(api client.MediaClient, transfer Transferer, opts ...EngineOption) *Engine {
	e := &Engine{
		api:      api,
		transfer: transfer,
		log:      logging.Nop(),
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func concurrencyLimit(n int) int64 {
	if n <= 0 {
		n = common.FormLimits.Media.ConcurrentUploads
	}
	if n <= 0 {
		n = 1
	}
	return int64(n)
}

// UploadMultipleFiles negotiates, transfers and confirms files as one batch.
//
// ctx governs negotiation and the wait for a transfer slot. Transfers that
// have started, and the confirmation that follows them, run to completion
// even if ctx is cancelled. Nil entries in files fail with ErrTransfer
// without being negotiated.
func (e *Engine) UploadMultipleFiles(ctx context.Context, files []*models.LocalFile, opts Options) models.UploadResult {
	started := e.now()
	b := newBatch(files, opts)

	e.observer.BatchStarted(len(files))
	log := e.log.With("files", len(files))

	finish := func() models.UploadResult {
		b.complete()
		res := b.result()
		e.observer.BatchFinished(res, e.now().Sub(started))
		log.Info(ctx, "upload batch finished",
			"succeeded", res.SuccessCount,
			"failed", res.FailedCount)
		return res
	}

	if len(files) == 0 {
		return finish()
	}

	live := make([]int, 0, len(files))
	specs := make([]models.FileSpec, 0, len(files))
	for i, f := range files {
		if f == nil {
			b.fail(i, fmt.Errorf("%w: file %d is nil", ErrTransfer, i))
			continue
		}
		live = append(live, i)
		specs = append(specs, f.Spec())
	}
	if len(live) == 0 {
		return finish()
	}

	targets, err := e.api.RequestBatchPresignedURLs(ctx, specs)
	if err == nil && len(targets) != len(specs) {
		err = fmt.Errorf("got %d targets for %d files", len(targets), len(specs))
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrNegotiation, err)
		log.Error(ctx, "upload negotiation failed", "error", err)
		b.failAll(err)
		return finish()
	}

	detached := context.WithoutCancel(ctx)
	sem := semaphore.NewWeighted(concurrencyLimit(opts.Concurrency))
	var wg sync.WaitGroup

	// Slots are taken in file order so a later file never overtakes an
	// earlier one waiting for the limiter.
	for k, i := range live {
		if err := sem.Acquire(ctx, 1); err != nil {
			err = fmt.Errorf("%w: %w", ErrTransfer, err)
			for _, j := range live[k:] {
				b.fail(j, err)
			}
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			e.transferOne(detached, log, b, i, files[i], targets[k])
		}()
	}
	wg.Wait()

	items := b.confirmItems()
	if len(items) > 0 {
		if err := e.api.ConfirmBatchUpload(detached, items); err != nil {
			err = fmt.Errorf("%w: %w", ErrConfirmation, err)
			log.Error(ctx, "upload confirmation failed", "error", err, "items", len(items))
			b.downgrade(err)
		}
	}

	return finish()
}

func (e *Engine) transferOne(ctx context.Context, log logging.Logger, b *batch, i int, f *models.LocalFile, t models.UploadTarget) {
	started := e.now()
	b.start(i, t)

	err := e.transfer.Transfer(ctx, t.UploadURL, f, func(p int) { b.progress(i, p) })
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrTransfer, f.Name, err)
		log.Warn(ctx, "file transfer failed", "file_index", i, "error", err)
		b.fail(i, err)
		e.observer.FileSettled(models.UploadFailed, 0, e.now().Sub(started))
		return
	}

	b.transferred(i)
	e.observer.FileSettled(models.UploadCompleted, f.Size, e.now().Sub(started))
}
