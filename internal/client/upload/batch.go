package upload

import (
	"math"
	"sync"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
)

// batch is the private progress table of one UploadMultipleFiles call.
type batch struct {
	mu      sync.Mutex
	files   []*models.LocalFile
	targets []models.UploadTarget
	table   []models.UploadProgress
	opts    Options
	done    bool
}

func newBatch(files []*models.LocalFile, opts Options) *batch {
	b := &batch{
		files:   files,
		targets: make([]models.UploadTarget, len(files)),
		table:   make([]models.UploadProgress, len(files)),
		opts:    opts,
	}
	for i, f := range files {
		b.table[i] = models.UploadProgress{
			FileIndex: i,
			Status:    models.UploadPending,
		}
		if f != nil {
			b.table[i].FileName = f.Name
		}
	}
	return b
}

// overall is round(mean) over every file, unstarted files counting as 0.
// Callers hold b.mu.
func (b *batch) overall() int {
	if len(b.table) == 0 {
		return 0
	}
	sum := 0
	for _, p := range b.table {
		sum += p.Progress
	}
	return int(math.Round(float64(sum) / float64(len(b.table))))
}

// emit reports file i. Callers hold b.mu.
func (b *batch) emit(i int) {
	if b.opts.OnProgress == nil {
		return
	}
	p := b.table[i]
	p.Overall = b.overall()
	b.opts.OnProgress(p)
}

func (b *batch) start(i int, t models.UploadTarget) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.targets[i] = t
	p := &b.table[i]
	p.Status = models.UploadUploading
	p.MediaID = t.MediaID
	p.StorageKey = t.StorageKey
	b.emit(i)
}

func (b *batch) progress(i, pct int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := &b.table[i]
	if p.Status.Terminal() {
		return
	}
	pct = min(max(pct, 0), 100)
	if pct <= p.Progress {
		return
	}
	p.Progress = pct
	b.emit(i)
}

func (b *batch) transferred(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := &b.table[i]
	p.Progress = 100
	p.Status = models.UploadCompleted
	p.URL = b.targets[i].PublicURL
	b.emit(i)
}

// fail marks file i failed and pins its progress to 100.
func (b *batch) fail(i int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p := &b.table[i]
	p.Progress = 100
	p.Status = models.UploadFailed
	p.Error = err.Error()
	b.emit(i)
	if b.opts.OnError != nil {
		b.opts.OnError(err, i)
	}
}

// failAll fails every unsettled file without reporting per-file errors.
func (b *batch) failAll(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.table {
		p := &b.table[i]
		if p.Status.Terminal() {
			continue
		}
		p.Progress = 100
		p.Status = models.UploadFailed
		p.Error = err.Error()
	}
}

func (b *batch) confirmItems() []models.ConfirmItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	var items []models.ConfirmItem
	for i, p := range b.table {
		if p.Status != models.UploadCompleted {
			continue
		}
		items = append(items, models.ConfirmItem{
			MediaID:     b.targets[i].MediaID,
			StorageKey:  b.targets[i].StorageKey,
			FileSize:    b.files[i].Size,
			ContentType: b.files[i].ContentType,
		})
	}
	return items
}

// downgrade fails every transferred file after a rejected confirmation.
func (b *batch) downgrade(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.table {
		p := &b.table[i]
		if p.Status != models.UploadCompleted {
			continue
		}
		p.Status = models.UploadFailed
		p.Error = err.Error()
		p.URL = ""
	}
}

// complete fires OnComplete at most once.
func (b *batch) complete() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return
	}
	b.done = true
	if b.opts.OnComplete != nil {
		b.opts.OnComplete(b.snapshot())
	}
}

// snapshot copies the table with Overall filled in. Callers hold b.mu.
func (b *batch) snapshot() []models.UploadProgress {
	ov := b.overall()
	out := make([]models.UploadProgress, len(b.table))
	for i, p := range b.table {
		p.Overall = ov
		out[i] = p
	}
	return out
}

func (b *batch) result() models.UploadResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	res := models.UploadResult{Results: b.snapshot()}
	for _, p := range b.table {
		if p.Status == models.UploadCompleted {
			res.SuccessCount++
		} else {
			res.FailedCount++
		}
	}
	res.Success = res.SuccessCount > 0
	return res
}
