// Package netx transfers file bytes to pre-signed object-storage URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
)

const defaultContentType = "application/octet-stream"

// Uploader PUTs files to pre-signed URLs and reports byte progress.
type Uploader struct {
	client *http.Client
}

// NewUploader returns an Uploader. A nil client gets a default one with a
// generous timeout suited to large media.
func NewUploader(client *http.Client) *Uploader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Uploader{client: client}
}

// Transfer streams file to url with a single PUT. onProgress receives
// non-decreasing percentages in [0,100] as the body is read. Any non-2xx
// response is an error.
func (u *Uploader) Transfer(ctx context.Context, url string, file *models.LocalFile, onProgress func(int)) error {
	body, err := file.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer body.Close()

	pr := &progressReader{r: body, total: file.Size, report: onProgress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, pr)
	if err != nil {
		return err
	}
	req.ContentLength = file.Size
	if file.Size == 0 {
		req.Body = http.NoBody
	}
	ct := file.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	req.Header.Set("Content-Type", ct)

	resp, err := u.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}

	pr.finish()
	return nil
}

type progressReader struct {
	r      io.Reader
	total  int64
	report func(int)

	mu   sync.Mutex
	read int64
	last int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.read += int64(n)
		pct := 100
		if p.total > 0 && p.read < p.total {
			pct = int(p.read * 100 / p.total)
		}
		p.emit(pct)
		p.mu.Unlock()
	}
	return n, err
}

func (p *progressReader) finish() {
	p.mu.Lock()
	p.emit(100)
	p.mu.Unlock()
}

// emit must be called with mu held.
func (p *progressReader) emit(pct int) {
	if p.report == nil || pct <= p.last {
		return
	}
	p.last = pct
	p.report(pct)
}
