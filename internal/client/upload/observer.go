package upload

import (
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
)

// Observer receives engine-level events, typically for metrics.
type Observer interface {
	BatchStarted(files int)
	// FileSettled is called once per file that reached a transfer, after
	// the transfer succeeded or failed.
	FileSettled(status models.UploadStatus, bytes int64, elapsed time.Duration)
	BatchFinished(result models.UploadResult, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) BatchStarted(int)                                      {}
func (nopObserver) FileSettled(models.UploadStatus, int64, time.Duration) {}
func (nopObserver) BatchFinished(models.UploadResult, time.Duration)      {}
