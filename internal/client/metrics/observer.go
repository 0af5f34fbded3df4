// Package metrics exports upload engine events to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/client/upload"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "postkeeper"

// UploadObserver implements upload.Observer.
type UploadObserver struct {
	batches       *prometheus.CounterVec
	files         *prometheus.CounterVec
	bytes         prometheus.Counter
	fileDuration  prometheus.Histogram
	batchDuration prometheus.Histogram
	inFlight      prometheus.Gauge
}

var _ upload.Observer = (*UploadObserver)(nil)

// NewUploadObserver registers the upload metrics on reg. Collectors that are
// already registered under the same name are reused, so several observers
// can share one registry.
func NewUploadObserver(namespace string, reg prometheus.Registerer) (*UploadObserver, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	o := &UploadObserver{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_batches_total",
			Help:      "Upload batches by outcome.",
		}, []string{"outcome"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_files_total",
			Help:      "Transferred files by status.",
		}, []string{"status"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully transferred to object storage.",
		}),
		fileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_file_duration_seconds",
			Help:      "Time spent transferring one file.",
			Buckets:   prometheus.DefBuckets,
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_batch_duration_seconds",
			Help:      "Time from negotiation to confirmation of a batch.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upload_batches_in_flight",
			Help:      "Batches currently being processed.",
		}),
	}

	var err error
	if o.batches, err = register(reg, o.batches); err != nil {
		return nil, err
	}
	if o.files, err = register(reg, o.files); err != nil {
		return nil, err
	}
	if o.bytes, err = register(reg, o.bytes); err != nil {
		return nil, err
	}
	if o.fileDuration, err = register(reg, o.fileDuration); err != nil {
		return nil, err
	}
	if o.batchDuration, err = register(reg, o.batchDuration); err != nil {
		return nil, err
	}
	if o.inFlight, err = register(reg, o.inFlight); err != nil {
		return nil, err
	}
	return o, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register upload metric: %w", err)
}

func (o *UploadObserver) BatchStarted(int) {
	o.inFlight.Inc()
}

func (o *UploadObserver) FileSettled(status models.UploadStatus, bytes int64, elapsed time.Duration) {
	o.files.WithLabelValues(string(status)).Inc()
	o.fileDuration.Observe(elapsed.Seconds())
	if status == models.UploadCompleted {
		o.bytes.Add(float64(bytes))
	}
}

func (o *UploadObserver) BatchFinished(res models.UploadResult, elapsed time.Duration) {
	o.inFlight.Dec()
	o.batchDuration.Observe(elapsed.Seconds())
	o.batches.WithLabelValues(outcome(res)).Inc()
}

func outcome(res models.UploadResult) string {
	switch {
	case res.FailedCount == 0 && res.SuccessCount > 0:
		return "success"
	case res.Success:
		return "partial"
	default:
		return "failed"
	}
}
