package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/postkeeper/internal/client/client"
	"github.com/dmitrijs2005/postkeeper/internal/client/config"
	"github.com/dmitrijs2005/postkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/postkeeper/internal/client/optimistic"
	"github.com/dmitrijs2005/postkeeper/internal/client/r2"
	"github.com/dmitrijs2005/postkeeper/internal/client/repositories/pending"
	"github.com/dmitrijs2005/postkeeper/internal/client/services"
	"github.com/dmitrijs2005/postkeeper/internal/client/statusapi"
	"github.com/dmitrijs2005/postkeeper/internal/client/upload"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
	"github.com/dmitrijs2005/postkeeper/internal/netx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "postkeeper"

// logOutput is where the client logs go. The REPL owns stdout.
var logOutput io.Writer = os.Stderr

// newLogger builds the logger named by format. An unknown level is info;
// Validate rejects it before this runs.
func newLogger(format, level string, w io.Writer) logging.Logger {
	lvl, _ := logging.ParseLevel(level)
	switch format {
	case config.LogJSON:
		return logging.NewJSONLogger(w, lvl)
	case config.LogZerolog:
		return logging.NewConsoleLogger(w, logging.ZerologLevel(lvl))
	default:
		return logging.NewTextLogger(w, lvl)
	}
}

// newMediaClient builds the transport named by c.Transport. The returned
// closer is nil when the transport holds no connection.
func newMediaClient(ctx context.Context, c *config.Config) (client.MediaClient, func() error, error) {
	switch c.Transport {
	case config.TransportGRPC:
		g, err := client.NewGRPCClient(c.ServerEndpointAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("grpc client: %w", err)
		}
		g.SetAccessToken(c.AccessToken)
		return g, g.Close, nil

	case config.TransportR2:
		r, err := r2.New(ctx, r2.Config{
			Endpoint:        c.R2.AccountEndpoint,
			Region:          c.R2.Region,
			Bucket:          c.R2.Bucket,
			AccessKeyID:     c.R2.AccessKeyID,
			SecretAccessKey: c.R2.SecretAccessKey,
			PublicBaseURL:   c.R2.PublicBaseURL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("r2 client: %w", err)
		}
		return r, nil, nil

	default:
		h := client.NewHTTPClient(c.ServerEndpointAddr, nil)
		h.SetAccessToken(c.AccessToken)
		return h, nil, nil
	}
}

func openRepository(ctx context.Context, c *config.Config) (pending.Repository, error) {
	switch c.StorageDriver {
	case config.StoragePebble:
		return pending.OpenPebble(c.StoragePath)
	case config.StorageNone:
		return pending.Nop{}, nil
	default:
		return pending.OpenSQLite(ctx, c.StoragePath)
	}
}

// NewApp wires the client: transport, pending-post storage, the optimistic
// store restored from storage, the upload engine with its metrics and the
// post service. The status API is started by Run when c.StatusAddr is set.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(c.LogFormat, c.LogLevel, logOutput)
	var closers []func() error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, err
	}

	api, closeAPI, err := newMediaClient(ctx, c)
	if err != nil {
		return fail(err)
	}
	if closeAPI != nil {
		closers = append(closers, closeAPI)
	}

	repo, err := openRepository(ctx, c)
	if err != nil {
		logger.Error(ctx, "error opening pending storage", "driver", c.StorageDriver, "error", err)
		return fail(err)
	}
	closers = append(closers, repo.Close)

	records, err := repo.LoadAll(ctx)
	if err != nil {
		return fail(fmt.Errorf("load pending posts: %w", err))
	}

	store := optimistic.New(
		optimistic.WithPersister(repo),
		optimistic.WithPurgeDelay(c.PurgeDelay),
		optimistic.WithLogger(logger),
	)
	store.Hydrate(records)
	closers = append(closers, func() error { store.Close(); return nil })

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	observer, err := metrics.NewUploadObserver(metricsNamespace, reg)
	if err != nil {
		return fail(err)
	}

	engine := upload.NewEngine(api, netx.NewUploader(nil),
		upload.WithLogger(logger),
		upload.WithObserver(observer),
	)
	posts := services.NewPostService(store, engine, api, c.Author,
		services.WithConcurrency(c.ConcurrentUploads),
		services.WithServiceLogger(logger),
	)

	a := newApp(c, posts, logger)
	a.closers = closers
	a.mode = ModeOffline
	if c.StatusAddr != "" {
		a.status = statusapi.NewServer(c.StatusAddr, posts, reg, logger)
	}

	logger.Info(ctx, "client ready",
		"transport", c.Transport,
		"storage", c.StorageDriver,
		"restored", len(records),
	)
	return a, nil
}
