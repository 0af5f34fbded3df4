package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/client/models"
	"github.com/dmitrijs2005/postkeeper/internal/common"
	"github.com/dmitrijs2005/postkeeper/internal/logging"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
	TransportR2   = "r2"

	StorageSQLite = "sqlite"
	StoragePebble = "pebble"
	StorageNone   = "none"

	LogText    = "text"
	LogJSON    = "json"
	LogZerolog = "zerolog"
)

// R2Config describes the bucket used by the r2 transport.
type R2Config struct {
	AccountEndpoint string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// Config holds runtime settings for the postkeeper CLI.
//
// Units: PurgeDelay and OnlineCheckInterval are time.Duration values.
type Config struct {
	ServerEndpointAddr  string
	Transport           string
	AccessToken         string
	ConcurrentUploads   int
	PurgeDelay          time.Duration
	OnlineCheckInterval time.Duration
	StorageDriver       string
	StoragePath         string
	StatusAddr          string
	LogFormat           string
	LogLevel            string
	R2                  R2Config
	Author              models.Author
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.Transport = TransportHTTP
	c.ConcurrentUploads = common.FormLimits.Media.ConcurrentUploads
	c.PurgeDelay = 2 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.StorageDriver = StorageSQLite
	c.StoragePath = "postkeeper.db"
	c.LogFormat = LogText
	c.LogLevel = "info"
	c.R2.Region = "auto"
}

// Validate rejects values the client cannot act on.
func (c *Config) Validate() error {
	checks := []struct {
		name, value string
		allowed     []string
	}{
		{"transport", c.Transport, []string{TransportHTTP, TransportGRPC, TransportR2}},
		{"storage driver", c.StorageDriver, []string{StorageSQLite, StoragePebble, StorageNone}},
		{"log format", c.LogFormat, []string{LogText, LogJSON, LogZerolog}},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("%w: unknown %s %q", common.ErrValidation, ch.name, ch.value)
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if c.ConcurrentUploads < 1 {
		return fmt.Errorf("%w: concurrent uploads must be positive", common.ErrValidation)
	}
	if c.Transport == TransportR2 && c.R2.Bucket == "" {
		return fmt.Errorf("%w: r2 transport needs a bucket", common.ErrValidation)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
