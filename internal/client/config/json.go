package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/flagx"
	"github.com/dmitrijs2005/postkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. Pointer fields tell an
// absent key from a zero value.
type JsonConfig struct {
	ServerEndpointAddr  *string         `json:"server_endpoint_addr"`
	Transport           *string         `json:"transport"`
	ConcurrentUploads   *int            `json:"concurrent_uploads"`
	PurgeDelay          *timex.Duration `json:"purge_delay"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	StorageDriver       *string         `json:"storage_driver"`
	StoragePath         *string         `json:"storage_path"`
	StatusAddr          *string         `json:"status_addr"`
	LogFormat           *string         `json:"log_format"`
	LogLevel            *string         `json:"log_level"`
	R2                  *JsonR2Config   `json:"r2"`
}

type JsonR2Config struct {
	AccountEndpoint *string `json:"account_endpoint"`
	Region          *string `json:"region"`
	Bucket          *string `json:"bucket"`
	PublicBaseURL   *string `json:"public_base_url"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setIf(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setIf(&cfg.Transport, jc.Transport)
	setIf(&cfg.ConcurrentUploads, jc.ConcurrentUploads)
	setDuration(&cfg.PurgeDelay, jc.PurgeDelay)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setIf(&cfg.StorageDriver, jc.StorageDriver)
	setIf(&cfg.StoragePath, jc.StoragePath)
	setIf(&cfg.StatusAddr, jc.StatusAddr)
	setIf(&cfg.LogFormat, jc.LogFormat)
	setIf(&cfg.LogLevel, jc.LogLevel)

	if r2 := jc.R2; r2 != nil {
		setIf(&cfg.R2.AccountEndpoint, r2.AccountEndpoint)
		setIf(&cfg.R2.Region, r2.Region)
		setIf(&cfg.R2.Bucket, r2.Bucket)
		setIf(&cfg.R2.PublicBaseURL, r2.PublicBaseURL)
	}
}
