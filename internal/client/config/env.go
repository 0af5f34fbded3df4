package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

type envBinding struct {
	key string
	set func(cfg *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func duration(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

var envBindings = []envBinding{
	{"POSTKEEPER_SERVER_ADDR", str(func(c *Config) *string { return &c.ServerEndpointAddr })},
	{"POSTKEEPER_TRANSPORT", str(func(c *Config) *string { return &c.Transport })},
	{"POSTKEEPER_ACCESS_TOKEN", str(func(c *Config) *string { return &c.AccessToken })},
	{"POSTKEEPER_CONCURRENT_UPLOADS", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.ConcurrentUploads = n
		return nil
	}},
	{"POSTKEEPER_PURGE_DELAY", duration(func(c *Config) *time.Duration { return &c.PurgeDelay })},
	{"POSTKEEPER_ONLINE_CHECK_INTERVAL", duration(func(c *Config) *time.Duration { return &c.OnlineCheckInterval })},
	{"POSTKEEPER_STORAGE_DRIVER", str(func(c *Config) *string { return &c.StorageDriver })},
	{"POSTKEEPER_STORAGE_PATH", str(func(c *Config) *string { return &c.StoragePath })},
	{"POSTKEEPER_STATUS_ADDR", str(func(c *Config) *string { return &c.StatusAddr })},
	{"POSTKEEPER_LOG_FORMAT", str(func(c *Config) *string { return &c.LogFormat })},
	{"POSTKEEPER_LOG_LEVEL", str(func(c *Config) *string { return &c.LogLevel })},
	{"POSTKEEPER_R2_ENDPOINT", str(func(c *Config) *string { return &c.R2.AccountEndpoint })},
	{"POSTKEEPER_R2_REGION", str(func(c *Config) *string { return &c.R2.Region })},
	{"POSTKEEPER_R2_BUCKET", str(func(c *Config) *string { return &c.R2.Bucket })},
	{"POSTKEEPER_R2_ACCESS_KEY_ID", str(func(c *Config) *string { return &c.R2.AccessKeyID })},
	{"POSTKEEPER_R2_SECRET_ACCESS_KEY", str(func(c *Config) *string { return &c.R2.SecretAccessKey })},
	{"POSTKEEPER_R2_PUBLIC_BASE_URL", str(func(c *Config) *string { return &c.R2.PublicBaseURL })},
	{"POSTKEEPER_AUTHOR_ID", str(func(c *Config) *string { return &c.Author.ID })},
	{"POSTKEEPER_AUTHOR_USERNAME", str(func(c *Config) *string { return &c.Author.Username })},
	{"POSTKEEPER_AUTHOR_DISPLAY_NAME", str(func(c *Config) *string { return &c.Author.DisplayName })},
	{"POSTKEEPER_AUTHOR_AVATAR_URL", str(func(c *Config) *string { return &c.Author.AvatarURL })},
}

// parseEnv overlays Config with POSTKEEPER_* variables.
//
// Variables come from a dotenv file first and the process environment
// second, so an exported variable beats the file. The file is the one named
// by -e/-env; without the flag ./.env is used if it exists.
//
// Panics on an unreadable explicit dotenv file or on malformed values.
func parseEnv(cfg *Config) {
	vars := map[string]string{}

	path := flagx.EnvFileFlag()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	fileVars, err := godotenv.Read(path)
	switch {
	case err == nil:
		maps.Copy(vars, fileVars)
	case explicit || !errors.Is(err, fs.ErrNotExist):
		panic(err)
	}

	for _, b := range envBindings {
		if v, ok := os.LookupEnv(b.key); ok {
			vars[b.key] = v
		}
	}

	for _, b := range envBindings {
		v, ok := vars[b.key]
		if !ok {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			panic(fmt.Errorf("%s: %w", b.key, err))
		}
	}
}
