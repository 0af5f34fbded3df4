package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/postkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend endpoint (default from Config)
//	-t string   transport: http, grpc or r2
//	-n int      simultaneous uploads per batch
//	-s string   status API listen address
//	-d string   pending storage driver: sqlite, pebble or none
//	-l string   log level: debug, info, warn or error
//	-i int      online check interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-n", "-s", "-d", "-l", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "backend endpoint")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport: http, grpc or r2")
	fs.IntVar(&cfg.ConcurrentUploads, "n", cfg.ConcurrentUploads, "simultaneous uploads per batch")
	fs.StringVar(&cfg.StatusAddr, "s", cfg.StatusAddr, "status API listen address")
	fs.StringVar(&cfg.StorageDriver, "d", cfg.StorageDriver, "pending storage driver: sqlite, pebble or none")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn or error")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
