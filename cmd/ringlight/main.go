package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
	"libdb.so/ringlight"
	"libdb.so/ringlight/internal/settings"
)

var (
	settingsPath = "ringlight.toml"
	device       = "/dev/ttyUSB0"
	baud         = 115200
	listenAddr   = ":8080"
	dnsAddr      = ":53"
	ntpServer    = "pool.ntp.org"
	verbose      = false
)

func init() {
	pflag.StringVarP(&settingsPath, "settings", "c", settingsPath, "settings file")
	pflag.StringVarP(&device, "device", "d", device, "serial device of the ring co-processor")
	pflag.IntVar(&baud, "baud", baud, "serial baud rate")
	pflag.StringVar(&listenAddr, "listen", listenAddr, "configuration portal listen address")
	pflag.StringVar(&dnsAddr, "dns", dnsAddr, "captive DNS listen address (AP mode)")
	pflag.StringVar(&ntpServer, "ntp", ntpServer, "NTP server for time sync")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// A settings save stops the daemon with ErrRestart; loop around and
	// boot again with the freshly persisted configuration.
	for {
		store, err := settings.Open(settingsPath)
		if err != nil {
			return fmt.Errorf("failed to open settings: %w", err)
		}

		cfg := ringlight.LoadConfig(store)

		d, err := ringlight.NewDaemon(cfg, store, ringlight.Options{
			Device:     device,
			Baud:       baud,
			PortalAddr: listenAddr,
			DNSAddr:    dnsAddr,
			NTPServer:  ntpServer,
		}, slog.Default())
		if err != nil {
			return fmt.Errorf("failed to create daemon: %w", err)
		}

		err = d.Run(ctx)
		switch {
		case errors.Is(err, ringlight.ErrRestart):
			slog.Info("settings changed, restarting daemon")
		case err != nil && !errors.Is(err, context.Canceled):
			return fmt.Errorf("daemon failed: %w", err)
		default:
			return nil
		}
	}
}
