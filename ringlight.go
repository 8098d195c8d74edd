// Package ringlight implements the LED ring firmware daemon: a single
// non-blocking control loop scheduling lighting effects against wall-clock
// time, with Wi-Fi connectivity monitoring and a captive configuration
// portal.
package ringlight

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/ringlight/internal/effects"
	"libdb.so/ringlight/internal/portal"
	"libdb.so/ringlight/internal/settings"
	"libdb.so/ringlight/internal/strip"
	"libdb.so/ringlight/internal/wallclock"
	"libdb.so/ringlight/internal/wifi"
	"libdb.so/ringlight/ringserial"
)

// ErrRestart is returned by Run after a successful settings save. The
// caller reloads the configuration and runs a fresh daemon.
var ErrRestart = errors.New("restart requested")

// tickInterval is the control loop period. Every subsystem does a bounded,
// small amount of work per tick and returns promptly.
const tickInterval = 10 * time.Millisecond

// Options are the daemon's non-persisted, host-level options.
type Options struct {
	// Device is the serial device of the LED ring co-processor.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string
	// Baud is the baud rate for the serial connection.
	Baud int
	// PortalAddr is the listen address of the configuration portal.
	PortalAddr string
	// DNSAddr is the listen address of the captive DNS redirector.
	DNSAddr string
	// PortalIP is the address captive DNS answers resolve to.
	PortalIP net.IP
	// NTPServer is the time sync server.
	NTPServer string
	// APName is the SSID announced in access point mode.
	APName string
	// ConnectTimeout bounds the startup association wait.
	ConnectTimeout time.Duration
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.Baud == 0 {
		opts.Baud = 115200
	}
	if opts.PortalAddr == "" {
		opts.PortalAddr = ":8080"
	}
	if opts.DNSAddr == "" {
		opts.DNSAddr = ":53"
	}
	if opts.PortalIP == nil {
		opts.PortalIP = net.IPv4(192, 168, 4, 1)
	}
	if opts.NTPServer == "" {
		opts.NTPServer = "pool.ntp.org"
	}
	if opts.APName == "" {
		opts.APName = "ringlight-setup"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	return opts
}

// Daemon is the main ringlight daemon.
type Daemon struct {
	cfg     *Config
	store   *settings.Store
	opts    Options
	logger  *slog.Logger
	restart chan struct{}
}

// NewDaemon creates a new ringlight daemon.
func NewDaemon(cfg *Config, store *settings.Store, opts Options, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &Daemon{
		cfg:     cfg,
		store:   store,
		opts:    opts.withDefaults(),
		logger:  logger,
		restart: make(chan struct{}, 1),
	}, nil
}

// Run starts the daemon. It blocks until the given context is canceled or
// a settings save requests a restart, in which case it returns ErrRestart.
func (d *Daemon) Run(ctx context.Context) error {
	return (&internalDaemon{Daemon: d}).Run(ctx)
}

func (d *Daemon) requestRestart() {
	select {
	case d.restart <- struct{}{}:
	default:
	}
}

type internalDaemon struct {
	*Daemon
	port    serial.Port
	strip   *strip.Serial
	backend *wifi.SerialBackend
	clock   *wallclock.Clock
	apMode  bool
}

func (d *internalDaemon) Run(ctx context.Context) error {
	port, err := serial.Open(d.opts.Device, &serial.Mode{
		BaudRate: d.opts.Baud,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open serial port")
	}
	defer port.Close()

	d.port = port
	d.strip = strip.NewSerial(port, d.cfg.NumPixels)
	d.backend = wifi.NewSerialBackend(port, d.logger)
	d.clock = wallclock.New(d.opts.NTPServer, d.logger)
	d.apMode = d.cfg.SSID == ""

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		d.logger.Debug("closing serial port")
		if err := port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})

	d.logger.Debug("sending initialize packet")
	err = ringserial.WriteIncomingPacket(port, ringserial.InitializePacket{
		NumLEDs: uint16(d.cfg.NumPixels),
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize ring")
	}

	errg.Go(func() error {
		return d.readPackets(ctx)
	})

	prtl := portal.New(d.store, d.cfg.FormFields(), d.portalStatus, d.requestRestart, d.logger)
	errg.Go(func() error {
		return d.servePortal(ctx, prtl)
	})

	if d.apMode {
		redirector := portal.NewDNSRedirector(d.opts.DNSAddr, d.opts.PortalIP, d.logger)
		errg.Go(func() error {
			return redirector.Run(ctx)
		})
	}

	errg.Go(func() error {
		return d.loop(ctx)
	})

	return errg.Wait()
}

// loop is the control loop. One iteration does at most timer comparisons
// and one strip flush per effect, so the portal and DNS goroutines are
// never starved.
func (d *internalDaemon) loop(ctx context.Context) error {
	creds := wifi.Credentials{SSID: d.cfg.SSID, Pass: d.cfg.Pass}

	if d.apMode {
		d.logger.Info("no credentials stored, starting access point", "ssid", d.opts.APName)
		d.backend.StartAccessPoint(d.opts.APName)
	} else {
		d.backend.Join(creds)
		d.awaitAssociation(ctx)
	}

	sched := effects.New(effects.Config{
		NumPixels:       d.cfg.NumPixels,
		ChaseSpeed:      d.cfg.ChaseSpeed,
		ChaseInterval:   d.cfg.ChaseInterval,
		FlashInterval:   d.cfg.FlashInterval,
		NumChasers:      d.cfg.NumChasers,
		FlashHold:       d.cfg.FlashHold,
		FadeDuration:    d.cfg.FadeDuration,
		Brightness:      d.cfg.Brightness,
		FlashBrightness: d.cfg.FlashBrightness,
		Background:      d.cfg.Background,
		Flash:           d.cfg.Flash,
	}, d.strip, d.logger)

	lostBlink := effects.NewBlinker(d.strip, d.cfg.Lost, d.cfg.FlashBrightness, effects.DefaultBlinkPeriod, d.logger)
	apBlink := effects.NewBlinker(d.strip, d.cfg.AccessPoint, d.cfg.FlashBrightness, effects.DefaultBlinkPeriod, d.logger)

	monitor := wifi.NewMonitor(d.backend, creds, wifi.Events{
		Lost: lostBlink.Rearm,
		Restored: func() {
			sched.Reset()
			sched.Repaint()
			d.clock.RequestSync()
		},
	}, d.logger)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-d.restart:
			return ErrRestart

		case now := <-ticker.C:
			if d.apMode {
				apBlink.Tick(now)
				continue
			}

			monitor.Tick(now)
			if !monitor.Connected() {
				lostBlink.Tick(now)
				continue
			}

			minute, second, ok := d.clock.MinuteSecond()
			if !ok {
				minute, second = -1, -1
			}
			sched.Tick(now, minute, second)
		}
	}
}

// awaitAssociation waits for the startup join to land. It returns after
// ConnectTimeout even if the radio never associates; the monitor keeps
// retrying from inside the loop afterwards.
func (d *internalDaemon) awaitAssociation(ctx context.Context) {
	deadline := time.Now().Add(d.opts.ConnectTimeout)
	for time.Now().Before(deadline) {
		if d.backend.Associated() {
			d.logger.Info("associated", "ssid", d.cfg.SSID)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(250 * time.Millisecond):
		}
	}
	d.logger.Warn("association timed out, continuing disconnected", "ssid", d.cfg.SSID)
}

func (d *internalDaemon) readPackets(ctx context.Context) error {
	if err := d.port.SetReadTimeout(serial.NoTimeout); err != nil {
		return errors.Wrap(err, "failed to reset read timeout")
	}

	for ctx.Err() == nil {
		p, err := ringserial.ReadOutgoingPacket(d.port, ringserial.ReadContext{})
		if err != nil {
			// A short read indicates a timeout. This is expected.
			// Ignore the error and try again.
			if errors.Is(err, io.EOF) {
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		switch p := p.(type) {
		case ringserial.StatusPacket:
			d.backend.UpdateStatus(p)
			d.logger.Debug(
				"received status packet from controller",
				"associated", p.Associated,
				"mode", p.Mode)

		case ringserial.AckPacket:
			d.logger.Debug(
				"received ack packet from controller",
				"acked_for", p.IncomingPacketType)

		case ringserial.ErrorPacket:
			d.logger.Warn(
				"controller reported error",
				"message", p.Message)

		case ringserial.PanicPacket:
			d.logger.Error("controller unrecoverably panicked")
			return errors.New("controller panicked")

		case ringserial.LogPacket:
			d.logger.Info(
				"received log packet from controller",
				"message", p.Message)

		default:
			return errors.Errorf("received unknown packet from controller: %s", p.Type())
		}
	}

	return ctx.Err()
}

func (d *internalDaemon) servePortal(ctx context.Context, prtl *portal.Portal) error {
	server := &http.Server{
		Addr:    d.opts.PortalAddr,
		Handler: prtl.Handler(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			d.logger.Warn("failed to shut down portal server", "error", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return errors.Wrap(err, "portal server failed")
	}
}

func (d *internalDaemon) portalStatus() portal.Status {
	return portal.Status{
		AccessPoint: d.apMode,
		Connected:   d.backend.Associated(),
		ClockSynced: d.clock.Synced(),
	}
}
