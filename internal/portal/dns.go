package portal

import (
	"context"
	"log/slog"
	"net"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// DNSRedirector answers every A query with the portal's own address. It
// only runs in access point mode, where it makes any hostname a client
// tries resolve to the settings page.
type DNSRedirector struct {
	logger *slog.Logger
	ip     net.IP
	server *dns.Server
}

// NewDNSRedirector creates a redirector listening on addr (host:port, UDP)
// and answering with ip.
func NewDNSRedirector(addr string, ip net.IP, logger *slog.Logger) *DNSRedirector {
	d := &DNSRedirector{
		logger: logger,
		ip:     ip,
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", d.handle)
	d.server = &dns.Server{
		Addr:    addr,
		Net:     "udp",
		Handler: mux,
	}
	return d
}

// Run serves DNS until the context is canceled.
func (d *DNSRedirector) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- d.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		if err := d.server.ShutdownContext(context.Background()); err != nil {
			d.logger.Warn("failed to shut down dns server", "error", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return errors.Wrap(err, "dns server failed")
	}
}

func (d *DNSRedirector) handle(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)

	for _, q := range r.Question {
		if q.Qtype != dns.TypeA {
			continue
		}
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    60,
			},
			A: d.ip,
		})
	}

	if err := w.WriteMsg(m); err != nil {
		d.logger.Warn("failed to write dns reply", "error", err)
	}
}
