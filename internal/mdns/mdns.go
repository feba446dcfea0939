// Package mdns advertises the satellite on the local network via
// DNS-SD so the hub can discover it without a static address.
package mdns

import (
	"context"
	"fmt"

	"github.com/brutella/dnssd"

	"github.com/voxsat/satellite/internal/logger"
)

// ServiceType is the DNS-SD service type the hub's discovery client
// looks for.
const ServiceType = "_esphomelib._tcp"

// Properties are the advisory TXT-record tags carried alongside the
// service advertisement.
type Properties struct {
	ProtocolVersion string
	MacAddress      string
	Board           string
	Platform        string
	Network         string
}

// Advertiser owns the DNS-SD responder goroutine for the satellite's
// lifetime.
type Advertiser struct {
	log       *logger.Logger
	responder dnssd.Responder
	cancel    context.CancelFunc
}

// Start builds and registers the service advertisement and begins
// responding to mDNS queries in the background. Call Stop to
// withdraw the advertisement.
func Start(name string, port int, props Properties, log *logger.Logger) (*Advertiser, error) {
	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
		Text: map[string]string{
			"version":  props.ProtocolVersion,
			"mac":      props.MacAddress,
			"board":    props.Board,
			"platform": props.Platform,
			"network":  props.Network,
		},
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("mdns: create service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return nil, fmt.Errorf("mdns: create responder: %w", err)
	}

	if _, err := responder.Add(svc); err != nil {
		return nil, fmt.Errorf("mdns: add service: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Advertiser{log: log, responder: responder, cancel: cancel}

	go func() {
		if err := responder.Respond(ctx); err != nil && ctx.Err() == nil {
			log.Warn("mdns: responder stopped: %v", err)
		}
	}()

	log.Info("mdns: advertising %q as %s on port %d", name, ServiceType, port)
	return a, nil
}

// Stop withdraws the advertisement and stops the responder goroutine.
func (a *Advertiser) Stop() {
	if a == nil || a.cancel == nil {
		return
	}
	a.cancel()
}
