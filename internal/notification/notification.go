// Package notification delivers user-facing alerts, primarily the
// DisplayMessage frames the media server pushes over the control channel.
// Delivery is fire-and-forget: a failed provider never blocks the channel.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Alert is one user-facing message
type Alert struct {
	Header    string
	Body      string
	Timestamp time.Time
}

// Provider is the interface for alert delivery backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Send delivers an alert
	Send(ctx context.Context, alert Alert) error
}

// Dispatcher fans alerts out to registered providers asynchronously. It
// implements the player.Notifier surface used by the remote channel.
type Dispatcher struct {
	mu        sync.RWMutex
	providers map[string]Provider
	timeout   time.Duration
}

// NewDispatcher creates a dispatcher with no providers registered; alerts
// always land in the log regardless.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		providers: make(map[string]Provider),
		timeout:   10 * time.Second,
	}
}

// Register adds an alert delivery backend
func (d *Dispatcher) Register(p Provider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[p.Name()] = p
	log.Debug().Str("provider", p.Name()).Msg("Notification provider registered")
}

// Alert surfaces a message to the user. Providers run in the background;
// failures are logged, never propagated.
func (d *Dispatcher) Alert(header, body string) {
	log.Info().Str("header", header).Str("body", body).Msg("Server message")

	alert := Alert{Header: header, Body: body, Timestamp: time.Now()}

	d.mu.RLock()
	providers := make([]Provider, 0, len(d.providers))
	for _, p := range d.providers {
		providers = append(providers, p)
	}
	d.mu.RUnlock()

	for _, p := range providers {
		go func(p Provider) {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := p.Send(ctx, alert); err != nil {
				log.Warn().Err(err).Str("provider", p.Name()).Msg("Alert delivery failed")
			}
		}(p)
	}
}
