// Package remote maintains the persistent control socket to the media
// server: it sends periodic keep-alive frames and translates inbound remote
// commands into local playback actions. There is no automatic reconnect;
// the caller dials a fresh channel when it wants one.
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/fredrikburmester/streamcore/internal/config"
	"github.com/fredrikburmester/streamcore/internal/player"
)

// Config holds what the channel needs to reach the server
type Config struct {
	// URL is the full socket URL including api_key and deviceId
	URL string

	// KeepAliveInterval between heartbeat frames; defaults to the global
	// WebSocket keep-alive timeout when zero
	KeepAliveInterval time.Duration
}

// Channel is one mounted control connection. All inbound dispatch and the
// keep-alive ticker run on a single loop; socket errors surface through
// Connected()/State(), never as panics into caller code.
type Channel struct {
	cfg      Config
	controls player.Controls
	nav      player.Navigator
	notifier player.Notifier

	conn   *websocket.Conn
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	machine *machine
}

// Dial connects the control channel and starts its loop. The returned
// channel is already Open; the caller must Close it on unmount.
func Dial(ctx context.Context, cfg Config, controls player.Controls, nav player.Navigator, notifier player.Notifier) (*Channel, error) {
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = config.GetTimeouts().WebSocketKeepAlive
	}

	c := &Channel{
		cfg:      cfg,
		controls: controls,
		nav:      nav,
		notifier: notifier,
		machine:  newMachine(),
		done:     make(chan struct{}),
	}

	log.Debug().Str("url", cfg.URL).Msg("Connecting control channel")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		c.apply(c.machine.onError(err))
		return nil, fmt.Errorf("control channel dial failed: %w", err)
	}
	c.conn = conn

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.apply(c.machine.onOpen())
	go c.run(runCtx)

	log.Info().Msg("Control channel connected")
	return c, nil
}

// State returns the current lifecycle state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.state
}

// Connected reports whether the channel is open
func (c *Channel) Connected() bool {
	return c.State() == StateOpen
}

// Close tears the channel down. Safe to call more than once and on a channel
// that already failed.
func (c *Channel) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
}

// run is the channel's single event loop: keep-alive ticks and inbound
// frames interleave here in arrival order, with no ordering guarantee
// between them.
func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	defer c.cancel()

	ticker := time.NewTicker(c.cfg.KeepAliveInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	frames := make(chan []byte, 8)
	readErr := make(chan error, 1)

	go func() {
		for {
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// Best effort; the server drops the session on close anyway
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.apply(c.transition(func(m *machine) []command { return m.onClose() }))
			return

		case err := <-readErr:
			c.apply(c.transition(func(m *machine) []command { return m.onError(err) }))
			return

		case data := <-frames:
			c.apply(c.transition(func(m *machine) []command { return m.onMessage(data) }))

		case <-ticker.C:
			if err := c.conn.WriteJSON(newKeepAliveFrame()); err != nil {
				c.apply(c.transition(func(m *machine) []command { return m.onError(err) }))
				return
			}
			log.Trace().Msg("Sent keep-alive frame")
		}
	}
}

func (c *Channel) transition(fn func(*machine) []command) []command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c.machine)
}

// apply executes the side effects a transition requested
func (c *Channel) apply(commands []command) {
	for _, cmd := range commands {
		switch cmd.effect {
		case effectStartKeepAlive, effectStopKeepAlive:
			// The ticker's lifetime is tied to the run loop, which exists
			// exactly while the machine is Open

		case effectTogglePlay:
			// Toggle on local state: there is no ack protocol, so the
			// server is not authoritative over transient playback state
			if c.controls.IsPlaying() {
				c.controls.Pause()
			} else {
				c.controls.Play()
			}

		case effectStopPlayback:
			c.controls.Stop()
			if c.nav != nil && c.nav.CanGoBack() {
				c.nav.GoBack()
			}

		case effectAlert:
			c.notifier.Alert(cmd.header, cmd.body)
		}
	}
}
