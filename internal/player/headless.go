package player

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Headless is a Controls implementation with no rendering engine behind it.
// It tracks playing state and position locally so remote commands and skip
// seeks behave consistently, and logs every transition.
type Headless struct {
	mu       sync.Mutex
	playing  bool
	position float64
}

// NewHeadless creates a stopped headless player
func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Play() {
	h.mu.Lock()
	h.playing = true
	h.mu.Unlock()
	log.Info().Msg("Playback resumed")
}

func (h *Headless) Pause() {
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
	log.Info().Msg("Playback paused")
}

func (h *Headless) Stop() {
	h.mu.Lock()
	h.playing = false
	h.position = 0
	h.mu.Unlock()
	log.Info().Msg("Playback stopped")
}

func (h *Headless) SeekTo(seconds float64) error {
	h.mu.Lock()
	h.position = seconds
	h.mu.Unlock()
	log.Debug().Float64("position", seconds).Msg("Seeked")
	return nil
}

func (h *Headless) Position() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

func (h *Headless) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing
}

// Advance moves the position forward by elapsed units while playing. The
// daemon's tick loop calls this in place of a real engine's clock.
func (h *Headless) Advance(elapsed float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.playing {
		h.position += elapsed
	}
	return h.position
}
