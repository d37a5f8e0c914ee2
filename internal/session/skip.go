// Package session coordinates one playback session: it tracks the playback
// position against server-declared intro/credits windows, arms the one-shot
// skip affordances, and keeps the item's watch state in sync with the server.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fredrikburmester/streamcore/internal/jellyfin"
	"github.com/fredrikburmester/streamcore/internal/player"
)

// skipSettleDelay is how long a skip waits after seeking before resuming,
// giving the playback engine time to land on the new position
const skipSettleDelay = 200 * time.Millisecond

// WindowFetcher retrieves the timestamp window for an item
type WindowFetcher func(ctx context.Context, itemID string) (jellyfin.TimestampWindow, error)

// SkipWatcher observes position updates against one timestamp window (intro
// or credits). The window is fetched once per item; an invalid window keeps
// the watcher permanently dormant for that item.
type SkipWatcher struct {
	name      string
	fetch     WindowFetcher
	controls  player.Controls
	haptics   player.Haptics
	timeScale float64

	mu      sync.Mutex
	itemID  string
	window  jellyfin.TimestampWindow
	fetched bool
	visible bool
}

// NewSkipWatcher creates a watcher. timeScale is the number of player
// position units per second: 1 for engines reporting seconds, 1000 for
// engines reporting milliseconds. Windows are always in seconds; the watcher
// owns the conversion.
func NewSkipWatcher(name string, fetch WindowFetcher, controls player.Controls, haptics player.Haptics, timeScale float64) *SkipWatcher {
	if timeScale <= 0 {
		timeScale = 1
	}
	if haptics == nil {
		haptics = player.NopHaptics{}
	}
	return &SkipWatcher{
		name:      name,
		fetch:     fetch,
		controls:  controls,
		haptics:   haptics,
		timeScale: timeScale,
	}
}

// Load fetches the window for the item. Responses that arrive after the
// watcher has moved on to another item are discarded.
func (w *SkipWatcher) Load(ctx context.Context, itemID string) {
	w.mu.Lock()
	w.itemID = itemID
	w.window = jellyfin.TimestampWindow{}
	w.fetched = false
	w.visible = false
	w.mu.Unlock()

	window, err := w.fetch(ctx, itemID)
	if err != nil {
		log.Warn().Err(err).Str("watcher", w.name).Str("item_id", itemID).Msg("Timestamp fetch failed; skip stays dormant")
		window = jellyfin.TimestampWindow{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.itemID != itemID {
		return
	}
	w.window = window
	w.fetched = true
}

// OnPosition updates visibility from a player position in player units.
// Visibility covers exactly the half-open interval [ShowAt, HideAt).
func (w *SkipWatcher) OnPosition(position float64) {
	seconds := position / w.timeScale

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.fetched || !w.window.Valid {
		w.visible = false
		return
	}
	w.visible = seconds >= w.window.ShowAt && seconds < w.window.HideAt
}

// Visible reports whether the skip affordance is currently armed
func (w *SkipWatcher) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Skip seeks past the window and resumes playback. Seek failures are logged
// and playback continues unaffected.
func (w *SkipWatcher) Skip(ctx context.Context) {
	w.mu.Lock()
	window := w.window
	armed := w.fetched && window.Valid
	w.mu.Unlock()

	if !armed {
		return
	}

	// Tactile feedback before the seek lands
	w.haptics.Pulse()

	target := window.End * w.timeScale
	if err := w.controls.SeekTo(target); err != nil {
		log.Warn().Err(err).Str("watcher", w.name).Float64("target", target).Msg("Skip seek failed")
		return
	}

	select {
	case <-time.After(skipSettleDelay):
	case <-ctx.Done():
		return
	}

	w.controls.Play()

	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()
}
