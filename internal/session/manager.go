package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fredrikburmester/streamcore/internal/cache"
	"github.com/fredrikburmester/streamcore/internal/database"
	"github.com/fredrikburmester/streamcore/internal/jellyfin"
	"github.com/fredrikburmester/streamcore/internal/media"
	"github.com/fredrikburmester/streamcore/internal/player"
	"github.com/fredrikburmester/streamcore/internal/selection"
)

// ServerAPI is the slice of the media server API the session consumes
type ServerAPI interface {
	PlayedClient
	Item(ctx context.Context, id string) (*jellyfin.Item, error)
	PlaybackInfo(ctx context.Context, id, userID string) (*jellyfin.PlaybackInfo, error)
	IntroTimestamps(ctx context.Context, id string) (jellyfin.TimestampWindow, error)
	CreditTimestamps(ctx context.Context, id string) (jellyfin.TimestampWindow, error)
}

// SelectionStore persists track choices per series across sessions
type SelectionStore interface {
	SaveTrackSelection(sel *database.TrackSelection) error
	GetTrackSelection(seriesID, userID string) (*database.TrackSelection, error)
}

// Config holds the session manager's fixed settings
type Config struct {
	// UserID all server calls are made for
	UserID string

	// TimeScale is the player's position units per second (1 = seconds,
	// 1000 = milliseconds)
	TimeScale float64
}

// Manager owns one playback session at a time: the active item, its media
// source, the track selection, the skip watchers, and the watch-state toggle.
type Manager struct {
	api      ServerAPI
	store    SelectionStore
	cache    cache.Cache
	controls player.Controls
	cfg      Config

	intro   *SkipWatcher
	credits *SkipWatcher
	played  *PlayedState

	mu     sync.Mutex
	item   *jellyfin.Item
	source *jellyfin.MediaSource
	sel    selection.Selection
}

// New creates a session manager. haptics may be nil.
func New(api ServerAPI, store SelectionStore, c cache.Cache, controls player.Controls, haptics player.Haptics, cfg Config) *Manager {
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1
	}
	return &Manager{
		api:      api,
		store:    store,
		cache:    c,
		controls: controls,
		cfg:      cfg,
		intro:    NewSkipWatcher("intro", api.IntroTimestamps, controls, haptics, cfg.TimeScale),
		credits:  NewSkipWatcher("credits", api.CreditTimestamps, controls, haptics, cfg.TimeScale),
		played:   NewPlayedState(api, c, cfg.UserID),
	}
}

// Start begins playback of an item. A previous item's track selection, if
// any, is carried forward onto the new source; otherwise the selection stored
// for the series is applied, and source defaults fill whatever remains
// undecided.
func (m *Manager) Start(ctx context.Context, itemID string) error {
	item, err := m.api.Item(ctx, itemID)
	if err != nil {
		return fmt.Errorf("failed to start session for %s: %w", itemID, err)
	}

	info, err := m.api.PlaybackInfo(ctx, itemID, m.cfg.UserID)
	if err != nil {
		return fmt.Errorf("failed to fetch playback info for %s: %w", itemID, err)
	}
	if len(info.MediaSources) == 0 {
		return fmt.Errorf("item %s has no media sources", itemID)
	}
	source := &info.MediaSources[0]

	m.mu.Lock()
	prevSource := m.source
	prevSel := m.sel

	var sel selection.Selection
	switch {
	case prevSource != nil:
		m.carryForward(&sel, prevSel, prevSource, source)
	case item.SeriesID != "":
		m.applyStored(&sel, item.SeriesID, source)
	}
	fillDefaults(&sel, source)

	m.item = item
	m.source = source
	m.sel = sel
	m.mu.Unlock()

	m.cache.Write(cache.ItemKey(item.ID), item)
	m.logVideoFormat(item, source)

	// Windows load off the session path; stale responses are discarded by
	// item id inside the watchers
	go m.intro.Load(ctx, itemID)
	go m.credits.Load(ctx, itemID)

	m.controls.Play()
	return nil
}

// carryForward re-ranks the previous selection against the new source
func (m *Manager) carryForward(sel *selection.Selection, prev selection.Selection, prevSource, source *jellyfin.MediaSource) {
	audio := resolveIndex(prev.Audio, prevSource.DefaultAudioStreamIndex)
	selection.Carry(sel, audio, prevSource, source.MediaStreams, jellyfin.StreamTypeAudio, false)

	subtitle := resolveIndex(prev.Subtitle, prevSource.DefaultSubtitleStreamIndex)
	selection.Carry(sel, subtitle, prevSource, source.MediaStreams, jellyfin.StreamTypeSubtitle, false)

	if prev.SecondarySubtitle.Decided() {
		secondary, _ := prev.SecondarySubtitle.Index()
		selection.Carry(sel, secondary, prevSource, source.MediaStreams, jellyfin.StreamTypeSubtitle, true)
	}
}

// applyStored applies a persisted per-series selection. Stored indices are
// absolute and apply only when the new source still carries them; explicit
// "none" is sticky regardless.
func (m *Manager) applyStored(sel *selection.Selection, seriesID string, source *jellyfin.MediaSource) {
	stored, err := m.store.GetTrackSelection(seriesID, m.cfg.UserID)
	if err != nil {
		log.Warn().Err(err).Str("series_id", seriesID).Msg("Failed to load stored track selection")
		return
	}
	if stored == nil {
		return
	}

	applyStoredIndex(&sel.Audio, stored.AudioIndex, source, jellyfin.StreamTypeAudio)
	applyStoredIndex(&sel.Subtitle, stored.SubtitleIndex, source, jellyfin.StreamTypeSubtitle)
	applyStoredIndex(&sel.SecondarySubtitle, stored.SecondarySubtitleIndex, source, jellyfin.StreamTypeSubtitle)
}

func applyStoredIndex(slot *selection.Slot, index int, source *jellyfin.MediaSource, streamType jellyfin.StreamType) {
	if index == selection.ExplicitNone {
		*slot = selection.SlotIndex(selection.ExplicitNone)
		return
	}
	if s := source.StreamByIndex(index); s != nil && s.Type == streamType {
		*slot = selection.SlotIndex(index)
	}
}

// fillDefaults resolves still-undecided slots against the source defaults
func fillDefaults(sel *selection.Selection, source *jellyfin.MediaSource) {
	if !sel.Audio.Decided() && source.DefaultAudioStreamIndex != nil {
		sel.Audio = selection.SlotIndex(*source.DefaultAudioStreamIndex)
	}
	if !sel.Subtitle.Decided() {
		if source.DefaultSubtitleStreamIndex != nil {
			sel.Subtitle = selection.SlotIndex(*source.DefaultSubtitleStreamIndex)
		} else {
			sel.Subtitle = selection.SlotIndex(selection.ExplicitNone)
		}
	}
}

// resolveIndex turns a slot into the engine's previousIndex input: a decided
// slot wins, the source default fills in, and -1 stands for explicit none
func resolveIndex(slot selection.Slot, def *int) int {
	if idx, ok := slot.Index(); ok {
		return idx
	}
	if def != nil {
		return *def
	}
	return selection.ExplicitNone
}

// Selection returns the session's current track selection
func (m *Manager) Selection() selection.Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sel
}

// SetAudio records a user track switch for the audio slot
func (m *Manager) SetAudio(index int) {
	m.mu.Lock()
	m.sel.Audio = selection.SlotIndex(index)
	m.mu.Unlock()
	m.persistSelection()
}

// SetSubtitle records a user track switch for a subtitle slot
func (m *Manager) SetSubtitle(index int, secondary bool) {
	m.mu.Lock()
	if secondary {
		m.sel.SecondarySubtitle = selection.SlotIndex(index)
	} else {
		m.sel.Subtitle = selection.SlotIndex(index)
	}
	m.mu.Unlock()
	m.persistSelection()
}

// persistSelection writes the resolved selection for the active series so it
// survives restarts
func (m *Manager) persistSelection() {
	m.mu.Lock()
	item := m.item
	source := m.source
	sel := m.sel
	m.mu.Unlock()

	if item == nil || item.SeriesID == "" || source == nil {
		return
	}

	record := &database.TrackSelection{
		SeriesID:               item.SeriesID,
		UserID:                 m.cfg.UserID,
		AudioIndex:             resolveIndex(sel.Audio, source.DefaultAudioStreamIndex),
		SubtitleIndex:          resolveIndex(sel.Subtitle, source.DefaultSubtitleStreamIndex),
		SecondarySubtitleIndex: resolveIndex(sel.SecondarySubtitle, nil),
	}
	if err := m.store.SaveTrackSelection(record); err != nil {
		log.Warn().Err(err).Str("series_id", item.SeriesID).Msg("Failed to persist track selection")
	}
}

// OnPosition feeds a player position tick (in player units) to the watchers
func (m *Manager) OnPosition(position float64) {
	m.intro.OnPosition(position)
	m.credits.OnPosition(position)
}

// IntroVisible reports whether the intro skip affordance is armed
func (m *Manager) IntroVisible() bool {
	return m.intro.Visible()
}

// CreditsVisible reports whether the credits skip affordance is armed
func (m *Manager) CreditsVisible() bool {
	return m.credits.Visible()
}

// SkipIntro seeks past the intro window
func (m *Manager) SkipIntro(ctx context.Context) {
	m.intro.Skip(ctx)
}

// SkipCredits seeks past the credits window
func (m *Manager) SkipCredits(ctx context.Context) {
	m.credits.Skip(ctx)
}

// SetPlayed toggles the active user's watched flag for an item
func (m *Manager) SetPlayed(ctx context.Context, itemID string, played bool) error {
	return m.played.SetPlayed(ctx, itemID, played)
}

// End stops playback and discards the session's derived state, persisting
// the track selection first
func (m *Manager) End() {
	m.persistSelection()
	m.controls.Stop()

	m.mu.Lock()
	m.item = nil
	m.source = nil
	m.sel = selection.Selection{}
	m.mu.Unlock()
}

func (m *Manager) logVideoFormat(item *jellyfin.Item, source *jellyfin.MediaSource) {
	for _, s := range source.MediaStreams {
		if s.Type == jellyfin.StreamTypeVideo {
			log.Info().
				Str("item", item.Name).
				Str("format", media.ParseVideoFormat(s.DisplayTitle, s.Height, s.Codec)).
				Str("bitrate", media.FormatBitrate(int64(source.Bitrate))).
				Msg("Playback started")
			return
		}
	}
	log.Info().Str("item", item.Name).Msg("Playback started")
}
