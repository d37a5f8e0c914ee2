// Package selection carries audio/subtitle track choices forward between
// media sources. When the next episode of a series starts, the engine finds
// the candidate stream that best matches what the user picked last time.
package selection

import (
	"github.com/fredrikburmester/streamcore/internal/jellyfin"
)

// ExplicitNone marks a slot the user deliberately disabled. "No stream"
// carries forward as "no stream" and never silently falls back to a default.
const ExplicitNone = -1

// Match weights and the minimum score a candidate needs to win. Intentionally
// imprecise: an ordinal-position match alone never qualifies.
const (
	scoreCodec        = 1
	scoreOrdinal      = 1
	scoreDisplayTitle = 2
	scoreLanguage     = 2
	matchThreshold    = 3
)

// Slot holds one track choice: undecided, explicitly none, or a stream index
// within the active media source. The zero value is undecided.
type Slot struct {
	set   bool
	index int
}

// SlotIndex returns a decided slot pointing at the given stream index
func SlotIndex(index int) Slot {
	return Slot{set: true, index: index}
}

// Decided reports whether the slot has been decided at all
func (s Slot) Decided() bool {
	return s.set
}

// None reports whether the slot was explicitly disabled
func (s Slot) None() bool {
	return s.set && s.index == ExplicitNone
}

// Index returns the selected stream index; ok is false while undecided
func (s Slot) Index() (int, bool) {
	return s.index, s.set
}

// Selection is the per-type output of the engine, owned by the playback
// session and discarded when the session ends.
type Selection struct {
	Audio             Slot
	Subtitle          Slot
	SecondarySubtitle Slot
}

func (sel *Selection) slot(streamType jellyfin.StreamType, secondary bool) *Slot {
	switch streamType {
	case jellyfin.StreamTypeAudio:
		return &sel.Audio
	case jellyfin.StreamTypeSubtitle:
		if secondary {
			return &sel.SecondarySubtitle
		}
		return &sel.Subtitle
	}
	return nil
}

// Carry computes the best-matching stream index for a new source given the
// previous choice, and writes it into the corresponding slot. All degenerate
// inputs leave the slot undecided so the caller falls back to source defaults;
// nothing here errors.
func Carry(sel *Selection, prevIndex int, prevSource *jellyfin.MediaSource, candidates []jellyfin.MediaStream, streamType jellyfin.StreamType, secondary bool) {
	slot := sel.slot(streamType, secondary)
	if slot == nil {
		return
	}

	// Explicit "none" is sticky regardless of what the new source offers
	if prevIndex == ExplicitNone {
		*slot = SlotIndex(ExplicitNone)
		return
	}

	// Degraded data, not an error
	if prevSource == nil || len(prevSource.MediaStreams) == 0 || len(candidates) == 0 {
		return
	}

	prev := prevSource.StreamByIndex(prevIndex)
	if prev == nil || prev.Type != streamType {
		return
	}

	prevRelative := relativeIndex(prevSource.MediaStreams, prevIndex, streamType)
	if prevRelative < 0 {
		return
	}

	bestScore := 0
	bestIndex := 0
	found := false
	relative := 0

	for _, cand := range candidates {
		if cand.Type != streamType {
			continue
		}

		score := 0
		if cand.Codec == prev.Codec {
			score += scoreCodec
		}
		if relative == prevRelative {
			score += scoreOrdinal
		}
		if prev.DisplayTitle != "" && cand.DisplayTitle != "" && prev.DisplayTitle == cand.DisplayTitle {
			score += scoreDisplayTitle
		}
		if languagesMatch(prev.Language, cand.Language) {
			score += scoreLanguage
		}

		// Strictly greater keeps the first of equal-scoring candidates
		if !found || score > bestScore {
			found = true
			bestScore = score
			bestIndex = cand.Index
		}
		relative++
	}

	if found && bestScore >= matchThreshold {
		*slot = SlotIndex(bestIndex)
	}
}

// relativeIndex returns the 0-based ordinal of the stream with the given
// absolute index among same-type streams, or -1 when not present
func relativeIndex(streams []jellyfin.MediaStream, index int, streamType jellyfin.StreamType) int {
	ordinal := 0
	for _, s := range streams {
		if s.Type != streamType {
			continue
		}
		if s.Index == index {
			return ordinal
		}
		ordinal++
	}
	return -1
}

func languagesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == jellyfin.LanguageUndetermined || b == jellyfin.LanguageUndetermined {
		return false
	}
	return a == b
}
