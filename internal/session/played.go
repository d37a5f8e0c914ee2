package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/fredrikburmester/streamcore/internal/cache"
	"github.com/fredrikburmester/streamcore/internal/jellyfin"
)

// PlayedClient is the slice of the server API the watch-state toggle needs
type PlayedClient interface {
	MarkPlayed(ctx context.Context, id, userID string) error
	MarkNotPlayed(ctx context.Context, id, userID string) error
}

// PlayedState toggles an item's watched flag optimistically: the cache is
// flipped before the network call and restored to the exact pre-toggle value
// when the call fails.
type PlayedState struct {
	client PlayedClient
	cache  cache.Cache
	userID string

	// Serializes read-modify-write so concurrent toggles never interleave
	// between reading the cached value and writing the optimistic one
	mu sync.Mutex
}

// NewPlayedState creates the watch-state toggle for a user
func NewPlayedState(client PlayedClient, c cache.Cache, userID string) *PlayedState {
	return &PlayedState{client: client, cache: c, userID: userID}
}

// SetPlayed marks the item played or not played. The cached item is mutated
// optimistically; on failure the previous flag is restored exactly, not
// negated, so rapid repeated toggles cannot double-flip.
func (p *PlayedState) SetPlayed(ctx context.Context, itemID string, played bool) error {
	key := cache.ItemKey(itemID)

	p.mu.Lock()
	prev, hadPrev := p.readItem(key)
	if hadPrev {
		p.writePlayed(key, prev, played)
	}
	p.mu.Unlock()

	var err error
	if played {
		err = p.client.MarkPlayed(ctx, itemID, p.userID)
	} else {
		err = p.client.MarkNotPlayed(ctx, itemID, p.userID)
	}

	if err != nil {
		if hadPrev {
			p.mu.Lock()
			p.restoreItem(key, prev)
			p.mu.Unlock()
		}
		log.Warn().Err(err).Str("item_id", itemID).Bool("played", played).Msg("Failed to update played state; reverted")
		return fmt.Errorf("failed to update played state: %w", err)
	}

	// Refresh every view that reflects watch state
	p.cache.Invalidate(cache.WatchStateGroups...)
	return nil
}

// readItem returns a snapshot copy of the cached item, if present
func (p *PlayedState) readItem(key string) (jellyfin.Item, bool) {
	v, ok := p.cache.Read(key)
	if !ok {
		return jellyfin.Item{}, false
	}
	item, ok := v.(*jellyfin.Item)
	if !ok || item == nil {
		return jellyfin.Item{}, false
	}

	snapshot := *item
	if item.UserData != nil {
		userData := *item.UserData
		snapshot.UserData = &userData
	}
	return snapshot, true
}

// writePlayed stores a copy of the item with the flag set to played
func (p *PlayedState) writePlayed(key string, snapshot jellyfin.Item, played bool) {
	updated := snapshot
	if snapshot.UserData != nil {
		userData := *snapshot.UserData
		updated.UserData = &userData
	} else {
		updated.UserData = &jellyfin.UserData{}
	}
	updated.UserData.Played = played
	p.cache.Write(key, &updated)
}

// restoreItem puts the exact pre-toggle snapshot back
func (p *PlayedState) restoreItem(key string, snapshot jellyfin.Item) {
	restored := snapshot
	if snapshot.UserData != nil {
		userData := *snapshot.UserData
		restored.UserData = &userData
	}
	p.cache.Write(key, &restored)
}
