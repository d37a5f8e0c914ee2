package database

import (
	"database/sql"
	"fmt"
	"time"
)

// TrackSelection is the persisted audio/subtitle choice for a series.
// Index -1 means the slot was explicitly disabled by the user.
type TrackSelection struct {
	SeriesID               string
	UserID                 string
	AudioIndex             int
	SubtitleIndex          int
	SecondarySubtitleIndex int
	UpdatedAt              time.Time
}

// SaveTrackSelection upserts the track selection for a series/user pair
func (db *DB) SaveTrackSelection(sel *TrackSelection) error {
	_, err := db.Exec(`
		INSERT INTO track_selections (series_id, user_id, audio_index, subtitle_index, secondary_subtitle_index, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(series_id, user_id) DO UPDATE SET
			audio_index = excluded.audio_index,
			subtitle_index = excluded.subtitle_index,
			secondary_subtitle_index = excluded.secondary_subtitle_index,
			updated_at = excluded.updated_at
	`, sel.SeriesID, sel.UserID, sel.AudioIndex, sel.SubtitleIndex, sel.SecondarySubtitleIndex, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save track selection for %s: %w", sel.SeriesID, err)
	}
	return nil
}

// GetTrackSelection returns the stored selection for a series/user pair.
// Returns nil when no selection has been stored.
func (db *DB) GetTrackSelection(seriesID, userID string) (*TrackSelection, error) {
	sel := &TrackSelection{}
	err := db.QueryRow(`
		SELECT series_id, user_id, audio_index, subtitle_index, secondary_subtitle_index, updated_at
		FROM track_selections WHERE series_id = ? AND user_id = ?
	`, seriesID, userID).Scan(&sel.SeriesID, &sel.UserID, &sel.AudioIndex, &sel.SubtitleIndex, &sel.SecondarySubtitleIndex, &sel.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track selection for %s: %w", seriesID, err)
	}
	return sel, nil
}

// PruneTrackSelections removes selections not updated since the cutoff
func (db *DB) PruneTrackSelections(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := db.Exec("DELETE FROM track_selections WHERE updated_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune track selections: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
