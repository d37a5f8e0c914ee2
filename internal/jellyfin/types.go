// Package jellyfin implements an HTTP client for Jellyfin-compatible media
// servers (Jellyfin, Emby). The server is treated as an opaque external
// system accessed only through its documented HTTP/WebSocket contract.
package jellyfin

// StreamType identifies the kind of a media stream
type StreamType string

const (
	StreamTypeVideo    StreamType = "Video"
	StreamTypeAudio    StreamType = "Audio"
	StreamTypeSubtitle StreamType = "Subtitle"
)

// LanguageUndetermined is the ISO 639-2 code servers report when a stream's
// language is unknown. It never participates in language matching.
const LanguageUndetermined = "und"

// MediaStream is one decodable track within a media source
type MediaStream struct {
	Index        int        `json:"Index"`
	Type         StreamType `json:"Type"`
	Codec        string     `json:"Codec"`
	Language     string     `json:"Language"`
	DisplayTitle string     `json:"DisplayTitle"`
	IsDefault    bool       `json:"IsDefault"`
	IsForced     bool       `json:"IsForced"`
	IsExternal   bool       `json:"IsExternal"`
	Height       int        `json:"Height,omitempty"`
	Channels     int        `json:"Channels,omitempty"`
	BitRate      int        `json:"BitRate,omitempty"`
}

// MediaSource is one playable representation of an item. Stream order defines
// relative position per type.
type MediaSource struct {
	ID                         string        `json:"Id"`
	Container                  string        `json:"Container"`
	Size                       int64         `json:"Size"`
	Bitrate                    int           `json:"Bitrate"`
	MediaStreams               []MediaStream `json:"MediaStreams"`
	DefaultAudioStreamIndex    *int          `json:"DefaultAudioStreamIndex"`
	DefaultSubtitleStreamIndex *int          `json:"DefaultSubtitleStreamIndex"`
}

// StreamsOfType returns the source's streams of the given type in order
func (s *MediaSource) StreamsOfType(t StreamType) []MediaStream {
	var out []MediaStream
	for _, ms := range s.MediaStreams {
		if ms.Type == t {
			out = append(out, ms)
		}
	}
	return out
}

// StreamByIndex returns the stream with the given absolute index, or nil
func (s *MediaSource) StreamByIndex(index int) *MediaStream {
	for i := range s.MediaStreams {
		if s.MediaStreams[i].Index == index {
			return &s.MediaStreams[i]
		}
	}
	return nil
}

// UserData holds the per-user watch state of an item
type UserData struct {
	Played                bool    `json:"Played"`
	PlaybackPositionTicks int64   `json:"PlaybackPositionTicks"`
	PlayedPercentage      float64 `json:"PlayedPercentage"`
	IsFavorite            bool    `json:"IsFavorite"`
}

// Item is a media item (movie, episode, series) as reported by the server
type Item struct {
	ID           string    `json:"Id"`
	Name         string    `json:"Name"`
	Type         string    `json:"Type"`
	SeriesID     string    `json:"SeriesId,omitempty"`
	SeriesName   string    `json:"SeriesName,omitempty"`
	SeasonID     string    `json:"SeasonId,omitempty"`
	IndexNumber  int       `json:"IndexNumber,omitempty"`
	ParentIndex  int       `json:"ParentIndexNumber,omitempty"`
	RunTimeTicks int64     `json:"RunTimeTicks,omitempty"`
	UserData     *UserData `json:"UserData,omitempty"`
}

// PlaybackInfo is the server's answer to a playback-info request
type PlaybackInfo struct {
	MediaSources  []MediaSource `json:"MediaSources"`
	PlaySessionID string        `json:"PlaySessionId"`
}

// TimestampWindow is the server-declared bounds of a skippable segment
// (intro or credits), in seconds. Valid=false means the server has no data
// for the item and no skip affordance may be armed.
type TimestampWindow struct {
	Start  float64
	End    float64
	ShowAt float64
	HideAt float64
	Valid  bool
}

// ItemsPage is a paged item listing from /Items
type ItemsPage struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

// View is a top-level user library view
type View struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	CollectionType string `json:"CollectionType"`
}
