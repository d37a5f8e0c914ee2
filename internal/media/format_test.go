package media

import "testing"

func TestParseVideoFormat(t *testing.T) {
	tests := []struct {
		name         string
		displayTitle string
		height       int
		codec        string
		want         string
	}{
		{"resolution and codec from title", "1080p HEVC Main 10", 1080, "hevc", "1080p (HEVC)"},
		{"4k title", "4K DV HDR", 2160, "av1", "4K (AV1)"},
		{"interlaced", "576i MPEG2", 576, "mpeg2video", "576i (MPEG2VIDEO)"},
		{"fallback to height", "Main Title", 720, "h264", "720p (H.264)"},
		{"no codec", "1080p", 1080, "", "1080p"},
		{"nothing known", "", 0, "hevc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseVideoFormat(tt.displayTitle, tt.height, tt.codec)
			if got != tt.want {
				t.Errorf("ParseVideoFormat(%q, %d, %q) = %q, want %q", tt.displayTitle, tt.height, tt.codec, got, tt.want)
			}
		})
	}
}

func TestFormatBitrate(t *testing.T) {
	tests := []struct {
		bps  int64
		want string
	}{
		{0, ""},
		{-5, ""},
		{800, "800 bps"},
		{64000, "64 Kbps"},
		{8500000, "8.5 Mbps"},
	}
	for _, tt := range tests {
		if got := FormatBitrate(tt.bps); got != tt.want {
			t.Errorf("FormatBitrate(%d) = %q, want %q", tt.bps, got, tt.want)
		}
	}
}
