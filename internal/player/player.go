// Package player defines the playback control surface the core depends on.
// A concrete playback engine sits behind these interfaces; the core never
// assumes a specific one.
package player

import "github.com/rs/zerolog/log"

// Controls is the abstract playback surface shared by on-screen controls and
// remote commands. Position is reported in seconds unless stated otherwise by
// the engine, in which case the session coordinator normalizes it.
type Controls interface {
	Play()
	Pause()
	Stop()
	SeekTo(seconds float64) error
	Position() float64
	IsPlaying() bool
}

// Navigator abstracts the screen stack a Stop command may pop
type Navigator interface {
	CanGoBack() bool
	GoBack()
}

// Notifier surfaces fire-and-forget user-facing alerts
type Notifier interface {
	Alert(header, body string)
}

// Haptics fires tactile feedback pulses
type Haptics interface {
	Pulse()
}

// NopHaptics is used where no haptic engine is available
type NopHaptics struct{}

func (NopHaptics) Pulse() {}

// LogNotifier writes alerts to the log, the headless agent's default
type LogNotifier struct{}

func (LogNotifier) Alert(header, body string) {
	log.Info().Str("header", header).Str("body", body).Msg("Server message")
}
