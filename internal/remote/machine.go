package remote

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// State is the connection lifecycle of the control channel
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Inbound commands the server can send
const (
	commandPlayPause      = "PlayPause"
	commandStop           = "Stop"
	commandDisplayMessage = "DisplayMessage"
)

// effect is a side effect requested by a state transition. Transitions stay
// pure; the channel executes the effects.
type effect int

const (
	effectStartKeepAlive effect = iota
	effectStopKeepAlive
	effectTogglePlay
	effectStopPlayback
	effectAlert
)

type command struct {
	effect effect
	header string
	body   string
}

// inboundFrame is the wire shape of server-to-client frames
type inboundFrame struct {
	MessageType string `json:"MessageType"`
	Data        struct {
		Command   string `json:"Command"`
		Name      string `json:"Name"`
		Arguments struct {
			Header string `json:"Header"`
			Text   string `json:"Text"`
		} `json:"Arguments"`
	} `json:"Data"`
}

// keepAliveFrame is the periodic heartbeat sent while the socket is open
type keepAliveFrame struct {
	MessageType string `json:"MessageType"`
}

func newKeepAliveFrame() keepAliveFrame {
	return keepAliveFrame{MessageType: "KeepAlive"}
}

// machine holds the channel's lifecycle state. Each transition returns the
// effects to execute, so no hidden closure captures stale state.
type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateConnecting}
}

func (m *machine) onOpen() []command {
	if m.state != StateConnecting {
		return nil
	}
	m.state = StateOpen
	return []command{{effect: effectStartKeepAlive}}
}

// onMessage parses an inbound frame and maps it to playback effects. A
// malformed frame is dropped without closing the channel.
func (m *machine) onMessage(data []byte) []command {
	if m.state != StateOpen {
		return nil
	}

	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		log.Debug().Err(err).Msg("Dropping malformed control frame")
		return nil
	}

	switch {
	case frame.Data.Command == commandPlayPause:
		return []command{{effect: effectTogglePlay}}
	case frame.Data.Command == commandStop:
		return []command{{effect: effectStopPlayback}}
	case frame.Data.Name == commandDisplayMessage:
		return []command{{
			effect: effectAlert,
			header: frame.Data.Arguments.Header,
			body:   frame.Data.Arguments.Text,
		}}
	}
	return nil
}

func (m *machine) onError(err error) []command {
	if m.state == StateClosed {
		return nil
	}
	log.Warn().Err(err).Msg("Control channel error")
	m.state = StateClosed
	return []command{{effect: effectStopKeepAlive}}
}

func (m *machine) onClose() []command {
	if m.state == StateClosed {
		return nil
	}
	m.state = StateClosed
	return []command{{effect: effectStopKeepAlive}}
}
