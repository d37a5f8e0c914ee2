package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeControls struct {
	mu      sync.Mutex
	playing bool
	plays   int
	pauses  int
	stops   int
}

func (f *fakeControls) Play() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = true
	f.plays++
}

func (f *fakeControls) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.pauses++
}

func (f *fakeControls) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.stops++
}

func (f *fakeControls) SeekTo(float64) error { return nil }

func (f *fakeControls) Position() float64 { return 0 }

func (f *fakeControls) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeControls) counts() (plays, pauses, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays, f.pauses, f.stops
}

type fakeNav struct {
	mu    sync.Mutex
	depth int
}

func (n *fakeNav) CanGoBack() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.depth > 0
}

func (n *fakeNav) GoBack() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.depth--
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *fakeNotifier) Alert(header, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, header+": "+body)
}

// wsServer is a minimal control-socket endpoint that records inbound frames
// and can push frames to the client
type wsServer struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	inbound  []string
	connHere chan struct{}
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{connHere: make(chan struct{})}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		close(s.connHere)

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.inbound = append(s.inbound, string(data))
			s.mu.Unlock()
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) push(t *testing.T, frame any) {
	t.Helper()
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func (s *wsServer) keepAlives() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.inbound {
		if strings.Contains(f, "KeepAlive") {
			n++
		}
	}
	return n
}

func dialTest(t *testing.T, s *wsServer, interval time.Duration, controls *fakeControls, nav *fakeNav, notifier *fakeNotifier) *Channel {
	t.Helper()
	ch, err := Dial(context.Background(), Config{URL: s.url(), KeepAliveInterval: interval}, controls, nav, notifier)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	<-s.connHere
	return ch
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestChannel_KeepAliveWhileOpenOnly(t *testing.T) {
	s := newWSServer(t)
	controls := &fakeControls{}
	ch := dialTest(t, s, 30*time.Millisecond, controls, &fakeNav{}, &fakeNotifier{})

	if !ch.Connected() {
		t.Fatal("channel should be open after dial")
	}

	waitFor(t, time.Second, func() bool { return s.keepAlives() >= 2 })

	ch.Close()
	if ch.State() != StateClosed {
		t.Fatalf("expected closed state, got %s", ch.State())
	}

	after := s.keepAlives()
	time.Sleep(100 * time.Millisecond)
	if got := s.keepAlives(); got != after {
		t.Fatalf("keep-alives sent after close: %d -> %d", after, got)
	}
}

func TestChannel_PlayPauseTogglesOnLocalState(t *testing.T) {
	s := newWSServer(t)
	controls := &fakeControls{playing: true}
	ch := dialTest(t, s, time.Minute, controls, &fakeNav{}, &fakeNotifier{})
	defer ch.Close()

	s.push(t, map[string]any{"Data": map[string]any{"Command": "PlayPause"}})
	waitFor(t, time.Second, func() bool {
		_, pauses, _ := controls.counts()
		return pauses == 1
	})

	// Now paused locally; a second PlayPause must resume
	s.push(t, map[string]any{"Data": map[string]any{"Command": "PlayPause"}})
	waitFor(t, time.Second, func() bool {
		plays, _, _ := controls.counts()
		return plays == 1
	})
}

func TestChannel_StopNavigatesBackWhenPossible(t *testing.T) {
	s := newWSServer(t)
	controls := &fakeControls{playing: true}
	nav := &fakeNav{depth: 1}
	ch := dialTest(t, s, time.Minute, controls, nav, &fakeNotifier{})
	defer ch.Close()

	s.push(t, map[string]any{"Data": map[string]any{"Command": "Stop"}})
	waitFor(t, time.Second, func() bool {
		_, _, stops := controls.counts()
		return stops == 1
	})

	nav.mu.Lock()
	depth := nav.depth
	nav.mu.Unlock()
	if depth != 0 {
		t.Fatalf("expected back navigation, depth=%d", depth)
	}

	// A second Stop with nothing to pop is a no-op, not an error
	s.push(t, map[string]any{"Data": map[string]any{"Command": "Stop"}})
	waitFor(t, time.Second, func() bool {
		_, _, stops := controls.counts()
		return stops == 2
	})
	nav.mu.Lock()
	depth = nav.depth
	nav.mu.Unlock()
	if depth != 0 {
		t.Fatalf("stop without a back destination must not navigate, depth=%d", depth)
	}
}

func TestChannel_DisplayMessageAlerts(t *testing.T) {
	s := newWSServer(t)
	notifier := &fakeNotifier{}
	ch := dialTest(t, s, time.Minute, &fakeControls{}, &fakeNav{}, notifier)
	defer ch.Close()

	s.push(t, map[string]any{"Data": map[string]any{
		"Name":      "DisplayMessage",
		"Arguments": map[string]any{"Header": "Admin", "Text": "Maintenance at noon"},
	}})

	waitFor(t, time.Second, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return len(notifier.alerts) == 1
	})

	notifier.mu.Lock()
	alert := notifier.alerts[0]
	notifier.mu.Unlock()
	if alert != "Admin: Maintenance at noon" {
		t.Fatalf("unexpected alert %q", alert)
	}
}

func TestChannel_MalformedFrameKeepsChannelOpen(t *testing.T) {
	s := newWSServer(t)
	controls := &fakeControls{}
	ch := dialTest(t, s, time.Minute, controls, &fakeNav{}, &fakeNotifier{})
	defer ch.Close()

	s.mu.Lock()
	err := s.conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	s.mu.Unlock()
	if err != nil {
		t.Fatalf("server write: %v", err)
	}

	// A valid command after the bad frame still dispatches
	s.push(t, map[string]any{"Data": map[string]any{"Command": "PlayPause"}})
	waitFor(t, time.Second, func() bool {
		plays, _, _ := controls.counts()
		return plays == 1
	})

	if !ch.Connected() {
		t.Fatal("channel closed after a malformed frame")
	}
}

func TestChannel_ServerDisconnectSurfacesAsState(t *testing.T) {
	s := newWSServer(t)
	ch := dialTest(t, s, time.Minute, &fakeControls{}, &fakeNav{}, &fakeNotifier{})

	s.mu.Lock()
	s.conn.Close()
	s.mu.Unlock()

	waitFor(t, time.Second, func() bool { return ch.State() == StateClosed })

	// Close after a failure is benign
	ch.Close()
}
