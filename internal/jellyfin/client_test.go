package jellyfin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientSendsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"Id":"abc","Name":"Movie"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token")
	item, err := c.Item(context.Background(), "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "abc" || item.Name != "Movie" {
		t.Fatalf("unexpected item: %+v", item)
	}

	want := `MediaBrowser Token="secret-token"`
	if gotAuth != want {
		t.Fatalf("auth header = %q, want %q", gotAuth, want)
	}
}

func TestIntroTimestampsMissingYieldsInvalidWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	window, err := c.IntroTimestamps(context.Background(), "ep1")
	if err != nil {
		t.Fatalf("missing intro data must not surface an error, got %v", err)
	}
	if window.Valid {
		t.Fatal("expected invalid window when the server has no intro data")
	}
}

func TestIntroTimestampsDecodesWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Episode/ep1/IntroTimestamps" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"IntroStart":10,"IntroEnd":95.5,"ShowSkipPromptAt":10,"HideSkipPromptAt":30,"Valid":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	window, err := c.IntroTimestamps(context.Background(), "ep1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.Valid || window.ShowAt != 10 || window.HideAt != 30 || window.End != 95.5 {
		t.Fatalf("unexpected window: %+v", window)
	}
}

func TestCreditTimestampsPromptSpansCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Credits":{"Start":2500,"End":2600,"Valid":true}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	window, err := c.CreditTimestamps(context.Background(), "ep1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if window.ShowAt != 2500 || window.HideAt != 2600 {
		t.Fatalf("prompt window must cover the credits interval, got %+v", window)
	}
}

func TestMarkPlayedUsesPostAndDelete(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	if err := c.MarkPlayed(context.Background(), "ep1", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.MarkNotPlayed(context.Background(), "ep1", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(methods) != 2 || methods[0] != "POST /Users/u1/PlayedItems/ep1" || methods[1] != "DELETE /Users/u1/PlayedItems/ep1" {
		t.Fatalf("unexpected calls: %v", methods)
	}
}

func TestMarkPlayedSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "token")
	if err := c.MarkPlayed(context.Background(), "ep1", "u1"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestSocketURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{"http becomes ws", "http://media.local:8096", "ws://media.local:8096/socket?api_key=tok&deviceId=dev1"},
		{"https becomes wss", "https://media.example.com", "wss://media.example.com/socket?api_key=tok&deviceId=dev1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.baseURL, "tok")
			got, err := c.SocketURL("dev1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("SocketURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTestConnectionInvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "bad")
	err := c.TestConnection(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid API key") {
		t.Fatalf("expected invalid API key error, got %v", err)
	}
}

func TestTrailingSlashTrimmed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "//") {
			t.Errorf("double slash in path %s", r.URL.Path)
		}
		w.Write([]byte(`{"Id":"x"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "token")
	if _, err := c.Item(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
