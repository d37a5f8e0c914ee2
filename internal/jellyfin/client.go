package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fredrikburmester/streamcore/internal/config"
)

// Client talks to a Jellyfin-compatible media server over HTTP
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client for the server at baseURL authenticated with token
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: config.GetTimeouts().HTTPClient,
		},
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("MediaBrowser Token=\"%s\"", c.token))
	req.Header.Set("Accept", "application/json")
}

// get performs a GET request and decodes the JSON response into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// post performs a POST or DELETE without a body, expecting 200 or 204
func (c *Client) send(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Item fetches a media item by id
func (c *Client) Item(ctx context.Context, id string) (*Item, error) {
	var item Item
	if err := c.get(ctx, "/Items/"+id, nil, &item); err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", id, err)
	}
	return &item, nil
}

// PlaybackInfo fetches the playable media sources for an item
func (c *Client) PlaybackInfo(ctx context.Context, id, userID string) (*PlaybackInfo, error) {
	q := url.Values{}
	q.Set("UserId", userID)

	var info PlaybackInfo
	if err := c.get(ctx, "/Items/"+id+"/PlaybackInfo", q, &info); err != nil {
		return nil, fmt.Errorf("failed to fetch playback info for %s: %w", id, err)
	}
	return &info, nil
}

// MarkPlayed flags an item as watched for the user
func (c *Client) MarkPlayed(ctx context.Context, id, userID string) error {
	return c.send(ctx, "POST", "/Users/"+userID+"/PlayedItems/"+id)
}

// MarkNotPlayed clears an item's watched flag for the user
func (c *Client) MarkNotPlayed(ctx context.Context, id, userID string) error {
	return c.send(ctx, "DELETE", "/Users/"+userID+"/PlayedItems/"+id)
}

// introResponse is the wire shape of the intro-skipper plugin endpoint
type introResponse struct {
	IntroStart       float64 `json:"IntroStart"`
	IntroEnd         float64 `json:"IntroEnd"`
	ShowSkipPromptAt float64 `json:"ShowSkipPromptAt"`
	HideSkipPromptAt float64 `json:"HideSkipPromptAt"`
	Valid            bool    `json:"Valid"`
}

// creditsResponse is the wire shape of the credits timestamp endpoint
type creditsResponse struct {
	Credits struct {
		Start float64 `json:"Start"`
		End   float64 `json:"End"`
		Valid bool    `json:"Valid"`
	} `json:"Credits"`
}

// IntroTimestamps fetches the intro window for an episode. A server without
// intro data for the item (any non-200 response) yields an invalid window and
// a nil error; the skip affordance simply stays dormant.
func (c *Client) IntroTimestamps(ctx context.Context, id string) (TimestampWindow, error) {
	var resp introResponse
	if err := c.get(ctx, "/Episode/"+id+"/IntroTimestamps", nil, &resp); err != nil {
		log.Debug().Err(err).Str("item_id", id).Msg("No intro timestamps available")
		return TimestampWindow{}, nil
	}
	return TimestampWindow{
		Start:  resp.IntroStart,
		End:    resp.IntroEnd,
		ShowAt: resp.ShowSkipPromptAt,
		HideAt: resp.HideSkipPromptAt,
		Valid:  resp.Valid,
	}, nil
}

// CreditTimestamps fetches the credits window for an episode. The prompt is
// shown for the whole credits interval, so show/hide equal start/end.
func (c *Client) CreditTimestamps(ctx context.Context, id string) (TimestampWindow, error) {
	var resp creditsResponse
	if err := c.get(ctx, "/Episode/"+id+"/Timestamps", nil, &resp); err != nil {
		log.Debug().Err(err).Str("item_id", id).Msg("No credit timestamps available")
		return TimestampWindow{}, nil
	}
	return TimestampWindow{
		Start:  resp.Credits.Start,
		End:    resp.Credits.End,
		ShowAt: resp.Credits.Start,
		HideAt: resp.Credits.End,
		Valid:  resp.Credits.Valid,
	}, nil
}

// Search queries the server's item index for the given term
func (c *Client) Search(ctx context.Context, term string, limit int) ([]Item, error) {
	q := url.Values{}
	q.Set("searchTerm", term)
	q.Set("Recursive", "true")
	q.Set("IncludeItemTypes", "Movie,Series,Episode")
	q.Set("EnableTotalRecordCount", "false")
	q.Set("Limit", fmt.Sprintf("%d", limit))

	var page ItemsPage
	if err := c.get(ctx, "/Items", q, &page); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return page.Items, nil
}

// UserViews returns the user's top-level library views
func (c *Client) UserViews(ctx context.Context, userID string) ([]View, error) {
	q := url.Values{}
	q.Set("userId", userID)

	var page struct {
		Items []View `json:"Items"`
	}
	if err := c.get(ctx, "/UserViews", q, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch user views: %w", err)
	}
	return page.Items, nil
}

// TestConnection verifies the connection and credentials
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/System/Info", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("invalid API key")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

// SocketURL builds the remote-control WebSocket URL for this server
func (c *Client) SocketURL(deviceID string) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	default:
		parsed.Scheme = "ws"
	}

	parsed.Path = "/socket"

	q := url.Values{}
	q.Set("api_key", c.token)
	q.Set("deviceId", deviceID)
	parsed.RawQuery = q.Encode()

	return parsed.String(), nil
}
