// Package crcon is the HTTP client for the game server's community RCON API.
//
// All calls share one resty client (bearer auth, timeout) and pass through a
// token bucket limiter. The client is owned by a single caller and released
// with Close.
package crcon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/albapepper/rollcall/internal/notifications"
)

const (
	gameStatePath     = "/api/get_gamestate"
	detailedPlayers   = "/api/get_detailed_players"
	messagePlayerPath = "/api/message_player"
)

var (
	// ErrTransport marks a failed request: network error or non-2xx status.
	ErrTransport = errors.New("crcon transport error")
	// ErrBadResponse marks a 2xx response whose body is unusable.
	ErrBadResponse = errors.New("crcon bad response")
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("crcon client closed")
)

// Client talks to one game server.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewClient creates a client. requestsPerMinute <= 0 disables rate limiting.
func NewClient(baseURL, token string, requestsPerMinute int, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Limit(float64(requestsPerMinute) / 60.0)
		burst = max(1, requestsPerMinute/6)
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(token).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "rollcall").
		SetLogger(restyLogger{logger})

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Close releases pooled connections. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.http.GetClient().CloseIdleConnections()
	})
	return nil
}

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

type envelope struct {
	Result json.RawMessage `json:"result"`
	Failed bool            `json:"failed"`
	Error  *string         `json:"error"`
}

type gameState struct {
	RawTimeRemaining string `json:"raw_time_remaining"`
}

type detailedPlayersResult struct {
	Players map[string]rawPlayer `json:"players"`
}

type rawPlayer struct {
	PlayerID json.RawMessage `json:"player_id"`
	Name     string          `json:"name"`
	Role     string          `json:"role"`
}

type messageRequest struct {
	PlayerName string `json:"player_name"`
	PlayerID   string `json:"player_id"`
	Message    string `json:"message"`
}

// --------------------------------------------------------------------------
// Calls
// --------------------------------------------------------------------------

// GameState returns the raw remaining-time reading of the current session.
func (c *Client) GameState(ctx context.Context) (string, error) {
	env, err := c.do(ctx, resty.MethodGet, gameStatePath, nil)
	if err != nil {
		return "", err
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return "", fmt.Errorf("%w: no 'result' key in gamestate", ErrBadResponse)
	}
	var gs gameState
	if err := json.Unmarshal(env.Result, &gs); err != nil {
		return "", fmt.Errorf("%w: decode gamestate: %v", ErrBadResponse, err)
	}
	return gs.RawTimeRemaining, nil
}

// CurrentClock implements notifications.GameStateSource. Failures are
// logged and reported as an absent reading.
func (c *Client) CurrentClock(ctx context.Context) (string, bool) {
	raw, err := c.GameState(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("Error fetching gamestate", "error", err)
		}
		return "", false
	}
	return raw, raw != ""
}

// CurrentRoster implements notifications.PlayerDirectory.
func (c *Client) CurrentRoster(ctx context.Context) ([]notifications.Player, error) {
	env, err := c.do(ctx, resty.MethodGet, detailedPlayers, nil)
	if err != nil {
		return nil, err
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return nil, fmt.Errorf("%w: no 'result' key in player list", ErrBadResponse)
	}
	var res detailedPlayersResult
	if err := json.Unmarshal(env.Result, &res); err != nil {
		return nil, fmt.Errorf("%w: decode players: %v", ErrBadResponse, err)
	}

	players := make([]notifications.Player, 0, len(res.Players))
	for _, p := range res.Players {
		players = append(players, notifications.Player{
			ID:   playerID(p.PlayerID),
			Name: p.Name,
			Role: p.Role,
		})
	}
	return players, nil
}

// Send implements notifications.Notifier.
func (c *Client) Send(ctx context.Context, playerID, playerName, message string) error {
	body := messageRequest{PlayerName: playerName, PlayerID: playerID, Message: message}
	env, err := c.do(ctx, resty.MethodPost, messagePlayerPath, body)
	if err != nil {
		return fmt.Errorf("message %s: %w", playerName, err)
	}
	if env.Failed {
		reason := "unknown error"
		if env.Error != nil && *env.Error != "" {
			reason = *env.Error
		}
		return fmt.Errorf("message %s: %w: %s", playerName, ErrBadResponse, reason)
	}
	return nil
}

// do performs a rate-limited request and decodes the response envelope.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s %s returned %d: %s",
			ErrTransport, method, path, resp.StatusCode(), truncate(resp.Body(), 200))
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrBadResponse, path, err)
	}
	return &env, nil
}

// playerID accepts ids sent as JSON strings or numbers.
func playerID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

// restyLogger routes resty's internal messages to slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "resty")
}
