package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuelReschke/PaymentBot/internal/pkg/chat"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// APIError is a Bot API response with ok=false
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed: code=%d description=%s", e.Method, e.Code, e.Description)
}

// Client talks to the Bot API
type Client struct {
	Token      string
	APIBaseURL string
	HTTPClient *http.Client

	now func() time.Time
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// NewClient creates a Bot API client for token
func NewClient(token, apiBaseURL string) *Client {
	if strings.TrimSpace(apiBaseURL) == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	return &Client{
		Token:      strings.TrimSpace(token),
		APIBaseURL: strings.TrimRight(apiBaseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

// GetMe returns the bot account
func (c *Client) GetMe(ctx context.Context) (*chat.User, error) {
	var u chat.User
	if err := c.call(ctx, "getMe", map[string]any{}, &u); err != nil {
		return nil, err
	}
	u.IsSelf = true
	return &u, nil
}

// ResolveBotID returns configured, or the id of the bot account when configured is zero
func (c *Client) ResolveBotID(ctx context.Context, configured int64) (int64, error) {
	if configured != 0 {
		return configured, nil
	}
	me, err := c.GetMe(ctx)
	if err != nil {
		return 0, err
	}
	return me.ID, nil
}

// Kick bans u from chat c for d. Bans shorter than 30 seconds are permanent on the
// platform side, callers pass the ban duration they want the user locked out.
func (c *Client) Kick(ctx context.Context, ch chat.Chat, u chat.User, d time.Duration) error {
	return c.call(ctx, "banChatMember", map[string]any{
		"chat_id":    ch.ID,
		"user_id":    u.ID,
		"until_date": c.now().Add(d).Unix(),
	}, nil)
}

// Unban lifts a ban so that the user may join again with an invite link
func (c *Client) Unban(ctx context.Context, ch chat.Chat, u chat.User) error {
	return c.call(ctx, "unbanChatMember", map[string]any{
		"chat_id":        ch.ID,
		"user_id":        u.ID,
		"only_if_banned": true,
	}, nil)
}

// SendMessage sends a private text message
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

// GetChatMember asks the platform for the current status of u in chat c
func (c *Client) GetChatMember(ctx context.Context, ch chat.Chat, userID int64) (*chat.Member, error) {
	var raw ChatMember
	err := c.call(ctx, "getChatMember", map[string]any{
		"chat_id": ch.ID,
		"user_id": userID,
	}, &raw)
	if err != nil {
		return nil, err
	}
	m := raw.Member()
	return &m, nil
}

func (c *Client) call(ctx context.Context, method string, params map[string]any, out any) error {
	if c.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not configured")
	}

	payload, err := json.Marshal(params)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.APIBaseURL, c.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// the url carries the token, never surface it
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("telegram %s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	var res apiResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("telegram %s: invalid response status=%d: %w", method, resp.StatusCode, err)
	}
	if !res.OK {
		return &APIError{Method: method, Code: res.ErrorCode, Description: res.Description}
	}
	if out != nil && len(res.Result) > 0 {
		if err := json.Unmarshal(res.Result, out); err != nil {
			return fmt.Errorf("telegram %s: invalid result: %w", method, err)
		}
	}
	return nil
}
