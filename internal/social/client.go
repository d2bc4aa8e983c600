package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/oauth1"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL     = "https://api.twitter.com"
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 3
	defaultRetryDelay  = 200 * time.Millisecond

	pathVerifyCredentials = "/1.1/account/verify_credentials.json"
	pathListMessages      = "/1.1/direct_messages/events/list.json"
	pathFollowers         = "/1.1/followers/list.json"
	pathSendMessage       = "/1.1/direct_messages/events/new.json"
)

// ErrMissingCredentials is returned by NewClient when any OAuth1 value is empty.
var ErrMissingCredentials = errors.New("social: consumer key/secret and access token/secret are required")

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("social: unexpected status=%d body=%s", e.StatusCode, e.Body)
}

// Config holds API credentials and transport tuning.
type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
	Timeout        time.Duration
	MaxAttempts    int
	// RetryDelay is the first backoff interval between attempts.
	RetryDelay time.Duration

	Logger *zerolog.Logger
}

func (c *Config) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}

// Client calls the direct-message API with OAuth1-signed requests.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
	log  *zerolog.Logger
}

// DirectMessage is one received direct message.
type DirectMessage struct {
	ID   string
	Text string
}

// Follower is one account following the authenticated user.
type Follower struct {
	ScreenName string
	Name       string
}

// Account is the authenticated user.
type Account struct {
	ID         string
	ScreenName string
	Name       string
}

// NewClient validates cfg and builds a signing HTTP client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" || cfg.AccessToken == "" || cfg.AccessSecret == "" {
		return nil, ErrMissingCredentials
	}
	cfg.fillDefaults()

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("social: parse base url: %w", err)
	}

	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	httpClient := oauthCfg.Client(context.Background(), oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret))
	httpClient.Timeout = cfg.Timeout

	return &Client{cfg: cfg, base: base, http: httpClient, log: cfg.Logger}, nil
}

// VerifyCredentials returns the account the credentials belong to.
func (c *Client) VerifyCredentials(ctx context.Context) (Account, error) {
	var resp struct {
		ID         string `json:"id_str"`
		ScreenName string `json:"screen_name"`
		Name       string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, pathVerifyCredentials, nil, &resp); err != nil {
		return Account{}, err
	}
	return Account{ID: resp.ID, ScreenName: resp.ScreenName, Name: resp.Name}, nil
}

// ListDirectMessages returns recent direct messages as id and text pairs.
func (c *Client) ListDirectMessages(ctx context.Context) ([]DirectMessage, error) {
	var resp struct {
		Events []struct {
			ID            string `json:"id"`
			MessageCreate struct {
				MessageData struct {
					Text string `json:"text"`
				} `json:"message_data"`
			} `json:"message_create"`
		} `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, pathListMessages, nil, &resp); err != nil {
		return nil, err
	}

	messages := make([]DirectMessage, 0, len(resp.Events))
	for _, e := range resp.Events {
		messages = append(messages, DirectMessage{ID: e.ID, Text: e.MessageCreate.MessageData.Text})
	}
	return messages, nil
}

// ListFollowers returns the screen name and display name of each follower.
func (c *Client) ListFollowers(ctx context.Context) ([]Follower, error) {
	var resp struct {
		Users []struct {
			ScreenName string `json:"screen_name"`
			Name       string `json:"name"`
		} `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, pathFollowers, nil, &resp); err != nil {
		return nil, err
	}

	followers := make([]Follower, 0, len(resp.Users))
	for _, u := range resp.Users {
		followers = append(followers, Follower{ScreenName: u.ScreenName, Name: u.Name})
	}
	return followers, nil
}

type sendRequest struct {
	Event sendEvent `json:"event"`
}

type sendEvent struct {
	Type          string        `json:"type"`
	MessageCreate messageCreate `json:"message_create"`
}

type messageCreate struct {
	Target struct {
		RecipientID string `json:"recipient_id"`
	} `json:"target"`
	MessageData struct {
		Text string `json:"text"`
	} `json:"message_data"`
}

// SendDirectMessage sends text to the account with recipientID and returns the new event id.
func (c *Client) SendDirectMessage(ctx context.Context, recipientID, text string) (string, error) {
	if recipientID == "" || text == "" {
		return "", fmt.Errorf("social: recipient and text are required")
	}

	req := sendRequest{Event: sendEvent{Type: "message_create"}}
	req.Event.MessageCreate.Target.RecipientID = recipientID
	req.Event.MessageCreate.MessageData.Text = text

	var resp struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
	}
	if err := c.do(ctx, http.MethodPost, pathSendMessage, req, &resp); err != nil {
		return "", err
	}
	return resp.Event.ID, nil
}

// do sends one API call, retrying transport errors and 5xx responses.
func (c *Client) do(ctx context.Context, method, path string, reqBody, respBody any) error {
	u, err := c.base.Parse(path)
	if err != nil {
		return fmt.Errorf("social: build url: %w", err)
	}

	var payload []byte
	if reqBody != nil {
		payload, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("social: marshal request: %w", err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryDelay
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxAttempts-1)), ctx)

	attempt := 0
	var body []byte
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("social: build request: %w", err))
		}
		if len(payload) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.log.Warn().Err(err).Str("path", path).Int("attempt", attempt).Msg("social request failed")
			return fmt.Errorf("social: http request: %w", err)
		}
		defer res.Body.Close()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("social: read response: %w", err)
		}

		if res.StatusCode >= http.StatusInternalServerError {
			c.log.Warn().Int("status", res.StatusCode).Str("path", path).Int("attempt", attempt).Msg("social server error")
			return &APIError{StatusCode: res.StatusCode, Body: string(data)}
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return backoff.Permanent(&APIError{StatusCode: res.StatusCode, Body: string(data)})
		}
		body = data
		return nil
	}

	if err := backoff.Retry(op, retry); err != nil {
		return err
	}

	if respBody != nil && len(body) > 0 {
		if err := json.Unmarshal(body, respBody); err != nil {
			return fmt.Errorf("social: unmarshal response: %w", err)
		}
	}
	return nil
}
