package social

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{
		BaseURL:        ts.URL,
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
		Timeout:        time.Second,
		MaxAttempts:    3,
		RetryDelay:     time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func requireSigned(t *testing.T, r *http.Request) {
	t.Helper()
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, `oauth_consumer_key="ck"`) || !strings.Contains(auth, `oauth_token="at"`) {
		t.Errorf("request not OAuth1 signed: %q", auth)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(Config{ConsumerKey: "ck"}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestReadEndpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requireSigned(t, r)
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		switch r.URL.Path {
		case pathVerifyCredentials:
			_, _ = io.WriteString(w, `{"id_str":"42","screen_name":"alice","name":"Alice"}`)
		case pathListMessages:
			_, _ = io.WriteString(w, `{"events":[{"id":"1","message_create":{"message_data":{"text":"hi"}}},{"id":"2","message_create":{"message_data":{"text":"yo"}}}]}`)
		case pathFollowers:
			_, _ = io.WriteString(w, `{"users":[{"screen_name":"bob","name":"Bob"}]}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	acct, err := c.VerifyCredentials(ctx)
	if err != nil || acct != (Account{ID: "42", ScreenName: "alice", Name: "Alice"}) {
		t.Fatalf("verify credentials = %+v, %v", acct, err)
	}

	msgs, err := c.ListDirectMessages(ctx)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0] != (DirectMessage{ID: "1", Text: "hi"}) || msgs[1].Text != "yo" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	followers, err := c.ListFollowers(ctx)
	if err != nil || len(followers) != 1 || followers[0] != (Follower{ScreenName: "bob", Name: "Bob"}) {
		t.Fatalf("list followers = %+v, %v", followers, err)
	}
}

func TestSendDirectMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requireSigned(t, r)
		if r.Method != http.MethodPost || r.URL.Path != pathSendMessage {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body sendRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Event.Type != "message_create" ||
			body.Event.MessageCreate.Target.RecipientID != "1070" ||
			body.Event.MessageCreate.MessageData.Text != "Just wanted to say hi!" {
			t.Errorf("unexpected body: %+v", body)
		}
		_, _ = io.WriteString(w, `{"event":{"id":"99"}}`)
	})

	id, err := c.SendDirectMessage(context.Background(), "1070", "Just wanted to say hi!")
	if err != nil || id != "99" {
		t.Fatalf("send = %q, %v", id, err)
	}

	if _, err := c.SendDirectMessage(context.Background(), "", "hi"); err == nil {
		t.Fatalf("expected error for empty recipient")
	}
}

func TestRetries(t *testing.T) {
	cases := []struct {
		name         string
		statuses     []int
		wantAttempts int32
		wantStatus   int
	}{
		{"recovers after 5xx", []int{http.StatusServiceUnavailable, http.StatusOK}, 2, 0},
		{"gives up after max attempts", []int{500, 502, 503, 504}, 3, http.StatusServiceUnavailable},
		{"4xx is not retried", []int{http.StatusUnauthorized, http.StatusOK}, 1, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tc.statuses[int(n)-1]
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = io.WriteString(w, `{"users":[]}`)
				}
			})

			_, err := c.ListFollowers(context.Background())
			if got := calls.Load(); got != tc.wantAttempts {
				t.Fatalf("attempts = %d, want %d", got, tc.wantAttempts)
			}
			if tc.wantStatus == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tc.wantStatus {
				t.Fatalf("expected APIError %d, got %v", tc.wantStatus, err)
			}
		})
	}
}

func TestContextCancelStopsRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.ListFollowers(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("request sent despite cancelled context")
	}
}
