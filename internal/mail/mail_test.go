package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockhub-kr/stockhub/internal/core"
)

func TestClientSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("test-key")
	client.BaseURL = srv.URL

	err := client.Send(context.Background(), Message{
		From:    "portal@example.com",
		To:      []string{"admin@example.com"},
		Subject: "hello",
		Text:    "body",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"admin@example.com"}, got.To)
	require.Equal(t, "hello", got.Subject)
}

func TestClientSendErrors(t *testing.T) {
	t.Run("NoAPIKey", func(t *testing.T) {
		client := NewClient("")
		err := client.Send(context.Background(), Message{To: []string{"a@b.co"}})
		require.Error(t, err)
	})

	t.Run("NoRecipients", func(t *testing.T) {
		client := NewClient("k")
		err := client.Send(context.Background(), Message{})
		require.Error(t, err)
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		client := NewClient("k")
		client.BaseURL = srv.URL
		err := client.Send(context.Background(), Message{To: []string{"a@b.co"}})
		require.Error(t, err)
		require.Contains(t, err.Error(), "422")
	})
}

type captureSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
	done chan struct{}
}

func (c *captureSender) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	if c.done != nil {
		c.done <- struct{}{}
	}
	return c.err
}

func TestDispatcherDelivers(t *testing.T) {
	sender := &captureSender{done: make(chan struct{}, 1)}
	d := NewDispatcher(sender, "portal@example.com", "admin@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Message{To: []string{"user@example.com"}, Subject: "hi"})

	select {
	case <-sender.done:
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	// Default sender address is applied.
	require.Equal(t, "portal@example.com", sender.sent[0].From)
}

func TestDispatcherSwallowsSendErrors(t *testing.T) {
	sender := &captureSender{err: errors.New("provider down"), done: make(chan struct{}, 2)}
	d := NewDispatcher(sender, "portal@example.com", "admin@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Enqueue(Message{To: []string{"a@b.co"}, Subject: "one"})
	d.Enqueue(Message{To: []string{"a@b.co"}, Subject: "two"})

	for i := 0; i < 2; i++ {
		select {
		case <-sender.done:
		case <-time.After(time.Second):
			t.Fatal("dispatcher stopped after a send error")
		}
	}
}

func TestRelayInquiry(t *testing.T) {
	sender := &captureSender{done: make(chan struct{}, 1)}
	d := NewDispatcher(sender, "portal@example.com", "admin@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.RelayInquiry(core.Inquiry{
		Name:    "Kim",
		Email:   "kim@example.com",
		Subject: "question",
		Message: "<b>help</b>",
	})

	select {
	case <-sender.done:
	case <-time.After(time.Second):
		t.Fatal("inquiry was not relayed")
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	msg := sender.sent[0]
	require.Equal(t, []string{"admin@example.com"}, msg.To)
	require.Equal(t, "[inquiry] question", msg.Subject)
	// User content is escaped in the HTML body.
	require.NotContains(t, msg.HTML, "<b>help</b>")
}

func TestRelayInquiryWithoutAdminIsNoOp(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, "portal@example.com", "")

	d.RelayInquiry(core.Inquiry{Subject: "question"})
	require.Empty(t, sender.sent)
}
