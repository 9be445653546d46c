package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notexe/promemoria-bot/internal/conversation"
)

type recordedCall struct {
	method  string
	payload map[string]any
}

type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(method string, payload map[string]any) string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	payload := map[string]any{}
	body, _ := io.ReadAll(r.Body)
	if len(body) > 0 {
		_ = json.Unmarshal(body, &payload)
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{method: method, payload: payload})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.respond != nil {
		_, _ = io.WriteString(w, f.respond(method, payload))
		return
	}
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"chat":{"id":1,"type":"private"},"date":0}}`)
}

func (f *fakeBotAPI) sent() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.method == "sendMessage" {
			out = append(out, c)
		}
	}
	return out
}

func newTestClient(t *testing.T, api *fakeBotAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient("TEST:TOKEN", WithAPIURL(srv.URL+"/"))
}

func TestClient_SendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	c := newTestClient(t, api)

	require.NoError(t, c.SendMessage(context.Background(), 42, "*ciao*", SendOptions{ParseMode: ParseModeMarkdown}))
	require.NoError(t, c.Send(context.Background(), 42, "plain"))

	sent := api.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, float64(42), sent[0].payload["chat_id"])
	assert.Equal(t, "*ciao*", sent[0].payload["text"])
	assert.Equal(t, "Markdown", sent[0].payload["parse_mode"])
	_, hasMode := sent[1].payload["parse_mode"]
	assert.False(t, hasMode)
}

func TestClient_APIError(t *testing.T) {
	api := &fakeBotAPI{respond: func(string, map[string]any) string {
		return `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`
	}}
	c := newTestClient(t, api)

	err := c.Send(context.Background(), 1, "x")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.Code)
	assert.Contains(t, apiErr.Description, "blocked")
}

func TestClient_GetMe(t *testing.T) {
	api := &fakeBotAPI{respond: func(string, map[string]any) string {
		return `{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"Promemoria","username":"promemoria_bot"}}`
	}}
	c := newTestClient(t, api)

	me, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), me.ID)
	assert.Equal(t, "promemoria_bot", me.Username)
}

func TestClient_GetUpdates(t *testing.T) {
	api := &fakeBotAPI{respond: func(string, map[string]any) string {
		return `{"ok":true,"result":[{"update_id":10,"message":{"message_id":1,"from":{"id":5,"is_bot":false,"first_name":"Luca"},"chat":{"id":5,"type":"private"},"date":0,"text":"ciao"}}]}`
	}}
	c := newTestClient(t, api)

	updates, err := c.GetUpdates(context.Background(), 9, 120)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(10), updates[0].UpdateID)
	assert.Equal(t, "ciao", updates[0].Message.Text)

	require.Len(t, api.calls, 1)
	assert.Equal(t, float64(9), api.calls[0].payload["offset"])
	assert.Equal(t, float64(maxPollTimeout), api.calls[0].payload["timeout"])
}

type stubHandler struct {
	replies map[string]conversation.Reply
	err     error
	seen    []conversation.User
}

func (s *stubHandler) Handle(_ context.Context, user conversation.User, text string) (conversation.Reply, error) {
	s.seen = append(s.seen, user)
	if s.err != nil {
		return conversation.Reply{}, s.err
	}
	return s.replies[text], nil
}

func textUpdate(id, userID int64, text string) Update {
	return Update{
		UpdateID: id,
		Message: &Message{
			MessageID: id,
			From:      &User{ID: userID, FirstName: "Giulia"},
			Chat:      Chat{ID: userID, Type: "private"},
			Text:      text,
		},
	}
}

func TestPoller_ProcessRepliesAndAdvancesOffset(t *testing.T) {
	api := &fakeBotAPI{}
	handler := &stubHandler{replies: map[string]conversation.Reply{
		"/start": {Text: "*Ciao*", Markdown: true},
		"latte":  {Text: "📅 Quando?"},
		"ok":     {},
	}}
	p := NewPoller(newTestClient(t, api), handler)

	p.Process(context.Background(), []Update{
		textUpdate(100, 1, "/start"),
		textUpdate(101, 1, "latte"),
		textUpdate(102, 1, "ok"),
		{UpdateID: 103},
	})

	assert.Equal(t, int64(104), p.Offset())
	require.Len(t, handler.seen, 3)
	assert.Equal(t, "Giulia", handler.seen[0].FirstName)

	sent := api.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Markdown", sent[0].payload["parse_mode"])
	assert.Equal(t, "📅 Quando?", sent[1].payload["text"])
}

func TestPoller_HandlerErrorSendsApology(t *testing.T) {
	api := &fakeBotAPI{}
	handler := &stubHandler{err: errors.New("disk full")}
	p := NewPoller(newTestClient(t, api), handler)

	p.Process(context.Background(), []Update{textUpdate(1, 9, "qualcosa")})

	sent := api.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, msgInternalError, sent[0].payload["text"])
}

func TestPoller_MarkdownRejectedFallsBackToPlain(t *testing.T) {
	api := &fakeBotAPI{respond: func(method string, payload map[string]any) string {
		if _, ok := payload["parse_mode"]; ok {
			return `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`
		}
		return `{"ok":true,"result":{"message_id":2,"chat":{"id":1,"type":"private"},"date":0}}`
	}}
	handler := &stubHandler{replies: map[string]conversation.Reply{
		"/help": {Text: "_aiuto", Markdown: true},
	}}
	p := NewPoller(newTestClient(t, api), handler)

	p.Process(context.Background(), []Update{textUpdate(1, 1, "/help")})

	sent := api.sent()
	require.Len(t, sent, 2)
	_, hasMode := sent[1].payload["parse_mode"]
	assert.False(t, hasMode)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	api := &fakeBotAPI{respond: func(string, map[string]any) string {
		return `{"ok":true,"result":[]}`
	}}
	p := NewPoller(newTestClient(t, api), &stubHandler{}, WithPollTimeout(0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.calls) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}
