package bot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type sentMessage struct {
	ID     int
	ChatID int64
	Text   string
	Markup *tele.ReplyMarkup
}

// fakeAPI is a minimal Bot API answering sendMessage and acknowledging
// every other method.
type fakeAPI struct {
	mu      sync.Mutex
	nextID  int
	sent    []sentMessage
	methods []string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *tele.Bot) {
	t.Helper()
	api := &fakeAPI{nextID: 100}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)

	b, err := tele.NewBot(tele.Settings{URL: srv.URL, Token: "123:test", Offline: true})
	require.NoError(t, err)
	return api, b
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	method := path.Base(r.URL.Path)
	params := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&params)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, method)

	w.Header().Set("Content-Type", "application/json")
	if method != "sendMessage" {
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		return
	}

	f.nextID++
	chatID, _ := strconv.ParseInt(fmt.Sprint(params["chat_id"]), 10, 64)
	msg := sentMessage{ID: f.nextID, ChatID: chatID, Text: fmt.Sprint(params["text"])}
	if raw, ok := params["reply_markup"]; ok {
		var m tele.ReplyMarkup
		switch v := raw.(type) {
		case string:
			_ = json.Unmarshal([]byte(v), &m)
		default:
			data, _ := json.Marshal(v)
			_ = json.Unmarshal(data, &m)
		}
		msg.Markup = &m
	}
	f.sent = append(f.sent, msg)

	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok": true,
		"result": map[string]any{
			"message_id": msg.ID,
			"date":       0,
			"chat":       map[string]any{"id": chatID, "type": "private"},
			"text":       msg.Text,
		},
	})
}

func (f *fakeAPI) to(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) called(method string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.methods {
		if m == method {
			return true
		}
	}
	return false
}
