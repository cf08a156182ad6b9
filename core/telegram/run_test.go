package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/screeningbot/core/config"
	"github.com/m3rciful/screeningbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

type apiRecorder struct {
	mu      sync.Mutex
	methods map[string]int
}

func (a *apiRecorder) count(method string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.methods[method]
}

func newTestAPI(t *testing.T) (*apiRecorder, *httptest.Server) {
	t.Helper()
	rec := &apiRecorder{methods: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := path.Base(r.URL.Path)
		rec.mu.Lock()
		rec.methods[method]++
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if method == "getUpdates" {
			time.Sleep(10 * time.Millisecond)
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func testConfig() *coreconfig.Config {
	return &coreconfig.Config{Telegram: coreconfig.TelegramConfig{
		Token:   "123:test",
		RunMode: coreconfig.RunModeLongpoll,
	}}
}

func TestRunTelegramLifecycle(t *testing.T) {
	rec, srv := newTestAPI(t)
	prevBase := apiBaseURL
	apiBaseURL = srv.URL
	t.Cleanup(func() { apiBaseURL = prevBase })

	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: func(tele.Context) error { return nil }, Description: "Main menu"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var started, stopped bool
	err := RunTelegram(ctx, RunOptions{
		Config:   testConfig(),
		Registry: reg,
		NewBot: func(s tele.Settings) (*tele.Bot, error) {
			s.URL = srv.URL
			s.Offline = true
			return tele.NewBot(s)
		},
		OnStart: func(_ context.Context, rt Runtime) error {
			started = rt.Bot != nil && rt.Dispatcher != nil
			time.AfterFunc(50*time.Millisecond, cancel)
			return nil
		},
		OnStop: func(ctx context.Context, _ Runtime) error {
			stopped = ctx.Err() == nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("RunTelegram: %v", err)
	}
	if !started || !stopped {
		t.Fatalf("hooks: started=%v stopped=%v", started, stopped)
	}
	if rec.count("deleteWebhook") != 1 {
		t.Fatalf("deleteWebhook calls = %d", rec.count("deleteWebhook"))
	}
	if rec.count("setMyCommands") != 1 {
		t.Fatalf("setMyCommands calls = %d", rec.count("setMyCommands"))
	}
}

func TestRunTelegramOnStartErrorAborts(t *testing.T) {
	_, srv := newTestAPI(t)
	boom := errors.New("boom")
	err := RunTelegram(context.Background(), RunOptions{
		Config:                testConfig(),
		DisableWebhookCleanup: true,
		NewBot: func(s tele.Settings) (*tele.Bot, error) {
			s.URL = srv.URL
			s.Offline = true
			return tele.NewBot(s)
		},
		OnStart: func(context.Context, Runtime) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunTelegramErrors(t *testing.T) {
	if err := RunTelegram(context.Background(), RunOptions{}); err == nil {
		t.Fatal("expected error for nil config")
	}
	boom := errors.New("unauthorized")
	err := RunTelegram(context.Background(), RunOptions{
		Config: testConfig(),
		NewBot: func(tele.Settings) (*tele.Bot, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
