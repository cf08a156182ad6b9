// Package bot wires the screening assistant onto Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/screeningbot/core/bootstrap"
	coreconfig "github.com/m3rciful/screeningbot/core/config"
	"github.com/m3rciful/screeningbot/core/logger"
	coretelegram "github.com/m3rciful/screeningbot/core/telegram"
	"github.com/m3rciful/screeningbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/screeningbot/core/telegram/helpers"
	"github.com/m3rciful/screeningbot/core/telegram/router"
	tgsender "github.com/m3rciful/screeningbot/core/telegram/sender"
	"github.com/m3rciful/screeningbot/internal/form"
	"github.com/m3rciful/screeningbot/internal/menu"
	"github.com/m3rciful/screeningbot/internal/relay"
)

// App holds the wired components of one bot process.
type App struct {
	cfg       *coreconfig.Config
	infra     *bootstrap.Result
	transport *Transport
	registry  *coretelegram.Registry
	handlers  *Handlers
	store     *form.Store
	bridge    *relay.Bridge

	dispatcher atomic.Pointer[tgsender.Dispatcher]
}

// Bootstrap initializes logging and storage, then wires the app.
func Bootstrap(ctx context.Context, cfg *coreconfig.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	texts, err := LoadTexts(cfg.TextsFile)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	app, err := New(cfg, infra, texts)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	return app, nil
}

// New wires the form engine, relay bridge and menu router. infra may be nil
// for the memory journal.
func New(cfg *coreconfig.Config, infra *bootstrap.Result, texts Texts) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}
	if infra == nil {
		infra = &bootstrap.Result{}
	}
	texts = texts.withDefaults()

	a := &App{
		cfg:       cfg,
		infra:     infra,
		transport: &Transport{},
		registry:  coretelegram.NewRegistry(),
		store:     form.NewStore(),
	}

	a.bridge = relay.NewBridge(relay.Options{
		OperatorID: cfg.Telegram.OperatorID,
		Sender:     a.transport,
		Queue:      tghelpers.Queue{},
		Journal:    newJournal(cfg, infra.DB),
		Texts:      texts.Relay,
	})
	if !a.bridge.Enabled() {
		logger.Warn(context.Background(), logger.CompApp, "relay.disabled",
			slog.String("reason", "OWNER_CHAT_ID not set"),
		)
	}

	machine := form.NewMachine(texts.Form)
	mr, err := menu.New(menu.Options{
		Store:   a.store,
		Machine: machine,
		Catalog: form.DefaultCatalog(texts.Form),
		Relay:   a.bridge,
		Layout:  texts.Layout,
		Texts:   texts.Menu,

		OperatorID: cfg.Telegram.OperatorID,
	})
	if err != nil {
		return nil, fmt.Errorf("bot: menu: %w", err)
	}

	a.handlers = &Handlers{
		router:     mr,
		bridge:     a.bridge,
		store:      a.store,
		operatorID: cfg.Telegram.OperatorID,
		journal:    cfg.Journal.Driver,
		texts:      texts.Operator,
		stats:      a.dispatcherStats,
	}
	if err := a.register(); err != nil {
		return nil, err
	}
	return a, nil
}

func newJournal(cfg *coreconfig.Config, db *sqlx.DB) relay.Journal {
	if cfg.Journal.Driver == coreconfig.JournalPostgres && db != nil {
		return relay.NewPostgresJournal(db)
	}
	return relay.NewMemoryJournal(cfg.Journal.Capacity)
}

func (a *App) register() error {
	h := a.handlers
	cmds := map[string]commands.Command{
		"/start":  {Handler: h.Start, Description: "Main menu"},
		"/cancel": {Handler: h.Cancel, Description: "Cancel the current request"},
		"/help":   {Handler: h.Help, Description: "How this bot works"},
		"/stats":  {Handler: h.Stats, Description: "Bot statistics", OperatorOnly: true, Hidden: true},
	}
	for name, cmd := range cmds {
		if err := a.registry.RegisterCommand(name, cmd); err != nil {
			return fmt.Errorf("bot: register %s: %w", name, err)
		}
	}
	for _, key := range []string{menu.CallbackFreePhone, menu.CallbackFreeUsername} {
		if err := a.registry.RegisterCallback(key, h.Callback); err != nil {
			return fmt.Errorf("bot: register callback %s: %w", key, err)
		}
	}
	a.registry.SetCallbackNotFound(h.CallbackNotFound)
	a.registry.SetTextFallback(h.Handle)
	return nil
}

func (a *App) dispatcherStats() (int, uint64, uint64, uint64) {
	d := a.dispatcher.Load()
	if d == nil {
		return 0, 0, 0, 0
	}
	s := d.Stats()
	return s.Queued, s.Sent, s.Failed, s.Retried
}

// Routes returns every handler route of the bot.
func (a *App) Routes() []coretelegram.Route {
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		OperatorID:       a.cfg.Telegram.OperatorID,
		OnOperatorReject: a.handlers.RejectOperatorCommand,
	})
	routes = append(routes, router.TextRoutes(a.handlers, a.registry, router.TextOptions{
		Intercept:   a.handlers.IsOperatorReply,
		Intercepted: a.handlers.OperatorReply,
		Contact:     a.handlers.Handle,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry))
	return routes
}

// TelegramRunOptions builds the runtime options for coretelegram.RunTelegram.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	s := a.cfg.Sender
	return coretelegram.RunOptions{
		Config:   a.cfg,
		Registry: a.registry,
		DispatcherOptions: tgsender.Options{
			QueueSize:    s.QueueSize,
			Workers:      s.Workers,
			MaxRetries:   s.MaxRetries,
			RetryBackoff: time.Duration(s.RetryBackoffMS) * time.Millisecond,
		},
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      a.Routes(),
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.transport.Bind(rt.Bot)
			a.dispatcher.Store(rt.Dispatcher)
			logger.Info(ctx, logger.CompApp, "wired",
				slog.Bool("relay", a.bridge.Enabled()),
				slog.String("journal", a.cfg.Journal.Driver),
			)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.dispatcher.Store(nil)
			logger.Info(ctx, logger.CompApp, "sessions.dropped", slog.Int("sessions", a.store.Len()))
			return nil
		},
	}, nil
}

// Close releases storage.
func (a *App) Close() error {
	return a.infra.Close()
}
