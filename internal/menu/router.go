// Package menu dispatches top-level user input to static answers, forms or
// the operator relay, and owns the per-message cycle of a user.
package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/screeningbot/core/logger"
	"github.com/m3rciful/screeningbot/internal/chat"
	"github.com/m3rciful/screeningbot/internal/form"
	"github.com/m3rciful/screeningbot/internal/relay"
)

// Inline callback keys offered after a free-text message.
const (
	CallbackFreePhone    = "free_phone"
	CallbackFreeUsername = "free_username"
)

// ErrUnknownCallback is returned for callback keys the router does not own.
var ErrUnknownCallback = errors.New("menu: unknown callback")

// Relay is the operator side used by the router.
type Relay interface {
	NotifyOperator(ctx context.Context, lead form.Lead) error
	RelayFreeText(ctx context.Context, from chat.Identity, text string) error
	RelayContact(ctx context.Context, from chat.Identity, c chat.Contact) error
	RelayHandle(ctx context.Context, from chat.Identity) error
}

// Options configures a Router.
type Options struct {
	Store   *form.Store
	Machine *form.Machine
	Catalog form.Catalog
	Relay   Relay
	Layout  Layout
	Texts   Texts

	// OperatorID is never relayed to itself; zero disables the check.
	OperatorID int64
}

// Router is the entry point for every user message.
type Router struct {
	store   *form.Store
	machine *form.Machine
	catalog form.Catalog
	relay   Relay
	layout  Layout
	entries map[string]Entry
	texts   Texts

	operatorID int64
}

// New validates the layout and builds a router.
func New(opts Options) (*Router, error) {
	if opts.Store == nil || opts.Machine == nil || opts.Relay == nil {
		return nil, fmt.Errorf("menu: store, machine and relay are required")
	}
	layout := opts.Layout
	if len(layout) == 0 {
		layout = DefaultLayout()
	}
	entries, err := layout.index(opts.Catalog)
	if err != nil {
		return nil, err
	}
	return &Router{
		store:   opts.Store,
		machine: opts.Machine,
		catalog: opts.Catalog,
		relay:   opts.Relay,
		layout:  layout,
		entries: entries,
		texts:   DefaultTexts().Merge(opts.Texts),

		operatorID: opts.OperatorID,
	}, nil
}

// InProgress reports whether userID is inside a form.
func (r *Router) InProgress(userID int64) bool {
	return r.store.InProgress(userID)
}

// MainMenu returns a reply carrying text and the main menu keyboard.
func (r *Router) MainMenu(text string) chat.Reply {
	return chat.Reply{Text: text, Keyboard: r.layout.Keyboard()}
}

// Handle processes one text or contact message of in.From.
func (r *Router) Handle(ctx context.Context, in chat.Inbound, out chat.Outbox) error {
	release := r.store.Lock(in.From.ID)
	defer release()

	if sess, ok := r.store.Get(in.From.ID); ok && sess.Active() {
		return r.step(ctx, sess, form.Input{Text: in.Text, Contact: in.Contact}, out)
	}

	fromOperator := r.operatorID != 0 && in.From.ID == r.operatorID
	if in.Contact != nil {
		if fromOperator {
			return r.operatorHint(ctx, out)
		}
		return r.relayContact(ctx, in, out)
	}

	text := strings.TrimSpace(in.Text)
	if e, ok := r.entries[text]; ok {
		return r.dispatch(ctx, e, in, out)
	}
	if text == "" || r.isNavLabel(text) {
		return deliver(ctx, out, r.MainMenu(r.texts.UseMenu))
	}
	if fromOperator {
		return r.operatorHint(ctx, out)
	}
	return r.relayFreeText(ctx, in, text, out)
}

// Start discards any form of the user and shows the greeting.
func (r *Router) Start(ctx context.Context, in chat.Inbound, out chat.Outbox) error {
	release := r.store.Lock(in.From.ID)
	defer release()

	if r.store.Active(in.From.ID) {
		logger.Info(ctx, logger.CompMenu, "menu.form.abandoned", slog.String("reason", "start"))
	}
	r.store.Discard(in.From.ID)
	return deliver(ctx, out, r.MainMenu(r.texts.Greeting))
}

// Cancel behaves like the cancel button.
func (r *Router) Cancel(ctx context.Context, in chat.Inbound, out chat.Outbox) error {
	release := r.store.Lock(in.From.ID)
	defer release()

	if sess, ok := r.store.Get(in.From.ID); ok && sess.Active() {
		return r.step(ctx, sess, form.Input{Text: r.machine.Texts().Cancel}, out)
	}
	r.store.Discard(in.From.ID)
	return deliver(ctx, out, r.MainMenu(r.machine.Texts().Cancelled))
}

// Help explains the bot without touching the user's form.
func (r *Router) Help(ctx context.Context, in chat.Inbound, out chat.Outbox) error {
	release := r.store.Lock(in.From.ID)
	defer release()

	if r.store.Active(in.From.ID) {
		return deliver(ctx, out, chat.Reply{Text: r.texts.Help})
	}
	return deliver(ctx, out, r.MainMenu(r.texts.Help))
}

// Callback handles the inline buttons attached to free-text
// acknowledgements.
func (r *Router) Callback(ctx context.Context, in chat.Inbound, key string, out chat.Outbox) error {
	release := r.store.Lock(in.From.ID)
	defer release()

	switch key {
	case CallbackFreePhone:
		return deliver(ctx, out, chat.Reply{
			Text:          r.texts.SendPhonePrompt,
			ContactButton: r.texts.SendPhoneButton,
		})
	case CallbackFreeUsername:
		if in.From.Handle() == chat.HandlePlaceholder {
			return deliver(ctx, out, chat.Reply{Text: r.texts.NoUsername})
		}
		if err := r.relay.RelayHandle(ctx, in.From); err != nil {
			logRelayFailure(ctx, "handle", err)
		}
		return deliver(ctx, out, r.MainMenu(r.texts.UsernameSaved))
	}
	return fmt.Errorf("%w: %q", ErrUnknownCallback, key)
}

func (r *Router) step(ctx context.Context, sess *form.Session, in form.Input, out chat.Outbox) error {
	res := r.machine.Step(ctx, sess, in)

	switch res.Outcome {
	case form.OutcomeCancelled:
		r.store.Discard(sess.UserID)
		logger.Info(ctx, logger.CompMenu, "menu.form.cancelled",
			slog.String("schema", sess.Schema.Name),
			slog.String("source", sess.Source),
		)
	case form.OutcomeSent:
		r.store.Discard(sess.UserID)
		if res.Lead != nil {
			logger.Info(ctx, logger.CompMenu, "menu.form.sent",
				slog.String("schema", res.Lead.Schema),
				slog.String("source", res.Lead.Source),
				slog.String("lead_id", res.Lead.ID),
			)
			if err := r.relay.NotifyOperator(ctx, *res.Lead); err != nil {
				logRelayFailure(ctx, "lead", err)
			}
		}
	case form.OutcomeInactive:
		r.store.Discard(sess.UserID)
		return deliver(ctx, out, r.MainMenu(r.texts.UseMenu))
	}

	replies := res.Replies
	if res.Outcome != form.OutcomeContinue && len(replies) > 0 {
		last := &replies[len(replies)-1]
		if !last.HasKeyboard() {
			last.Keyboard = r.layout.Keyboard()
		}
	}
	return deliver(ctx, out, replies...)
}

func (r *Router) dispatch(ctx context.Context, e Entry, in chat.Inbound, out chat.Outbox) error {
	logger.Debug(ctx, logger.CompMenu, "menu.dispatch",
		slog.String("kind", string(e.Kind)),
		slog.String("input", logger.SanitizeLimit(e.Label, 64)),
	)
	switch e.Kind {
	case KindForm:
		sess := r.store.Start(in.From.ID, in.From, r.catalog[e.Form], e.Source)
		logger.Info(ctx, logger.CompMenu, "menu.form.started",
			slog.String("schema", e.Form),
			slog.String("source", e.Source),
		)
		return deliver(ctx, out, r.machine.Begin(ctx, sess).Replies...)
	default:
		return deliver(ctx, out, r.MainMenu(e.Reply))
	}
}

func (r *Router) relayFreeText(ctx context.Context, in chat.Inbound, text string, out chat.Outbox) error {
	if err := r.relay.RelayFreeText(ctx, in.From, text); err != nil {
		logRelayFailure(ctx, "message", err)
	}
	return deliver(ctx, out,
		chat.Reply{Text: r.texts.FreeReceived},
		chat.Reply{
			Text: r.texts.ChooseContact,
			Inline: []chat.Button{
				{Text: r.texts.LeavePhone, Key: CallbackFreePhone},
				{Text: r.texts.LeaveUsername, Key: CallbackFreeUsername},
			},
		},
	)
}

func (r *Router) relayContact(ctx context.Context, in chat.Inbound, out chat.Outbox) error {
	if in.Contact.Text() == "" {
		return deliver(ctx, out, r.MainMenu(r.texts.UseMenu))
	}
	if err := r.relay.RelayContact(ctx, in.From, *in.Contact); err != nil {
		logRelayFailure(ctx, "contact", err)
	}
	return deliver(ctx, out, r.MainMenu(r.texts.PhoneSaved))
}

func (r *Router) operatorHint(ctx context.Context, out chat.Outbox) error {
	logger.Debug(ctx, logger.CompMenu, "menu.operator.skip")
	return deliver(ctx, out, r.MainMenu(r.texts.OperatorHint))
}

func (r *Router) isNavLabel(text string) bool {
	t := r.machine.Texts()
	switch text {
	case t.Back, t.Cancel, t.Send, t.Edit:
		return true
	}
	return false
}

func logRelayFailure(ctx context.Context, kind string, err error) {
	if errors.Is(err, relay.ErrRelayDisabled) {
		return
	}
	logger.Warn(ctx, logger.CompMenu, "menu.relay.fail",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
}

func deliver(ctx context.Context, out chat.Outbox, replies ...chat.Reply) error {
	for _, reply := range replies {
		if err := out.Reply(ctx, reply); err != nil {
			return fmt.Errorf("menu: deliver reply: %w", err)
		}
	}
	return nil
}
