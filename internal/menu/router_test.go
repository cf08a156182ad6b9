package menu

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/screeningbot/internal/chat"
	"github.com/m3rciful/screeningbot/internal/form"
	"github.com/m3rciful/screeningbot/internal/relay"
)

type fakeRelay struct {
	mu       sync.Mutex
	leads    []form.Lead
	texts    []string
	contacts []chat.Contact
	handles  []chat.Identity
	err      error
}

func (f *fakeRelay) NotifyOperator(_ context.Context, lead form.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return f.err
}

func (f *fakeRelay) RelayFreeText(_ context.Context, _ chat.Identity, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.err
}

func (f *fakeRelay) RelayContact(_ context.Context, _ chat.Identity, c chat.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, c)
	return f.err
}

func (f *fakeRelay) RelayHandle(_ context.Context, from chat.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles = append(f.handles, from)
	return f.err
}

type outbox struct {
	mu      sync.Mutex
	replies []chat.Reply
	err     error
}

func (o *outbox) Reply(_ context.Context, r chat.Reply) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.replies = append(o.replies, r)
	return nil
}

func (o *outbox) last(t *testing.T) chat.Reply {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.replies)
	return o.replies[len(o.replies)-1]
}

type fixture struct {
	router *Router
	relay  *fakeRelay
	store  *form.Store
	ftexts form.Texts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ft := form.DefaultTexts()
	st := form.NewStore()
	rl := &fakeRelay{}
	r, err := New(Options{
		Store:   st,
		Machine: form.NewMachine(ft),
		Catalog: form.DefaultCatalog(ft),
		Relay:   rl,
	})
	require.NoError(t, err)
	return &fixture{router: r, relay: rl, store: st, ftexts: ft}
}

var user = chat.Identity{ID: 555, DisplayName: "Anna K", Username: "annak"}

func (f *fixture) say(t *testing.T, text string) *outbox {
	t.Helper()
	out := &outbox{}
	require.NoError(t, f.router.Handle(context.Background(), chat.Inbound{ChatID: user.ID, From: user, Text: text}, out))
	return out
}

func label(kind Kind, schema string) string {
	for _, row := range DefaultLayout() {
		for _, e := range row {
			if e.Kind == kind && (schema == "" || e.Form == schema) {
				return e.Label
			}
		}
	}
	return ""
}

func TestRouterDoctorFormEndToEnd(t *testing.T) {
	f := newFixture(t)

	out := f.say(t, label(KindForm, form.SchemaDoctor))
	assert.Equal(t, f.ftexts.Fields[form.FieldName].Prompt, out.last(t).Text)
	assert.True(t, f.router.InProgress(user.ID))

	f.say(t, "Anna")
	out = f.say(t, "12345")
	assert.Equal(t, f.ftexts.Invalid, out.replies[0].Text)
	f.say(t, "+1 202 555 0119")
	f.say(t, "screening cost")
	out = f.say(t, f.ftexts.Send)

	assert.Equal(t, f.ftexts.Sent, out.last(t).Text)
	assert.Equal(t, DefaultLayout().Keyboard(), out.last(t).Keyboard)
	assert.False(t, f.router.InProgress(user.ID))
	assert.Zero(t, f.store.Len())

	require.Len(t, f.relay.leads, 1)
	lead := f.relay.leads[0]
	assert.Equal(t, "doctor", lead.Source)
	for id, want := range map[string]string{
		form.FieldName:     "Anna",
		form.FieldPhone:    "+1 202 555 0119",
		form.FieldQuestion: "screening cost",
	} {
		got, _ := lead.Get(id)
		assert.Equal(t, want, got)
	}
	assert.Empty(t, f.relay.texts)
}

func TestRouterSendSucceedsWhenRelayFails(t *testing.T) {
	f := newFixture(t)
	f.relay.err = errors.New("operator unreachable")

	f.say(t, label(KindForm, form.SchemaCallback))
	f.say(t, "Anna")
	f.say(t, "+12025550119")
	out := f.say(t, f.ftexts.Send)

	assert.Equal(t, f.ftexts.Sent, out.last(t).Text)
	assert.Len(t, f.relay.leads, 1)
	assert.Zero(t, f.store.Len())
}

func TestRouterFormOwnsInput(t *testing.T) {
	f := newFixture(t)
	f.say(t, label(KindForm, form.SchemaCallback))

	// a menu label while a form is active is the name answer
	faq := label(KindStatic, "")
	f.say(t, faq)
	sess, ok := f.store.Get(user.ID)
	require.True(t, ok)
	v, _ := sess.Value(form.FieldName)
	assert.Equal(t, faq, v.Text)
	assert.Empty(t, f.relay.texts)
}

func TestRouterCancelReturnsToMenu(t *testing.T) {
	f := newFixture(t)
	f.say(t, label(KindForm, form.SchemaContact))
	f.say(t, "Anna")

	out := f.say(t, f.ftexts.Cancel)
	assert.Equal(t, f.ftexts.Cancelled, out.last(t).Text)
	assert.Equal(t, DefaultLayout().Keyboard(), out.last(t).Keyboard)
	assert.False(t, f.router.InProgress(user.ID))
	assert.Zero(t, f.store.Len())
	assert.Empty(t, f.relay.leads)
}

func TestRouterCancelCommand(t *testing.T) {
	f := newFixture(t)
	f.say(t, label(KindForm, form.SchemaDoctor))

	out := &outbox{}
	require.NoError(t, f.router.Cancel(context.Background(), chat.Inbound{From: user}, out))
	assert.Equal(t, f.ftexts.Cancelled, out.last(t).Text)
	assert.Zero(t, f.store.Len())

	out = &outbox{}
	require.NoError(t, f.router.Cancel(context.Background(), chat.Inbound{From: user}, out))
	assert.Equal(t, DefaultLayout().Keyboard(), out.last(t).Keyboard)
}

func TestRouterStartDiscardsForm(t *testing.T) {
	f := newFixture(t)
	f.say(t, label(KindForm, form.SchemaDoctor))
	f.say(t, "Anna")

	out := &outbox{}
	require.NoError(t, f.router.Start(context.Background(), chat.Inbound{From: user}, out))
	assert.Equal(t, DefaultTexts().Greeting, out.last(t).Text)
	assert.False(t, f.router.InProgress(user.ID))

	// a fresh start begins with empty fields
	f.say(t, label(KindForm, form.SchemaDoctor))
	sess, _ := f.store.Get(user.ID)
	assert.Empty(t, sess.Fields)
}

func TestRouterStaticAndFreeTextEntries(t *testing.T) {
	f := newFixture(t)
	for _, row := range DefaultLayout() {
		for _, e := range row {
			if e.Kind == KindForm {
				continue
			}
			out := f.say(t, e.Label)
			assert.Equal(t, e.Reply, out.last(t).Text)
			assert.Equal(t, DefaultLayout().Keyboard(), out.last(t).Keyboard)
		}
	}
	assert.Empty(t, f.relay.texts)
}

func TestRouterUnmatchedTextIsRelayed(t *testing.T) {
	f := newFixture(t)
	out := f.say(t, "  Do you work on Sundays?  ")

	assert.Equal(t, []string{"Do you work on Sundays?"}, f.relay.texts)
	require.Len(t, out.replies, 2)
	assert.Equal(t, DefaultTexts().FreeReceived, out.replies[0].Text)
	assert.Equal(t, []chat.Button{
		{Text: DefaultTexts().LeavePhone, Key: CallbackFreePhone},
		{Text: DefaultTexts().LeaveUsername, Key: CallbackFreeUsername},
	}, out.replies[1].Inline)
}

func TestRouterStaleNavLabelsAreNotRelayed(t *testing.T) {
	f := newFixture(t)
	for _, in := range []string{f.ftexts.Cancel, f.ftexts.Back, f.ftexts.Send, " "} {
		out := f.say(t, in)
		assert.Equal(t, DefaultTexts().UseMenu, out.last(t).Text)
	}
	assert.Empty(t, f.relay.texts)
}

func TestRouterIdleContactIsRelayed(t *testing.T) {
	f := newFixture(t)
	out := &outbox{}
	c := &chat.Contact{Phone: "+380501234567", UserID: user.ID}
	require.NoError(t, f.router.Handle(context.Background(), chat.Inbound{From: user, Contact: c}, out))

	require.Len(t, f.relay.contacts, 1)
	assert.Equal(t, "+380501234567", f.relay.contacts[0].Phone)
	assert.Equal(t, DefaultTexts().PhoneSaved, out.last(t).Text)
}

func TestRouterCallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := &outbox{}
	require.NoError(t, f.router.Callback(ctx, chat.Inbound{From: user}, CallbackFreePhone, out))
	assert.Equal(t, DefaultTexts().SendPhoneButton, out.last(t).ContactButton)

	out = &outbox{}
	require.NoError(t, f.router.Callback(ctx, chat.Inbound{From: user}, CallbackFreeUsername, out))
	assert.Equal(t, DefaultTexts().UsernameSaved, out.last(t).Text)
	require.Len(t, f.relay.handles, 1)

	out = &outbox{}
	anon := chat.Identity{ID: 7}
	require.NoError(t, f.router.Callback(ctx, chat.Inbound{From: anon}, CallbackFreeUsername, out))
	assert.Equal(t, DefaultTexts().NoUsername, out.last(t).Text)
	assert.Len(t, f.relay.handles, 1)

	err := f.router.Callback(ctx, chat.Inbound{From: user}, "nope", &outbox{})
	assert.ErrorIs(t, err, ErrUnknownCallback)
}

func TestRouterHelpKeepsForm(t *testing.T) {
	f := newFixture(t)
	f.say(t, label(KindForm, form.SchemaDoctor))

	out := &outbox{}
	require.NoError(t, f.router.Help(context.Background(), chat.Inbound{From: user}, out))
	assert.False(t, out.last(t).HasKeyboard())
	assert.True(t, f.router.InProgress(user.ID))
}

func TestRouterDeliveryErrorPropagates(t *testing.T) {
	f := newFixture(t)
	down := errors.New("blocked by user")
	err := f.router.Handle(context.Background(), chat.Inbound{From: user, Text: label(KindStatic, "")}, &outbox{err: down})
	assert.ErrorIs(t, err, down)
}

func TestRouterRelayDisabledIsQuiet(t *testing.T) {
	f := newFixture(t)
	f.relay.err = relay.ErrRelayDisabled
	out := f.say(t, "hello")
	assert.Equal(t, DefaultTexts().FreeReceived, out.replies[0].Text)
}

func TestRouterConcurrentUsers(t *testing.T) {
	f := newFixture(t)
	start := label(KindForm, form.SchemaCallback)
	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			from := chat.Identity{ID: id}
			for _, text := range []string{start, "Anna", "+12025550119", f.ftexts.Send} {
				_ = f.router.Handle(context.Background(), chat.Inbound{From: from, Text: text}, &outbox{})
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, f.relay.leads, 20)
	assert.Zero(t, f.store.Len())
}

func TestNewRejectsBadLayout(t *testing.T) {
	ft := form.DefaultTexts()
	base := Options{Store: form.NewStore(), Machine: form.NewMachine(ft), Catalog: form.DefaultCatalog(ft), Relay: &fakeRelay{}}

	cases := map[string]Layout{
		"unknown form": {{{Label: "x", Kind: KindForm, Form: "nope"}}},
		"duplicate":    {{{Label: "a", Kind: KindStatic, Reply: "r"}, {Label: "a", Kind: KindStatic, Reply: "r"}}},
		"no reply":     {{{Label: "a", Kind: KindStatic}}},
		"bad kind":     {{{Label: "a", Kind: "video", Reply: "r"}}},
		"no label":     {{{Kind: KindStatic, Reply: "r"}}},
	}
	for name, layout := range cases {
		opts := base
		opts.Layout = layout
		_, err := New(opts)
		assert.Error(t, err, name)
	}

	_, err := New(Options{})
	assert.Error(t, err)
}

func TestRouterReadsDuringTransitions(t *testing.T) {
	f := newFixture(t)
	f.say(t, label(KindForm, form.SchemaDoctor))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			in := f.ftexts.Back
			if i%2 == 0 {
				in = "Anna"
			}
			_ = f.router.Handle(context.Background(), chat.Inbound{From: user, Text: in}, &outbox{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = f.router.InProgress(user.ID)
			_ = f.router.Help(context.Background(), chat.Inbound{From: user}, &outbox{})
		}
	}()
	wg.Wait()
	assert.True(t, f.router.InProgress(user.ID))
}

func TestRouterDoesNotRelayOperatorToItself(t *testing.T) {
	ft := form.DefaultTexts()
	rl := &fakeRelay{}
	r, err := New(Options{
		Store:      form.NewStore(),
		Machine:    form.NewMachine(ft),
		Catalog:    form.DefaultCatalog(ft),
		Relay:      rl,
		OperatorID: 99,
	})
	require.NoError(t, err)
	operator := chat.Identity{ID: 99, DisplayName: "Operator"}

	out := &outbox{}
	require.NoError(t, r.Handle(context.Background(), chat.Inbound{From: operator, Text: "hello there"}, out))
	require.Len(t, out.replies, 1)
	assert.Equal(t, DefaultTexts().OperatorHint, out.replies[0].Text)
	assert.Empty(t, out.replies[0].Inline)

	out = &outbox{}
	contact := &chat.Contact{Phone: "+12025550119"}
	require.NoError(t, r.Handle(context.Background(), chat.Inbound{From: operator, Contact: contact}, out))
	assert.Equal(t, DefaultTexts().OperatorHint, out.last(t).Text)

	assert.Empty(t, rl.texts)
	assert.Empty(t, rl.contacts)

	out = &outbox{}
	require.NoError(t, r.Handle(context.Background(), chat.Inbound{From: user, Text: "hello there"}, out))
	assert.Equal(t, []string{"hello there"}, rl.texts)
}
