// Package relay delivers leads and free-form messages to the operator chat
// and routes the operator's replies back to the requester.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/m3rciful/screeningbot/core/logger"
	"github.com/m3rciful/screeningbot/internal/chat"
	"github.com/m3rciful/screeningbot/internal/form"
)

// MarkerPrefix starts the correlation line embedded in every operator
// notification. Operator replies are routed by parsing it back.
const MarkerPrefix = "User ID: "

// Message kinds recorded in the journal and logs.
const (
	KindLead    = "lead"
	KindMessage = "message"
	KindContact = "contact"
	KindHandle  = "handle"
	KindReply   = "reply"
)

var (
	// ErrRelayDisabled is returned when no operator chat is configured.
	ErrRelayDisabled = errors.New("relay: operator chat not configured")
	// ErrNoMarker means the replied-to message cannot be mapped to a requester.
	ErrNoMarker = errors.New("relay: requester not found in replied message")
	// ErrEmptyReply is returned for operator replies without text.
	ErrEmptyReply = errors.New("relay: empty reply")

	markerRe = regexp.MustCompile(`User ID: (-?\d+)`)
)

// Sender performs one outbound text message and returns its message id.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) (int, error)
}

// Queue runs outbound calls asynchronously.
type Queue interface {
	Enqueue(ctx context.Context, action, endpoint string, run func() error) error
}

// Options configures a Bridge.
type Options struct {
	// OperatorID is the operator chat; zero disables relay.
	OperatorID int64
	Sender     Sender
	// Queue, when nil, makes every send synchronous.
	Queue Queue
	// Journal, when nil, disables reply correlation by message id.
	Journal Journal
	Texts   Texts
}

// OperatorReply is a message the operator sent as a reply to a relayed one.
type OperatorReply struct {
	OriginalText      string
	OriginalMessageID int
	Text              string
}

// Bridge is the single path between users and the operator chat.
type Bridge struct {
	operatorID int64
	sender     Sender
	queue      Queue
	journal    Journal
	texts      Texts
}

// NewBridge builds a bridge; missing texts fall back to defaults.
func NewBridge(opts Options) *Bridge {
	return &Bridge{
		operatorID: opts.OperatorID,
		sender:     opts.Sender,
		queue:      opts.Queue,
		journal:    opts.Journal,
		texts:      DefaultTexts().Merge(opts.Texts),
	}
}

// Enabled reports whether an operator chat is configured.
func (b *Bridge) Enabled() bool { return b.operatorID != 0 && b.sender != nil }

// IsOperator reports whether chatID is the operator chat.
func (b *Bridge) IsOperator(chatID int64) bool {
	return b.operatorID != 0 && chatID == b.operatorID
}

// Marker renders the correlation line for requesterID.
func Marker(requesterID int64) string {
	return MarkerPrefix + strconv.FormatInt(requesterID, 10)
}

// ParseMarker extracts the requester id from a relayed message.
func ParseMarker(text string) (int64, bool) {
	m := markerRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// NotifyOperator sends the lead to the operator chat.
func (b *Bridge) NotifyOperator(ctx context.Context, lead form.Lead) error {
	return b.toOperator(ctx, KindLead, lead.Requester.ID, lead.ID, b.FormatLead(lead))
}

// RelayFreeText forwards a message typed outside any form.
func (b *Bridge) RelayFreeText(ctx context.Context, from chat.Identity, text string) error {
	body := b.header(b.texts.MessageTitle, from) + "\n\n" + text
	return b.toOperator(ctx, KindMessage, from.ID, "", body)
}

// RelayContact forwards a phone shared outside any form.
func (b *Bridge) RelayContact(ctx context.Context, from chat.Identity, c chat.Contact) error {
	phone := c.Text()
	if phone == "" {
		return fmt.Errorf("relay: contact without phone")
	}
	body := b.header(b.texts.ContactTitle, from) + "\n" + b.texts.PhoneLabel + ": " + phone
	return b.toOperator(ctx, KindContact, from.ID, "", body)
}

// RelayHandle tells the operator to reach the user by @username.
func (b *Bridge) RelayHandle(ctx context.Context, from chat.Identity) error {
	if from.Handle() == chat.HandlePlaceholder {
		return fmt.Errorf("relay: user %d has no username", from.ID)
	}
	return b.toOperator(ctx, KindHandle, from.ID, "", b.header(b.texts.HandleTitle, from))
}

// RouteOperatorReply forwards the operator's reply text verbatim to the
// requester of the replied message and returns the requester id.
func (b *Bridge) RouteOperatorReply(ctx context.Context, r OperatorReply) (int64, error) {
	if strings.TrimSpace(r.Text) == "" {
		return 0, ErrEmptyReply
	}
	requester, err := b.resolve(ctx, r)
	if err != nil {
		logger.Warn(ctx, logger.CompRelay, "relay.reply.unresolved",
			slog.Int("operator_msg_id", r.OriginalMessageID),
			slog.String("error", err.Error()),
		)
		return 0, err
	}
	if err := b.deliver(ctx, KindReply, requester, r.Text, nil); err != nil {
		return requester, err
	}
	logger.Info(ctx, logger.CompRelay, "relay.reply.routed",
		slog.Int64("requester_id", requester),
		slog.Int("operator_msg_id", r.OriginalMessageID),
	)
	return requester, nil
}

func (b *Bridge) resolve(ctx context.Context, r OperatorReply) (int64, error) {
	if id, ok := ParseMarker(r.OriginalText); ok {
		return id, nil
	}
	if b.journal == nil || r.OriginalMessageID == 0 {
		return 0, ErrNoMarker
	}
	id, ok, err := b.journal.Lookup(ctx, r.OriginalMessageID)
	if err != nil {
		return 0, fmt.Errorf("relay: journal lookup: %w", err)
	}
	if !ok {
		return 0, ErrNoMarker
	}
	return id, nil
}

func (b *Bridge) toOperator(ctx context.Context, kind string, requesterID int64, leadID, text string) error {
	if !b.Enabled() {
		logger.Info(ctx, logger.CompRelay, "relay.skipped",
			slog.String("kind", kind),
			slog.Int64("requester_id", requesterID),
			slog.String("reason", "operator_not_configured"),
		)
		return ErrRelayDisabled
	}
	record := func(ctx context.Context, msgID int) {
		if b.journal == nil || msgID == 0 {
			return
		}
		err := b.journal.Record(ctx, Entry{
			OperatorMessageID: msgID,
			RequesterID:       requesterID,
			Kind:              kind,
			LeadID:            leadID,
		})
		if err != nil {
			logger.Warn(ctx, logger.CompRelay, "relay.journal.fail",
				slog.Int("operator_msg_id", msgID),
				slog.String("error", err.Error()),
			)
		}
	}
	err := b.deliver(ctx, kind, b.operatorID, text, record)
	if err != nil {
		return err
	}
	logger.Info(ctx, logger.CompRelay, "relay.queued",
		slog.String("kind", kind),
		slog.Int64("requester_id", requesterID),
		slog.String("lead_id", leadID),
	)
	return nil
}

// deliver sends text through the queue, or inline when no queue is set.
// onSent runs after a successful send.
func (b *Bridge) deliver(ctx context.Context, kind string, chatID int64, text string, onSent func(context.Context, int)) error {
	if b.sender == nil {
		return ErrRelayDisabled
	}
	send := func(ctx context.Context) error {
		msgID, err := b.sender.SendText(ctx, chatID, text)
		if err != nil {
			return err
		}
		if onSent != nil {
			onSent(ctx, msgID)
		}
		return nil
	}

	if b.queue == nil {
		if err := send(ctx); err != nil {
			return fmt.Errorf("relay: send %s: %w", kind, err)
		}
		return nil
	}

	jobCtx := context.WithoutCancel(ctx)
	if err := b.queue.Enqueue(jobCtx, "relay."+kind, "sendMessage", func() error {
		return send(jobCtx)
	}); err != nil {
		return fmt.Errorf("relay: enqueue %s: %w", kind, err)
	}
	return nil
}

// FormatLead renders the operator notification of a lead.
func (b *Bridge) FormatLead(lead form.Lead) string {
	var sb strings.Builder
	sb.WriteString(b.header(b.texts.LeadTitle, lead.Requester))
	if lead.Source != "" {
		fmt.Fprintf(&sb, "\n%s: %s", b.texts.SourceLabel, lead.Source)
	}
	if lead.ID != "" {
		fmt.Fprintf(&sb, "\n%s: %s", b.texts.LeadLabel, lead.ID)
	}
	if len(lead.Fields) > 0 {
		sb.WriteString("\n")
	}
	for _, f := range lead.Fields {
		fmt.Fprintf(&sb, "\n%s: %s", f.Label, f.Value)
	}
	return sb.String()
}

func (b *Bridge) header(title string, who chat.Identity) string {
	name := strings.TrimSpace(who.DisplayName)
	if name == "" {
		name = chat.HandlePlaceholder
	}
	return fmt.Sprintf("%s\n\n%s\n%s: %s\n%s: %s",
		title,
		Marker(who.ID),
		b.texts.ClientLabel, name,
		b.texts.UsernameLabel, who.Handle(),
	)
}
