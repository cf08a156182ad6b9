package form

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/screeningbot/core/logger"
	"github.com/m3rciful/screeningbot/internal/chat"
	"github.com/m3rciful/screeningbot/internal/validate"
)

// Input is one user message as seen by the machine.
type Input struct {
	Text    string
	Contact *chat.Contact
}

// Outcome tells the caller what to do with the session after a step.
type Outcome int

const (
	// OutcomeContinue keeps the session; more input is expected.
	OutcomeContinue Outcome = iota
	// OutcomeCancelled means the session must be discarded.
	OutcomeCancelled
	// OutcomeSent means Result.Lead must be relayed and the session discarded.
	OutcomeSent
	// OutcomeInactive is returned for sessions that no longer own input.
	OutcomeInactive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeSent:
		return "sent"
	default:
		return "inactive"
	}
}

// Result is what a transition produced.
type Result struct {
	Replies []chat.Reply
	Outcome Outcome
	Lead    *Lead
}

type inputClass string

const (
	inputCancel  inputClass = "cancel"
	inputBack    inputClass = "back"
	inputContact inputClass = "contact"
	inputText    inputClass = "text"
)

// Machine drives sessions through their schema. It holds no per-user
// state and is safe for concurrent use on different sessions.
type Machine struct {
	texts Texts
	now   func() time.Time
	newID func() string
}

// NewMachine builds a machine emitting the given texts.
func NewMachine(texts Texts) *Machine {
	return &Machine{texts: texts, now: time.Now, newID: uuid.NewString}
}

// Texts returns the texts the machine was built with.
func (m *Machine) Texts() Texts { return m.texts }

// IsCancel reports whether text is the cancel label.
func (m *Machine) IsCancel(text string) bool {
	return strings.TrimSpace(text) == m.texts.Cancel
}

// Begin emits the first prompt of a freshly started session.
func (m *Machine) Begin(ctx context.Context, s *Session) Result {
	s.State = State{Phase: PhaseField}
	s.EditingField = ""
	logger.Debug(ctx, logger.CompForm, "form.begin",
		slog.String("schema", s.Schema.Name),
		slog.String("source", s.Source),
		slog.String("to", s.State.String()),
	)
	return proceed(m.prompt(s, 0))
}

// Step applies one input to s and returns the replies to emit.
func (m *Machine) Step(ctx context.Context, s *Session, in Input) Result {
	if !s.Active() {
		return Result{Outcome: OutcomeInactive}
	}

	from := s.State
	class := m.classify(in)

	var res Result
	switch {
	case class == inputCancel:
		res = m.cancel(s)
	case s.State.Phase == PhaseField:
		res = m.onField(s, in, class)
	case s.State.Phase == PhaseReview:
		res = m.onReview(s, in, class)
	case s.State.Phase == PhaseEditPick:
		res = m.onEditPick(s, in, class)
	default:
		res = Result{Outcome: OutcomeInactive}
	}

	logger.Debug(ctx, logger.CompForm, "form.transition",
		slog.String("schema", s.Schema.Name),
		slog.String("from", from.String()),
		slog.String("to", s.State.String()),
		slog.String("input", string(class)),
		slog.String("field", s.EditingField),
		slog.String("outcome", res.Outcome.String()),
	)
	return res
}

func (m *Machine) classify(in Input) inputClass {
	if in.Contact != nil {
		return inputContact
	}
	switch strings.TrimSpace(in.Text) {
	case m.texts.Cancel:
		return inputCancel
	case m.texts.Back:
		return inputBack
	}
	return inputText
}

func (m *Machine) cancel(s *Session) Result {
	s.State = State{Phase: PhaseCancelled}
	s.EditingField = ""
	return Result{
		Replies: []chat.Reply{{Text: m.texts.Cancelled}},
		Outcome: OutcomeCancelled,
	}
}

func (m *Machine) onField(s *Session, in Input, class inputClass) Result {
	i := s.State.Step
	if class == inputBack {
		if i > 0 {
			i--
		}
		s.State.Step = i
		return proceed(m.prompt(s, i))
	}

	f := s.Schema.Fields[i]
	v, ok := accept(f, in)
	if !ok {
		return proceed(chat.Reply{Text: m.texts.Invalid}, m.prompt(s, i))
	}
	s.Fields[f.ID] = v

	if s.EditingField == f.ID || i+1 >= s.Schema.Len() {
		s.EditingField = ""
		s.State = State{Phase: PhaseReview}
		return proceed(m.review(s))
	}
	s.State.Step = i + 1
	return proceed(m.prompt(s, i+1))
}

func (m *Machine) onReview(s *Session, in Input, class inputClass) Result {
	text := strings.TrimSpace(in.Text)
	switch {
	case class == inputBack:
		last := s.Schema.Len() - 1
		s.State = State{Phase: PhaseField, Step: last}
		return proceed(m.prompt(s, last))
	case class == inputText && text == m.texts.Send:
		lead := snapshot(m.newID(), s, m.now())
		s.State = State{Phase: PhaseSent}
		return Result{
			Replies: []chat.Reply{{Text: m.texts.Sent}},
			Outcome: OutcomeSent,
			Lead:    &lead,
		}
	case class == inputText && text == m.texts.Edit:
		s.State = State{Phase: PhaseEditPick}
		return proceed(m.editList(s))
	}
	return proceed(m.review(s))
}

func (m *Machine) onEditPick(s *Session, in Input, class inputClass) Result {
	if class == inputBack {
		s.State = State{Phase: PhaseReview}
		return proceed(m.review(s))
	}
	if class == inputText {
		if i, ok := s.Schema.ByLabel(in.Text); ok {
			s.EditingField = s.Schema.Fields[i].ID
			s.State = State{Phase: PhaseField, Step: i}
			return proceed(m.prompt(s, i))
		}
	}
	return proceed(m.editList(s))
}

// accept applies the field rules to in and returns the value to store.
func accept(f Field, in Input) (Value, bool) {
	text := in.Text
	if in.Contact != nil {
		phone := in.Contact.Text()
		if phone == "" {
			return Value{}, false
		}
		if f.AcceptsContact {
			c := *in.Contact
			return Value{Text: phone, Contact: &c}, true
		}
		text = phone
	}
	text = strings.TrimSpace(text)

	if len(f.Choices) > 0 {
		if choice, ok := matchChoice(f.Choices, text); ok {
			text = choice
		} else if !f.FreeText {
			return Value{}, false
		}
	}
	if f.Required && !validate.IsNonEmptyTrimmed(text) {
		return Value{}, false
	}
	if f.Validate != nil && !f.Validate(text) {
		return Value{}, false
	}
	return Value{Text: text}, true
}

func matchChoice(choices []string, text string) (string, bool) {
	for _, c := range choices {
		if strings.EqualFold(strings.TrimSpace(c), text) {
			return c, true
		}
	}
	return "", false
}

func (m *Machine) prompt(s *Session, i int) chat.Reply {
	f := s.Schema.Fields[i]
	text := f.Prompt
	if v, ok := s.Fields[f.ID]; ok && m.texts.Current != "" {
		text += "\n\n" + fmt.Sprintf(m.texts.Current, v.Text)
	}

	rows := make([][]string, 0, len(f.Choices)+1)
	for _, c := range f.Choices {
		rows = append(rows, []string{c})
	}
	if i > 0 {
		rows = append(rows, []string{m.texts.Back, m.texts.Cancel})
	} else {
		rows = append(rows, []string{m.texts.Cancel})
	}

	r := chat.Reply{Text: text, Keyboard: rows}
	if f.AcceptsContact {
		r.ContactButton = m.texts.ShareContact
	}
	return r
}

// Summary renders the captured fields as labelled lines in schema order.
func Summary(s *Session) string {
	var b strings.Builder
	for _, f := range s.Schema.Fields {
		v, ok := s.Fields[f.ID]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", f.Label, v.Text)
	}
	return b.String()
}

func (m *Machine) review(s *Session) chat.Reply {
	return chat.Reply{
		Text: m.texts.ReviewHeader + "\n\n" + Summary(s),
		Keyboard: [][]string{
			{m.texts.Send},
			{m.texts.Edit},
			{m.texts.Back, m.texts.Cancel},
		},
	}
}

func (m *Machine) editList(s *Session) chat.Reply {
	rows := make([][]string, 0, s.Schema.Len()+1)
	for _, f := range s.Schema.Fields {
		if f.Editable {
			rows = append(rows, []string{f.Label})
		}
	}
	rows = append(rows, []string{m.texts.Back, m.texts.Cancel})
	return chat.Reply{Text: m.texts.EditPrompt, Keyboard: rows}
}

func proceed(replies ...chat.Reply) Result {
	return Result{Replies: replies, Outcome: OutcomeContinue}
}
