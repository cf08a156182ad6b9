package form

import (
	"fmt"
	"time"

	"github.com/m3rciful/screeningbot/internal/chat"
)

// Phase is the coarse position of a session in the form.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseField     Phase = "field"
	PhaseReview    Phase = "review"
	PhaseEditPick  Phase = "edit_pick"
	PhaseCancelled Phase = "cancelled"
	PhaseSent      Phase = "sent"
)

// State is a phase plus, for PhaseField, the index of the field asked.
type State struct {
	Phase Phase
	Step  int
}

func (s State) String() string {
	if s.Phase == PhaseField {
		return fmt.Sprintf("%s:%d", s.Phase, s.Step)
	}
	return string(s.Phase)
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s.Phase == PhaseCancelled || s.Phase == PhaseSent
}

// Value is a captured answer.
type Value struct {
	Text    string
	Contact *chat.Contact
}

func (v Value) String() string { return v.Text }

// Session is the per-user form progress.
type Session struct {
	UserID       int64
	Requester    chat.Identity
	Schema       *Schema
	Source       string
	State        State
	Fields       map[string]Value
	EditingField string
	StartedAt    time.Time
}

func newSession(userID int64, requester chat.Identity, schema *Schema, source string, now time.Time) *Session {
	return &Session{
		UserID:    userID,
		Requester: requester,
		Schema:    schema,
		Source:    source,
		State:     State{Phase: PhaseField},
		Fields:    make(map[string]Value, schema.Len()),
		StartedAt: now,
	}
}

// Active reports whether the session still owns the user's input.
func (s *Session) Active() bool {
	return s != nil && s.State.Phase != PhaseIdle && !s.State.Terminal()
}

// Value returns the captured answer for field id.
func (s *Session) Value(id string) (Value, bool) {
	v, ok := s.Fields[id]
	return v, ok
}

// Captured lists the ids of answered fields in schema order.
func (s *Session) Captured() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Schema.Fields {
		if _, ok := s.Fields[f.ID]; ok {
			out = append(out, f.ID)
		}
	}
	return out
}

// Contiguous reports whether the answered fields form a prefix of the
// schema with no gaps.
func (s *Session) Contiguous() bool {
	seenGap := false
	for _, f := range s.Schema.Fields {
		_, ok := s.Fields[f.ID]
		if ok && seenGap {
			return false
		}
		if !ok {
			seenGap = true
		}
	}
	return true
}

// Current returns the field being asked, if any.
func (s *Session) Current() (Field, bool) {
	if s.State.Phase != PhaseField || s.State.Step < 0 || s.State.Step >= s.Schema.Len() {
		return Field{}, false
	}
	return s.Schema.Fields[s.State.Step], true
}
