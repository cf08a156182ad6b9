package form

import (
	"fmt"
	"strings"

	"github.com/m3rciful/screeningbot/internal/validate"
)

// Stable field identifiers.
const (
	FieldName     = "name"
	FieldPhone    = "phone"
	FieldQuestion = "question"
	FieldTime     = "preferred_time"
	FieldChannel  = "channel"
)

// Schema names, one per form entry point.
const (
	SchemaContact  = "contact"
	SchemaCallback = "callback"
	SchemaDoctor   = "doctor"
)

// Field is one question of a form.
type Field struct {
	ID     string
	Label  string
	Prompt string
	// Validate runs on text input; nil accepts anything that passes the
	// Required and Choices checks.
	Validate validate.Func
	// Choices, when set, is offered as a keyboard and is the only accepted
	// input unless FreeText is true.
	Choices  []string
	FreeText bool
	Required bool
	// AcceptsContact lets a structured contact payload answer the field
	// without running Validate.
	AcceptsContact bool
	Editable       bool
}

// Schema is an ordered, read-only list of fields.
type Schema struct {
	Name   string
	Fields []Field
	index  map[string]int
}

// NewSchema validates ids and builds the lookup index.
func NewSchema(name string, fields ...Field) (*Schema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("form: schema name is required")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("form: schema %q has no fields", name)
	}
	s := &Schema{Name: name, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		if f.ID == "" {
			return nil, fmt.Errorf("form: schema %q field #%d has no id", name, i)
		}
		if _, dup := s.index[f.ID]; dup {
			return nil, fmt.Errorf("form: schema %q has duplicate field %q", name, f.ID)
		}
		s.index[f.ID] = i
	}
	return s, nil
}

// MustSchema is NewSchema for static definitions.
func MustSchema(name string, fields ...Field) *Schema {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.Fields) }

// Index returns the position of field id, or -1.
func (s *Schema) Index(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// ByLabel finds an editable field by its label.
func (s *Schema) ByLabel(label string) (int, bool) {
	label = strings.TrimSpace(label)
	for i, f := range s.Fields {
		if f.Editable && f.Label == label {
			return i, true
		}
	}
	return 0, false
}

// Catalog maps schema names to schemas.
type Catalog map[string]*Schema

// DefaultChannels are the choices of the channel field.
var DefaultChannels = []string{"📞 Phone call", "✈️ Telegram", "💬 WhatsApp"}

// DefaultCatalog builds the built-in schemas with labels and prompts from t.
func DefaultCatalog(t Texts) Catalog {
	field := func(id string) Field {
		ft := t.Fields[id]
		return Field{ID: id, Label: ft.Label, Prompt: ft.Prompt, Required: true, Editable: true}
	}
	name := field(FieldName)
	phone := field(FieldPhone)
	phone.Validate = validate.IsPlausiblePhone
	phone.AcceptsContact = true
	question := field(FieldQuestion)
	when := field(FieldTime)
	channel := field(FieldChannel)
	channel.Choices = DefaultChannels

	return Catalog{
		SchemaContact:  MustSchema(SchemaContact, name, phone, question, when, channel),
		SchemaCallback: MustSchema(SchemaCallback, name, phone),
		SchemaDoctor:   MustSchema(SchemaDoctor, name, phone, question),
	}
}
