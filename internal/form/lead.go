package form

import (
	"time"

	"github.com/m3rciful/screeningbot/internal/chat"
)

// LeadField is one answered field of a sent form.
type LeadField struct {
	ID      string
	Label   string
	Value   string
	Contact *chat.Contact
}

// Lead is the frozen record handed to the operator on Send.
type Lead struct {
	ID        string
	Schema    string
	Source    string
	Requester chat.Identity
	Fields    []LeadField
	CreatedAt time.Time
}

// Get returns the value of field id.
func (l Lead) Get(id string) (string, bool) {
	for _, f := range l.Fields {
		if f.ID == id {
			return f.Value, true
		}
	}
	return "", false
}

func snapshot(id string, s *Session, now time.Time) Lead {
	fields := make([]LeadField, 0, len(s.Fields))
	for _, f := range s.Schema.Fields {
		v, ok := s.Fields[f.ID]
		if !ok {
			continue
		}
		var contact *chat.Contact
		if v.Contact != nil {
			c := *v.Contact
			contact = &c
		}
		fields = append(fields, LeadField{ID: f.ID, Label: f.Label, Value: v.Text, Contact: contact})
	}
	return Lead{
		ID:        id,
		Schema:    s.Schema.Name,
		Source:    s.Source,
		Requester: s.Requester,
		Fields:    fields,
		CreatedAt: now,
	}
}
