package menu

import (
	"fmt"
	"strings"

	"github.com/m3rciful/screeningbot/internal/form"
)

// Kind selects what a menu button does.
type Kind string

const (
	KindStatic   Kind = "static"
	KindForm     Kind = "form"
	KindFreeText Kind = "free_text"
)

// Entry is one main-menu button.
type Entry struct {
	Label string `yaml:"label"`
	Kind  Kind   `yaml:"kind"`
	// Reply is the static answer, or the hint shown for free-text entries.
	Reply string `yaml:"reply"`
	// Form names the schema started by a form entry.
	Form string `yaml:"form"`
	// Source tags leads started here; defaults to Form.
	Source string `yaml:"source"`
}

// Layout is the main menu, row by row.
type Layout [][]Entry

// DefaultLayout returns the built-in main menu.
func DefaultLayout() Layout {
	return Layout{
		{{
			Label: "👶 Planning or expecting a baby",
			Kind:  KindStatic,
			Reply: "Carrier screening shows whether both partners carry the same recessive condition. " +
				"It takes one blood sample per partner and results are ready in about three weeks. " +
				"Tap \"📝 Book / Leave your contact\" and we will help you choose a panel.",
		}},
		{{
			Label:  "👨‍⚕️ I am a doctor",
			Kind:   KindForm,
			Form:   form.SchemaDoctor,
			Source: "doctor",
		}},
		{
			{Label: "📝 Book / Leave your contact", Kind: KindForm, Form: form.SchemaContact, Source: "contact"},
			{Label: "📞 Call me back", Kind: KindForm, Form: form.SchemaCallback, Source: "callback"},
		},
		{
			{
				Label: "✍️ Ask your own question",
				Kind:  KindFreeText,
				Reply: "You can type your question right here.",
			},
			{
				Label: "❓ FAQ",
				Kind:  KindStatic,
				Reply: "Who should be screened? Anyone planning a pregnancy.\n" +
					"Is it covered by insurance? Usually not, ask us for the current price.\n" +
					"Do I need to fast? No.",
			},
		},
	}
}

// Keyboard renders the layout as rows of labels.
func (l Layout) Keyboard() [][]string {
	rows := make([][]string, 0, len(l))
	for _, row := range l {
		labels := make([]string, 0, len(row))
		for _, e := range row {
			labels = append(labels, e.Label)
		}
		if len(labels) > 0 {
			rows = append(rows, labels)
		}
	}
	return rows
}

// index validates the layout against the catalog and maps labels to entries.
func (l Layout) index(catalog form.Catalog) (map[string]Entry, error) {
	out := make(map[string]Entry)
	for _, row := range l {
		for _, e := range row {
			e.Label = strings.TrimSpace(e.Label)
			if e.Label == "" {
				return nil, fmt.Errorf("menu: entry without label")
			}
			if _, dup := out[e.Label]; dup {
				return nil, fmt.Errorf("menu: duplicate label %q", e.Label)
			}
			switch e.Kind {
			case KindStatic, KindFreeText:
				if strings.TrimSpace(e.Reply) == "" {
					return nil, fmt.Errorf("menu: entry %q has no reply", e.Label)
				}
			case KindForm:
				if _, ok := catalog[e.Form]; !ok {
					return nil, fmt.Errorf("menu: entry %q uses unknown form %q", e.Label, e.Form)
				}
				if e.Source == "" {
					e.Source = e.Form
				}
			default:
				return nil, fmt.Errorf("menu: entry %q has unknown kind %q", e.Label, e.Kind)
			}
			out[e.Label] = e
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("menu: layout is empty")
	}
	return out, nil
}
