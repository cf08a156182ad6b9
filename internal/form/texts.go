package form

// FieldText overrides the label and prompt of one field.
type FieldText struct {
	Label  string `yaml:"label"`
	Prompt string `yaml:"prompt"`
}

// Texts holds every user-facing string the machine emits.
type Texts struct {
	Back   string `yaml:"back"`
	Cancel string `yaml:"cancel"`
	Send   string `yaml:"send"`
	Edit   string `yaml:"edit"`

	Invalid      string `yaml:"invalid"`
	Current      string `yaml:"current"`
	ReviewHeader string `yaml:"review_header"`
	EditPrompt   string `yaml:"edit_prompt"`
	Cancelled    string `yaml:"cancelled"`
	Sent         string `yaml:"sent"`
	ShareContact string `yaml:"share_contact"`

	Fields map[string]FieldText `yaml:"fields"`
}

// DefaultTexts returns the built-in English texts.
func DefaultTexts() Texts {
	return Texts{
		Back:         "⬅️ Back",
		Cancel:       "❌ Cancel",
		Send:         "✅ Send",
		Edit:         "✏️ Edit",
		Invalid:      "That doesn't look right, please check the format and try again.",
		Current:      "Current answer: %s",
		ReviewHeader: "Please check your request:",
		EditPrompt:   "Which answer would you like to change?",
		Cancelled:    "Request cancelled. Back to the main menu.",
		Sent:         "Thank you! Your request has been sent, we will contact you soon.",
		ShareContact: "📱 Share my phone number",
		Fields: map[string]FieldText{
			FieldName:     {Label: "Name", Prompt: "How should we address you?"},
			FieldPhone:    {Label: "Phone", Prompt: "Your phone number in international format, e.g. +1 202 555 0119. You can also tap the button below."},
			FieldQuestion: {Label: "Question", Prompt: "What would you like to ask?"},
			FieldTime:     {Label: "Preferred time", Prompt: "When is it convenient to contact you?"},
			FieldChannel:  {Label: "Channel", Prompt: "How should we contact you?"},
		},
	}
}

// Merge returns t with every non-empty value of o applied on top.
func (t Texts) Merge(o Texts) Texts {
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&t.Back, o.Back)
	pick(&t.Cancel, o.Cancel)
	pick(&t.Send, o.Send)
	pick(&t.Edit, o.Edit)
	pick(&t.Invalid, o.Invalid)
	pick(&t.Current, o.Current)
	pick(&t.ReviewHeader, o.ReviewHeader)
	pick(&t.EditPrompt, o.EditPrompt)
	pick(&t.Cancelled, o.Cancelled)
	pick(&t.Sent, o.Sent)
	pick(&t.ShareContact, o.ShareContact)

	fields := make(map[string]FieldText, len(t.Fields))
	for id, ft := range t.Fields {
		fields[id] = ft
	}
	for id, ft := range o.Fields {
		cur := fields[id]
		pick(&cur.Label, ft.Label)
		pick(&cur.Prompt, ft.Prompt)
		fields[id] = cur
	}
	t.Fields = fields
	return t
}
